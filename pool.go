package matview

import "sync"

const pooledSliceSize = 256

// slicePool recycles scratch slices between conversion passes.  Workers
// grab a slice, grow it to the length they need and hand it back; slices
// whose capacity is below the pooled size are dropped rather than retained.
type slicePool[T any] struct {
	pool sync.Pool
}

func newSlicePool[T any]() *slicePool[T] {
	return &slicePool[T]{pool: sync.Pool{New: func() any {
		s := make([]T, pooledSliceSize)
		return &s
	}}}
}

// get returns a slice of length n.  If clear is set the visible portion is
// zeroed.
func (p *slicePool[T]) get(n int, clear bool) []T {
	s := *(p.pool.Get().(*[]T))
	if cap(s) < n {
		s = make([]T, n)
	}
	s = s[:n]
	if clear {
		var zero T
		for i := range s {
			s[i] = zero
		}
	}
	return s
}

// put returns a slice to the pool.  The caller must not retain references
// to the underlying array.
func (p *slicePool[T]) put(s []T) {
	if cap(s) >= pooledSliceSize {
		p.pool.Put(&s)
	}
}
