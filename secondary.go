package matview

import "sort"

// secondaryCore is the cursor cache that makes cross-grain iteration over
// compressed and fragmented sparse storage efficient.  One instance serves
// a single secondary-axis extractor: for every primary element in the
// extractor's subset it remembers the position of the pointer last
// consulted (ptr) and the stored index at that position (dex), so that
// monotone secondary requests advance in amortised constant time.  The
// stored slices are presented per primary element, which lets the same core
// serve both storage engines: a compressed matrix hands out sub-slices of
// its backing arrays, a fragmented matrix hands out the per-primary
// allocations directly.
type secondaryCore[V Value, I Index] struct {
	// max is the extent of the target dimension, doubling as the sentinel
	// for a cursor that has run off the end of its slice.
	max  I
	prim []I    // primary index per subset position
	vals [][]V  // per-position value slices
	idx  [][]I  // per-position index slices, each strictly increasing
	ptr  []int  // cursor per position, in [0, len(idx[k])]
	dex  []I    // idx[k][ptr[k]], or max when the cursor is exhausted

	last    I
	started bool

	// Cheap global short-circuits: when every cursor is known to sit
	// strictly above (or below) the requested coordinate, the whole subset
	// pass is skipped.  Each summary is only valid while requests keep
	// moving in its direction.
	aboveOK  bool
	aboveMin I
	belowOK  bool
	belowAny bool
	belowMax I
}

func newSecondaryCore[V Value, I Index](max I, prim []I, vals [][]V, idx [][]I) *secondaryCore[V, I] {
	n := len(prim)
	c := &secondaryCore[V, I]{
		max:  max,
		prim: prim,
		vals: vals,
		idx:  idx,
		ptr:  make([]int, n),
		dex:  make([]I, n),
	}
	for k, ix := range idx {
		if len(ix) > 0 {
			c.dex[k] = ix[0]
		} else {
			c.dex[k] = max
		}
	}
	return c
}

// run visits every primary element of the subset whose stored indices
// contain the secondary coordinate s, calling emit with the subset
// position, the primary index and the stored value.  Positions are visited
// in ascending order, so emissions are ordered by primary index.
func (c *secondaryCore[V, I]) run(s I, emit func(k int, p I, v V)) {
	ascending := !c.started || s >= c.last
	c.started = true
	c.last = s

	if ascending {
		if c.aboveOK && s < c.aboveMin {
			return
		}
		min := c.max
		for k := range c.prim {
			c.searchAbove(s, k)
			d := c.dex[k]
			if d == s {
				emit(k, c.prim[k], c.vals[k][c.ptr[k]])
			}
			if d < min {
				min = d
			}
		}
		c.aboveMin, c.aboveOK = min, true
		c.belowOK = false
		return
	}

	if c.belowOK && (!c.belowAny || s > c.belowMax) {
		return
	}
	var below I
	any := false
	for k := range c.prim {
		c.searchBelow(s, k)
		if c.dex[k] == s {
			emit(k, c.prim[k], c.vals[k][c.ptr[k]])
		}
		if p := c.ptr[k]; p > 0 {
			if b := c.idx[k][p-1]; !any || b > below {
				below, any = b, true
			}
		}
	}
	c.belowMax, c.belowAny, c.belowOK = below, any, true
	c.aboveOK = false
}

// searchAbove moves the k-th cursor forward until it sits on the first
// stored index >= s.  Nothing to do when the cached index is already at or
// past s; that also covers exhausted cursors, whose dex is the sentinel.
func (c *secondaryCore[V, I]) searchAbove(s I, k int) {
	if s <= c.dex[k] {
		return
	}

	idx := c.idx[k]
	n := len(idx)

	// The requested coordinate is the last possible one, so jump straight
	// to the final entry rather than binary searching the whole tail.
	if s+1 == c.max {
		if idx[n-1] == s {
			c.ptr[k] = n - 1
			c.dex[k] = s
		} else {
			c.ptr[k] = n
			c.dex[k] = c.max
		}
		return
	}

	// Peek at the next entry first; consecutive or near-consecutive
	// requests usually land here without a search.
	p := c.ptr[k] + 1
	if p == n {
		c.ptr[k] = n
		c.dex[k] = c.max
		return
	}
	if cand := idx[p]; cand >= s {
		c.ptr[k] = p
		c.dex[k] = cand
		return
	}

	p++
	j := p + sort.Search(n-p, func(t int) bool { return idx[p+t] >= s })
	c.ptr[k] = j
	if j < n {
		c.dex[k] = idx[j]
	} else {
		c.dex[k] = c.max
	}
}

// searchBelow is the descending counterpart of searchAbove, leaving the
// cursor on the first stored index >= s.
func (c *secondaryCore[V, I]) searchBelow(s I, k int) {
	if s == c.dex[k] {
		return
	}
	p := c.ptr[k]
	if p == 0 {
		return
	}
	idx := c.idx[k]

	// Requests for coordinate zero jump straight to the front.
	if s == 0 {
		c.ptr[k] = 0
		c.dex[k] = idx[0]
		return
	}

	// Peek at the previous entry; if it is still below s the cursor is
	// already the lower bound and nothing moves.
	cand := idx[p-1]
	if cand < s {
		return
	}

	p--
	c.ptr[k] = p
	c.dex[k] = cand
	if cand == s {
		return
	}

	j := sort.Search(p, func(t int) bool { return idx[t] >= s })
	c.ptr[k] = j
	c.dex[k] = idx[j]
}

// secondaryDense adapts a secondaryCore into a DenseExtractor.
type secondaryDense[V Value, I Index] struct {
	core *secondaryCore[V, I]
	n    int
}

func (e *secondaryDense[V, I]) Fetch(i I, buf []V) []V {
	out := buf[:e.n]
	for k := range out {
		out[k] = 0
	}
	e.core.run(i, func(k int, _ I, v V) { out[k] = v })
	return out
}

// secondarySparse adapts a secondaryCore into a SparseExtractor.
type secondarySparse[V Value, I Index] struct {
	core *secondaryCore[V, I]
	opt  Options
}

func (e *secondarySparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	out := SparseRange[V, I]{}
	e.core.run(i, func(_ int, p I, v V) {
		if e.opt.ExtractValue {
			vbuf[out.Number] = v
		}
		if e.opt.ExtractIndex {
			ibuf[out.Number] = p
		}
		out.Number++
	})
	if e.opt.ExtractValue {
		out.Value = vbuf[:out.Number]
	}
	if e.opt.ExtractIndex {
		out.Index = ibuf[:out.Number]
	}
	return out
}

// subsetPrimaries resolves a subset over the primary dimension into the
// explicit position -> primary mapping needed by the cursor cache.
func subsetPrimaries[I Index](sub Subset[I], extent I) []I {
	n := sub.Len(extent)
	prim := make([]I, n)
	for k := 0; k < n; k++ {
		prim[k] = sub.At(k, extent)
	}
	return prim
}
