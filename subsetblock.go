package matview

import "fmt"

// delayedSubsetBlock restricts one dimension of its child to a contiguous
// block [start, start+length).  Requests along the restricted axis
// translate the target index; requests along the other axis translate the
// subset descriptor instead and shift any reported sparse indices back
// into the block-relative coordinate space.
type delayedSubsetBlock[V Value, I Index] struct {
	child  Matrix[V, I]
	byRow  bool
	start  I
	length I
}

// NewDelayedSubsetBlock restricts the rows (byRow=true) or columns
// (byRow=false) of child to [start, start+length).
func NewDelayedSubsetBlock[V Value, I Index](child Matrix[V, I], byRow bool, start, length I) (Matrix[V, I], error) {
	extent := primaryExtent(child, byRow)
	if start < 0 || length < 0 || int64(start)+int64(length) > int64(extent) {
		return nil, fmt.Errorf("%w: block [%d, %d) outside extent %d", ErrInvalidArgument, start, start+length, extent)
	}
	return &delayedSubsetBlock[V, I]{child: child, byRow: byRow, start: start, length: length}, nil
}

func (m *delayedSubsetBlock[V, I]) NRow() I {
	if m.byRow {
		return m.length
	}
	return m.child.NRow()
}

func (m *delayedSubsetBlock[V, I]) NCol() I {
	if m.byRow {
		return m.child.NCol()
	}
	return m.length
}

func (m *delayedSubsetBlock[V, I]) IsSparse() bool { return m.child.IsSparse() }

func (m *delayedSubsetBlock[V, I]) SparseProportion() float64 { return m.child.SparseProportion() }

func (m *delayedSubsetBlock[V, I]) PreferRows() bool { return m.child.PreferRows() }

func (m *delayedSubsetBlock[V, I]) PreferRowsProportion() float64 {
	return m.child.PreferRowsProportion()
}

func (m *delayedSubsetBlock[V, I]) UsesOracle(row bool) bool { return m.child.UsesOracle(row) }

// translate maps a caller subset over the restricted axis into child
// coordinates.
func (m *delayedSubsetBlock[V, I]) translate(sub Subset[I]) (Subset[I], error) {
	if err := sub.validate(m.length); err != nil {
		return sub, err
	}
	switch sub.Kind() {
	case SubsetFull:
		return Block(m.start, m.length), nil
	case SubsetBlock:
		return Block(m.start+sub.Start(), I(sub.Len(0))), nil
	default:
		ids := sub.Indices()
		shifted := make([]I, len(ids))
		for k, id := range ids {
			shifted[k] = id + m.start
		}
		return Picked(shifted), nil
	}
}

func (m *delayedSubsetBlock[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	if row == m.byRow {
		inner, err := m.child.Dense(row, sub, opt)
		if err != nil {
			return nil, err
		}
		return &offsetTargetDense[V, I]{inner: inner, off: m.start}, nil
	}
	tsub, err := m.translate(sub)
	if err != nil {
		return nil, err
	}
	return m.child.Dense(row, tsub, opt)
}

func (m *delayedSubsetBlock[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	if row == m.byRow {
		inner, err := m.child.Sparse(row, sub, opt)
		if err != nil {
			return nil, err
		}
		return &offsetTargetSparse[V, I]{inner: inner, off: m.start}, nil
	}
	tsub, err := m.translate(sub)
	if err != nil {
		return nil, err
	}
	inner, err := m.child.Sparse(row, tsub, opt)
	if err != nil {
		return nil, err
	}
	if !opt.ExtractIndex || m.start == 0 {
		return inner, nil
	}
	return &offsetIndexSparse[V, I]{inner: inner, off: m.start}, nil
}

func (m *delayedSubsetBlock[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	if row == m.byRow {
		return m.child.DenseWithOracle(row, &offsetOracle[I]{inner: oracle, off: m.start}, sub, opt)
	}
	tsub, err := m.translate(sub)
	if err != nil {
		return nil, err
	}
	return m.child.DenseWithOracle(row, oracle, tsub, opt)
}

func (m *delayedSubsetBlock[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	if row == m.byRow {
		return m.child.SparseWithOracle(row, &offsetOracle[I]{inner: oracle, off: m.start}, sub, opt)
	}
	tsub, err := m.translate(sub)
	if err != nil {
		return nil, err
	}
	inner, err := m.child.SparseWithOracle(row, oracle, tsub, opt)
	if err != nil {
		return nil, err
	}
	if !opt.ExtractIndex || m.start == 0 {
		return inner, nil
	}
	return &offsetIndexSparseOracular[V, I]{inner: inner, off: m.start}, nil
}

// offsetOracle shifts every prediction by a fixed offset.
type offsetOracle[I Index] struct {
	inner Oracle[I]
	off   I
}

func (o *offsetOracle[I]) Total() int { return o.inner.Total() }

func (o *offsetOracle[I]) Get(k int) I { return o.inner.Get(k) + o.off }

// offsetTargetDense shifts the target index of every dense fetch.
type offsetTargetDense[V Value, I Index] struct {
	inner DenseExtractor[V, I]
	off   I
}

func (e *offsetTargetDense[V, I]) Fetch(i I, buf []V) []V {
	return e.inner.Fetch(i+e.off, buf)
}

// offsetTargetSparse shifts the target index of every sparse fetch.
type offsetTargetSparse[V Value, I Index] struct {
	inner SparseExtractor[V, I]
	off   I
}

func (e *offsetTargetSparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	return e.inner.Fetch(i+e.off, vbuf, ibuf)
}

// shiftIndices rewrites a returned index slice into ibuf with the block
// offset removed.  Reading and writing the same buffer is fine when the
// child already materialised into it.
func shiftIndices[V Value, I Index](r SparseRange[V, I], ibuf []I, off I) SparseRange[V, I] {
	for k := 0; k < r.Number; k++ {
		ibuf[k] = r.Index[k] - off
	}
	r.Index = ibuf[:r.Number]
	return r
}

// offsetIndexSparse maps reported indices back into block coordinates.
type offsetIndexSparse[V Value, I Index] struct {
	inner SparseExtractor[V, I]
	off   I
}

func (e *offsetIndexSparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	return shiftIndices(e.inner.Fetch(i, vbuf, ibuf), ibuf, e.off)
}

type offsetIndexSparseOracular[V Value, I Index] struct {
	inner OracularSparseExtractor[V, I]
	off   I
}

func (e *offsetIndexSparseOracular[V, I]) FetchNext(vbuf []V, ibuf []I) SparseRange[V, I] {
	return shiftIndices(e.inner.FetchNext(vbuf, ibuf), ibuf, e.off)
}
