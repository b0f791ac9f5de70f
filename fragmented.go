package matview

import (
	"fmt"
	"sort"
)

// FragmentedSparse is the fragmented sparse storage engine: each primary
// element owns an independent pair of value/index slices instead of a view
// into one compressed allocation.  This is the natural output of one-pass
// conversions and incremental construction; access semantics are identical
// to CompressedSparse, including the secondary cursor cache.
type FragmentedSparse[V Value, I Index] struct {
	rows, cols I
	byRow      bool
	values     [][]V
	indices    [][]I
	nnz        int
}

// NewFragmentedSparseRowMatrix creates a fragmented sparse matrix grouped
// by row: values[r] and indices[r] hold row r's non-zero elements with
// strictly increasing column positions.
func NewFragmentedSparseRowMatrix[V Value, I Index](nr, nc I, values [][]V, indices [][]I, check bool) (*FragmentedSparse[V, I], error) {
	return newFragmentedSparse(nr, nc, true, values, indices, check)
}

// NewFragmentedSparseColumnMatrix creates a fragmented sparse matrix
// grouped by column.
func NewFragmentedSparseColumnMatrix[V Value, I Index](nr, nc I, values [][]V, indices [][]I, check bool) (*FragmentedSparse[V, I], error) {
	return newFragmentedSparse(nr, nc, false, values, indices, check)
}

func newFragmentedSparse[V Value, I Index](nr, nc I, byRow bool, values [][]V, indices [][]I, check bool) (*FragmentedSparse[V, I], error) {
	if nr < 0 || nc < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d x %d", ErrInvalidArgument, nr, nc)
	}
	m := &FragmentedSparse[V, I]{rows: nr, cols: nc, byRow: byRow, values: values, indices: indices}
	if check {
		if err := m.verify(); err != nil {
			return nil, err
		}
	}
	for _, v := range values {
		m.nnz += len(v)
	}
	return m, nil
}

func (m *FragmentedSparse[V, I]) verify() error {
	np := int(m.primary())
	if len(m.values) != np || len(m.indices) != np {
		return fmt.Errorf("%w: per-primary slices should have length %d", ErrInvalidArgument, np)
	}
	sec := m.secondary()
	for p := 0; p < np; p++ {
		if len(m.values[p]) != len(m.indices[p]) {
			return fmt.Errorf("%w: values and indices differ in length for primary element %d", ErrInvalidArgument, p)
		}
		for k, id := range m.indices[p] {
			if id < 0 || id >= sec {
				return fmt.Errorf("%w: index %d outside extent %d", ErrInvalidArgument, id, sec)
			}
			if k > 0 && m.indices[p][k-1] >= id {
				return fmt.Errorf("%w: indices should be strictly increasing within each primary element", ErrInvalidArgument)
			}
		}
	}
	return nil
}

func (m *FragmentedSparse[V, I]) primary() I {
	if m.byRow {
		return m.rows
	}
	return m.cols
}

func (m *FragmentedSparse[V, I]) secondary() I {
	if m.byRow {
		return m.cols
	}
	return m.rows
}

// NRow returns the number of rows.
func (m *FragmentedSparse[V, I]) NRow() I { return m.rows }

// NCol returns the number of columns.
func (m *FragmentedSparse[V, I]) NCol() I { return m.cols }

// NNZ returns the number of stored non-zero elements.
func (m *FragmentedSparse[V, I]) NNZ() int { return m.nnz }

// IsSparse returns true.
func (m *FragmentedSparse[V, I]) IsSparse() bool { return true }

// SparseProportion returns 1.
func (m *FragmentedSparse[V, I]) SparseProportion() float64 { return 1 }

// PreferRows reports whether the storage is grouped by row.
func (m *FragmentedSparse[V, I]) PreferRows() bool { return m.byRow }

// PreferRowsProportion returns 1 for row-grouped storage and 0 otherwise.
func (m *FragmentedSparse[V, I]) PreferRowsProportion() float64 {
	if m.byRow {
		return 1
	}
	return 0
}

// UsesOracle returns false.
func (m *FragmentedSparse[V, I]) UsesOracle(bool) bool { return false }

// Dense returns a myopic dense extractor.
func (m *FragmentedSparse[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
		return nil, err
	}
	if row == m.byRow {
		return &fragmentedPrimaryDense[V, I]{m: m, sub: sub}, nil
	}
	return &secondaryDense[V, I]{core: m.newSecondaryCore(sub), n: sub.Len(secondaryExtent[V, I](m, row))}, nil
}

// Sparse returns a myopic sparse extractor.
func (m *FragmentedSparse[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
		return nil, err
	}
	if row == m.byRow {
		return &fragmentedPrimarySparse[V, I]{m: m, sub: sub, opt: opt}, nil
	}
	return &secondarySparse[V, I]{core: m.newSecondaryCore(sub), opt: opt}, nil
}

// DenseWithOracle returns an oracle-driven dense extractor.
func (m *FragmentedSparse[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	inner, err := m.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicDenseOracular(inner, oracle), nil
}

// SparseWithOracle returns an oracle-driven sparse extractor.
func (m *FragmentedSparse[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	inner, err := m.Sparse(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicSparseOracular(inner, oracle), nil
}

func (m *FragmentedSparse[V, I]) newSecondaryCore(sub Subset[I]) *secondaryCore[V, I] {
	prim := subsetPrimaries(sub, m.primary())
	vals := make([][]V, len(prim))
	idx := make([][]I, len(prim))
	for k, p := range prim {
		vals[k], idx[k] = m.values[p], m.indices[p]
	}
	return newSecondaryCore(m.secondary(), prim, vals, idx)
}

// primaryRange locates the run of primary element p restricted to the
// secondary interval [first, last), as offsets into its own slices.
func (m *FragmentedSparse[V, I]) primaryRange(p, first, last I) (int, int) {
	idx := m.indices[p]
	lo, hi := 0, len(idx)
	if first > 0 {
		lo = sort.Search(hi, func(t int) bool { return idx[t] >= first })
	}
	if last != m.secondary() {
		hi = lo + sort.Search(hi-lo, func(t int) bool { return idx[lo+t] >= last })
	}
	return lo, hi
}

type fragmentedPrimaryDense[V Value, I Index] struct {
	m   *FragmentedSparse[V, I]
	sub Subset[I]
}

func (e *fragmentedPrimaryDense[V, I]) Fetch(i I, buf []V) []V {
	m := e.m
	sec := m.secondary()
	n := e.sub.Len(sec)
	out := buf[:n]
	for k := range out {
		out[k] = 0
	}

	vals, idx := m.values[i], m.indices[i]
	if e.sub.Kind() == SubsetIndexed {
		ids := e.sub.Indices()
		k, t := 0, 0
		for k < len(ids) && t < len(idx) {
			switch {
			case idx[t] < ids[k]:
				t++
			case idx[t] > ids[k]:
				k++
			default:
				out[k] = vals[t]
				k++
				t++
			}
		}
		return out
	}

	first, last := e.sub.Bounds(sec)
	lo, hi := m.primaryRange(i, first, last)
	for t := lo; t < hi; t++ {
		out[idx[t]-first] = vals[t]
	}
	return out
}

type fragmentedPrimarySparse[V Value, I Index] struct {
	m   *FragmentedSparse[V, I]
	sub Subset[I]
	opt Options
}

func (e *fragmentedPrimarySparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	m := e.m
	vals, idx := m.values[i], m.indices[i]

	if e.sub.Kind() == SubsetIndexed {
		ids := e.sub.Indices()
		out := SparseRange[V, I]{}
		k, t := 0, 0
		for k < len(ids) && t < len(idx) {
			switch {
			case idx[t] < ids[k]:
				t++
			case idx[t] > ids[k]:
				k++
			default:
				if e.opt.ExtractValue {
					vbuf[out.Number] = vals[t]
				}
				if e.opt.ExtractIndex {
					ibuf[out.Number] = idx[t]
				}
				out.Number++
				k++
				t++
			}
		}
		if e.opt.ExtractValue {
			out.Value = vbuf[:out.Number]
		}
		if e.opt.ExtractIndex {
			out.Index = ibuf[:out.Number]
		}
		return out
	}

	first, last := e.sub.Bounds(m.secondary())
	lo, hi := m.primaryRange(i, first, last)
	out := SparseRange[V, I]{Number: hi - lo}
	if e.opt.ExtractValue {
		out.Value = vals[lo:hi]
	}
	if e.opt.ExtractIndex {
		out.Index = idx[lo:hi]
	}
	return out
}
