package matview

import (
	"fmt"
	"sort"
)

// CompressedSparse is the compressed sparse storage engine, covering both
// the row-compressed (CSR) and column-compressed (CSC) layouts.  Non-zero
// values and their indices along the secondary dimension are stored in two
// parallel slices; pointers[p] .. pointers[p+1] delimits the run belonging
// to primary element p.  The supplied slices are used as the backing
// storage without copying and must not be modified afterwards.
//
// Extraction along the primary dimension is a pair of binary searches.
// Extraction along the secondary dimension goes through a per-primary
// cursor cache (see secondaryCore) that makes monotone sweeps cheap.
type CompressedSparse[V Value, I Index] struct {
	rows, cols I
	byRow      bool
	values     []V
	indices    []I
	pointers   []int
}

// NewCSRMatrix creates a compressed sparse row matrix.  indices holds
// column positions, strictly increasing within each row; pointers has
// length nr+1.  When check is true the invariants are verified and
// violations are reported with an error wrapping ErrInvalidArgument.
func NewCSRMatrix[V Value, I Index](nr, nc I, values []V, indices []I, pointers []int, check bool) (*CompressedSparse[V, I], error) {
	return newCompressedSparse(nr, nc, true, values, indices, pointers, check)
}

// NewCSCMatrix creates a compressed sparse column matrix.  indices holds
// row positions, strictly increasing within each column; pointers has
// length nc+1.
func NewCSCMatrix[V Value, I Index](nr, nc I, values []V, indices []I, pointers []int, check bool) (*CompressedSparse[V, I], error) {
	return newCompressedSparse(nr, nc, false, values, indices, pointers, check)
}

func newCompressedSparse[V Value, I Index](nr, nc I, byRow bool, values []V, indices []I, pointers []int, check bool) (*CompressedSparse[V, I], error) {
	if nr < 0 || nc < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d x %d", ErrInvalidArgument, nr, nc)
	}
	m := &CompressedSparse[V, I]{rows: nr, cols: nc, byRow: byRow, values: values, indices: indices, pointers: pointers}
	if check {
		if err := m.verify(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *CompressedSparse[V, I]) verify() error {
	if len(m.values) != len(m.indices) {
		return fmt.Errorf("%w: values and indices should be of the same length", ErrInvalidArgument)
	}

	np := int(m.primary())
	if len(m.pointers) != np+1 {
		return fmt.Errorf("%w: length of pointers should be %d", ErrInvalidArgument, np+1)
	}
	if m.pointers[0] != 0 {
		return fmt.Errorf("%w: first element of pointers should be zero", ErrInvalidArgument)
	}
	if m.pointers[np] != len(m.indices) {
		return fmt.Errorf("%w: last element of pointers should equal the number of non-zero elements", ErrInvalidArgument)
	}

	sec := m.secondary()
	for p := 0; p < np; p++ {
		lo, hi := m.pointers[p], m.pointers[p+1]
		if hi < lo {
			return fmt.Errorf("%w: pointers should be non-decreasing", ErrInvalidArgument)
		}
		for k := lo; k < hi; k++ {
			if m.indices[k] < 0 || m.indices[k] >= sec {
				return fmt.Errorf("%w: index %d outside extent %d", ErrInvalidArgument, m.indices[k], sec)
			}
			if k > lo && m.indices[k-1] >= m.indices[k] {
				if m.byRow {
					return fmt.Errorf("%w: indices should be strictly increasing within each row", ErrInvalidArgument)
				}
				return fmt.Errorf("%w: indices should be strictly increasing within each column", ErrInvalidArgument)
			}
		}
	}
	return nil
}

// primary returns the extent of the dimension the storage is grouped by.
func (m *CompressedSparse[V, I]) primary() I {
	if m.byRow {
		return m.rows
	}
	return m.cols
}

// secondary returns the extent of the other dimension.
func (m *CompressedSparse[V, I]) secondary() I {
	if m.byRow {
		return m.cols
	}
	return m.rows
}

// NRow returns the number of rows.
func (m *CompressedSparse[V, I]) NRow() I { return m.rows }

// NCol returns the number of columns.
func (m *CompressedSparse[V, I]) NCol() I { return m.cols }

// NNZ returns the number of stored non-zero elements.
func (m *CompressedSparse[V, I]) NNZ() int { return len(m.values) }

// IsSparse returns true.
func (m *CompressedSparse[V, I]) IsSparse() bool { return true }

// SparseProportion returns 1.
func (m *CompressedSparse[V, I]) SparseProportion() float64 { return 1 }

// PreferRows reports whether the storage is row-compressed.
func (m *CompressedSparse[V, I]) PreferRows() bool { return m.byRow }

// PreferRowsProportion returns 1 for CSR storage and 0 for CSC.
func (m *CompressedSparse[V, I]) PreferRowsProportion() float64 {
	if m.byRow {
		return 1
	}
	return 0
}

// UsesOracle returns false; the cursor cache already exploits monotone
// access without needing predictions ahead of time.
func (m *CompressedSparse[V, I]) UsesOracle(bool) bool { return false }

// span returns the value and index slices for primary element p.
func (m *CompressedSparse[V, I]) span(p I) ([]V, []I) {
	lo, hi := m.pointers[p], m.pointers[p+1]
	return m.values[lo:hi], m.indices[lo:hi]
}

// Dense returns a myopic dense extractor.
func (m *CompressedSparse[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
		return nil, err
	}
	if row == m.byRow {
		return &compressedPrimaryDense[V, I]{m: m, sub: sub}, nil
	}
	return &secondaryDense[V, I]{core: m.newSecondaryCore(sub), n: sub.Len(secondaryExtent[V, I](m, row))}, nil
}

// Sparse returns a myopic sparse extractor.
func (m *CompressedSparse[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
		return nil, err
	}
	if row == m.byRow {
		return &compressedPrimarySparse[V, I]{m: m, sub: sub, opt: opt}, nil
	}
	return &secondarySparse[V, I]{core: m.newSecondaryCore(sub), opt: opt}, nil
}

// DenseWithOracle returns an oracle-driven dense extractor.
func (m *CompressedSparse[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	inner, err := m.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicDenseOracular(inner, oracle), nil
}

// SparseWithOracle returns an oracle-driven sparse extractor.
func (m *CompressedSparse[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	inner, err := m.Sparse(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicSparseOracular(inner, oracle), nil
}

// newSecondaryCore builds the cursor cache for a secondary-axis extractor
// whose subset covers the primary dimension.
func (m *CompressedSparse[V, I]) newSecondaryCore(sub Subset[I]) *secondaryCore[V, I] {
	prim := subsetPrimaries(sub, m.primary())
	vals := make([][]V, len(prim))
	idx := make([][]I, len(prim))
	for k, p := range prim {
		vals[k], idx[k] = m.span(p)
	}
	return newSecondaryCore(m.secondary(), prim, vals, idx)
}

// primaryRange locates the stored run of primary element p restricted to
// the secondary interval [first, last), returning offsets into the backing
// arrays.
func (m *CompressedSparse[V, I]) primaryRange(p, first, last I) (int, int) {
	lo, hi := m.pointers[p], m.pointers[p+1]
	if first > 0 {
		lo += sort.Search(hi-lo, func(t int) bool { return m.indices[lo+t] >= first })
	}
	if last != m.secondary() {
		hi = lo + sort.Search(hi-lo, func(t int) bool { return m.indices[lo+t] >= last })
	}
	return lo, hi
}

type compressedPrimaryDense[V Value, I Index] struct {
	m   *CompressedSparse[V, I]
	sub Subset[I]
}

func (e *compressedPrimaryDense[V, I]) Fetch(i I, buf []V) []V {
	m := e.m
	sec := m.secondary()
	n := e.sub.Len(sec)
	out := buf[:n]
	for k := range out {
		out[k] = 0
	}

	if e.sub.Kind() == SubsetIndexed {
		// Merge the ordered subset list against the stored indices.
		vals, idx := m.span(i)
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
		out[m.indices[t]-first] = m.values[t]
	}
	return out
}

type compressedPrimarySparse[V Value, I Index] struct {
	m   *CompressedSparse[V, I]
	sub Subset[I]
	opt Options
}

func (e *compressedPrimarySparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	m := e.m

	if e.sub.Kind() == SubsetIndexed {
		vals, idx := m.span(i)
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

	// Full and block subsets return views of the backing arrays directly.
	first, last := e.sub.Bounds(m.secondary())
	lo, hi := m.primaryRange(i, first, last)
	out := SparseRange[V, I]{Number: hi - lo}
	if e.opt.ExtractValue {
		out.Value = m.values[lo:hi]
	}
	if e.opt.ExtractIndex {
		out.Index = m.indices[lo:hi]
	}
	return out
}
