package matview

import "fmt"

// Dense is a dense storage engine holding every element of the matrix in a
// single backing slice, in either row-major or column-major order.  The
// supplied slice is used as the backing storage without copying, following
// the usual constructor convention here; the matrix is logically immutable,
// so the caller must not modify the slice afterwards.
type Dense[V Value, I Index] struct {
	rows, cols I
	rowMajor   bool
	data       []V
}

// NewDenseRowMajor creates a dense matrix over data laid out row by row.
// len(data) must equal nr*nc.
func NewDenseRowMajor[V Value, I Index](nr, nc I, data []V) (*Dense[V, I], error) {
	return newDense(nr, nc, true, data)
}

// NewDenseColumnMajor creates a dense matrix over data laid out column by
// column.  len(data) must equal nr*nc.
func NewDenseColumnMajor[V Value, I Index](nr, nc I, data []V) (*Dense[V, I], error) {
	return newDense(nr, nc, false, data)
}

func newDense[V Value, I Index](nr, nc I, rowMajor bool, data []V) (*Dense[V, I], error) {
	if nr < 0 || nc < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d x %d", ErrInvalidArgument, nr, nc)
	}
	if int64(len(data)) != int64(nr)*int64(nc) {
		return nil, fmt.Errorf("%w: backing slice has %d elements for a %d x %d matrix", ErrInvalidArgument, len(data), nr, nc)
	}
	return &Dense[V, I]{rows: nr, cols: nc, rowMajor: rowMajor, data: data}, nil
}

// NRow returns the number of rows.
func (m *Dense[V, I]) NRow() I { return m.rows }

// NCol returns the number of columns.
func (m *Dense[V, I]) NCol() I { return m.cols }

// IsSparse returns false.
func (m *Dense[V, I]) IsSparse() bool { return false }

// SparseProportion returns 0.
func (m *Dense[V, I]) SparseProportion() float64 { return 0 }

// PreferRows reports whether the storage is row-major.
func (m *Dense[V, I]) PreferRows() bool { return m.rowMajor }

// PreferRowsProportion returns 1 for row-major storage and 0 otherwise.
func (m *Dense[V, I]) PreferRowsProportion() float64 {
	if m.rowMajor {
		return 1
	}
	return 0
}

// UsesOracle returns false; dense storage gains nothing from predictions.
func (m *Dense[V, I]) UsesOracle(bool) bool { return false }

// minor returns the stride of the storage's major axis.
func (m *Dense[V, I]) minor() int {
	if m.rowMajor {
		return int(m.cols)
	}
	return int(m.rows)
}

// Dense returns a myopic dense extractor.  Fetches along the storage-major
// axis with a full or block subset return views of the backing slice
// without copying.
func (m *Dense[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
		return nil, err
	}
	return &denseDenseExtractor[V, I]{m: m, row: row, sub: sub}, nil
}

// Sparse returns a myopic sparse extractor that walks the row/column and
// emits every non-zero element.
func (m *Dense[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
		return nil, err
	}
	return &denseSparseExtractor[V, I]{m: m, row: row, sub: sub, opt: opt}, nil
}

// DenseWithOracle returns an oracle-driven dense extractor.
func (m *Dense[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	inner, err := m.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicDenseOracular(inner, oracle), nil
}

// SparseWithOracle returns an oracle-driven sparse extractor.
func (m *Dense[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	inner, err := m.Sparse(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicSparseOracular(inner, oracle), nil
}

type denseDenseExtractor[V Value, I Index] struct {
	m   *Dense[V, I]
	row bool
	sub Subset[I]
}

func (e *denseDenseExtractor[V, I]) Fetch(i I, buf []V) []V {
	m := e.m
	minor := m.minor()
	if e.row == m.rowMajor {
		base := int(i) * minor
		switch e.sub.Kind() {
		case SubsetFull:
			return m.data[base : base+minor]
		case SubsetBlock:
			lo := base + int(e.sub.Start())
			return m.data[lo : lo+e.sub.Len(0)]
		default:
			ids := e.sub.Indices()
			for k, p := range ids {
				buf[k] = m.data[base+int(p)]
			}
			return buf[:len(ids)]
		}
	}

	// Minor-axis access gathers strided elements into the caller's buffer.
	ext := secondaryExtent[V, I](m, e.row)
	n := e.sub.Len(ext)
	for k := 0; k < n; k++ {
		p := e.sub.At(k, ext)
		buf[k] = m.data[int(p)*minor+int(i)]
	}
	return buf[:n]
}

type denseSparseExtractor[V Value, I Index] struct {
	m   *Dense[V, I]
	row bool
	sub Subset[I]
	opt Options
}

func (e *denseSparseExtractor[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	m := e.m
	minor := m.minor()
	ext := secondaryExtent[V, I](m, e.row)
	n := e.sub.Len(ext)

	var at func(p I) V
	if e.row == m.rowMajor {
		base := int(i) * minor
		at = func(p I) V { return m.data[base+int(p)] }
	} else {
		at = func(p I) V { return m.data[int(p)*minor+int(i)] }
	}

	out := SparseRange[V, I]{}
	for k := 0; k < n; k++ {
		p := e.sub.At(k, ext)
		v := at(p)
		if v == 0 {
			continue
		}
		if e.opt.ExtractValue {
			vbuf[out.Number] = v
		}
		if e.opt.ExtractIndex {
			ibuf[out.Number] = p
		}
		out.Number++
	}
	if e.opt.ExtractValue {
		out.Value = vbuf[:out.Number]
	}
	if e.opt.ExtractIndex {
		out.Index = ibuf[:out.Number]
	}
	return out
}
