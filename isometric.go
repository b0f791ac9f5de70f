package matview

import "fmt"

// UnaryOp is the helper consulted by a delayed unary isometric matrix.  The
// decorator fetches from its child and hands the slice to the helper; the
// helper owns the arithmetic, the decorator owns buffering and the
// sparse/dense dispatch.
type UnaryOp[V Value, I Index] interface {
	// IsSparse reports whether the operation maps zero to zero for this
	// helper's parameters, allowing sparse extraction to stay sparse.
	IsSparse() bool

	// DependsOnIndex reports whether the result at a position depends on
	// its coordinate along the non-target dimension, given the extraction
	// direction.  When true, sparse application is handed the index slice.
	DependsOnIndex(row bool) bool

	// Fill returns the output for a zero input in row/column i.  Only
	// consulted when DependsOnIndex reports false for the direction.
	Fill(row bool, i I) V

	// Dense applies the operation in place to a dense slice covering the
	// given subset of row/column i.
	Dense(row bool, i I, sub Subset[I], extent I, buf []V)

	// Sparse applies the operation in place to the values of a sparse
	// slice of row/column i.  idx runs parallel to vals; it is always
	// supplied when DependsOnIndex reported true, may be nil otherwise, and
	// must not be modified.
	Sparse(row bool, i I, vals []V, idx []I)
}

// BinaryOp is the helper consulted by a delayed binary isometric matrix.
type BinaryOp[V Value, I Index] interface {
	// IsSparse reports whether a structural zero in both operands produces
	// zero.  Helpers for which it does not (division, where 0/0 is NaN)
	// report false and the decorator degrades sparse extraction to dense
	// output.
	IsSparse() bool

	// Dense applies the operation element-wise over a subset of
	// row/column i, leaving the result in left.
	Dense(row bool, i I, sub Subset[I], extent I, left, right []V)

	// Sparse combines two sparse slices of row/column i into vbuf/ibuf,
	// returning the merged range.  Both inputs carry ordered indices.
	Sparse(row bool, i I, left, right SparseRange[V, I], vbuf []V, ibuf []I) SparseRange[V, I]
}

// delayedUnaryIsometric applies a UnaryOp to every element of its child.
type delayedUnaryIsometric[V Value, I Index] struct {
	child Matrix[V, I]
	op    UnaryOp[V, I]
}

// NewDelayedUnaryIsometric wraps child so that every fetched element is
// transformed by op.
func NewDelayedUnaryIsometric[V Value, I Index](child Matrix[V, I], op UnaryOp[V, I]) Matrix[V, I] {
	return &delayedUnaryIsometric[V, I]{child: child, op: op}
}

func (m *delayedUnaryIsometric[V, I]) NRow() I { return m.child.NRow() }

func (m *delayedUnaryIsometric[V, I]) NCol() I { return m.child.NCol() }

func (m *delayedUnaryIsometric[V, I]) IsSparse() bool {
	return m.child.IsSparse() && m.op.IsSparse()
}

func (m *delayedUnaryIsometric[V, I]) SparseProportion() float64 {
	if m.op.IsSparse() {
		return m.child.SparseProportion()
	}
	return 0
}

func (m *delayedUnaryIsometric[V, I]) PreferRows() bool { return m.child.PreferRows() }

func (m *delayedUnaryIsometric[V, I]) PreferRowsProportion() float64 {
	return m.child.PreferRowsProportion()
}

func (m *delayedUnaryIsometric[V, I]) UsesOracle(row bool) bool { return m.child.UsesOracle(row) }

func (m *delayedUnaryIsometric[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	inner, err := m.child.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return &unaryDense[V, I]{inner: inner, op: m.op, row: row, sub: sub, extent: secondaryExtent[V, I](m, row)}, nil
}

func (m *delayedUnaryIsometric[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	extent := secondaryExtent[V, I](m, row)
	if err := sub.validate(extent); err != nil {
		return nil, err
	}
	n := sub.Len(extent)

	if m.op.IsSparse() {
		if !opt.ExtractValue {
			// Structural zeros are preserved and no values are wanted, so
			// the child's range passes through untouched.
			return m.child.Sparse(row, sub, opt)
		}
		needIdx := opt.ExtractIndex || m.op.DependsOnIndex(row)
		innerOpt := Options{ExtractValue: true, ExtractIndex: needIdx, OrderedIndex: opt.OrderedIndex}
		inner, err := m.child.Sparse(row, sub, innerOpt)
		if err != nil {
			return nil, err
		}
		e := &unarySparse[V, I]{inner: inner, op: m.op, row: row, wantIdx: opt.ExtractIndex, needIdx: needIdx}
		if needIdx && !opt.ExtractIndex {
			e.iscratch = make([]I, n)
		}
		return e, nil
	}

	// The operation turns zeros into non-zeros, so sparse output covers
	// the whole subset.  When the fill value is position-independent the
	// child's sparse range is overlaid on it; otherwise the dense path
	// does the work.
	if sub.Kind() != SubsetIndexed && !m.op.DependsOnIndex(row) {
		inner, err := m.child.Sparse(row, sub, Options{ExtractValue: true, ExtractIndex: true, OrderedIndex: true})
		if err != nil {
			return nil, err
		}
		first, _ := sub.Bounds(extent)
		return &unaryOverlaySparse[V, I]{
			inner:  inner,
			op:     m.op,
			row:    row,
			opt:    opt,
			n:      n,
			first:  first,
			allIdx: subsetPrimaries(sub, extent),
			vwork:  make([]V, n),
			iwork:  make([]I, n),
		}, nil
	}

	dense, err := m.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newDensifiedSparse(dense, sub, extent, opt), nil
}

func (m *delayedUnaryIsometric[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	inner, err := m.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicDenseOracular(inner, oracle), nil
}

func (m *delayedUnaryIsometric[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	inner, err := m.Sparse(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicSparseOracular(inner, oracle), nil
}

type unaryDense[V Value, I Index] struct {
	inner  DenseExtractor[V, I]
	op     UnaryOp[V, I]
	row    bool
	sub    Subset[I]
	extent I
}

func (e *unaryDense[V, I]) Fetch(i I, buf []V) []V {
	res := e.inner.Fetch(i, buf)
	out := copyUnlessAliased(buf[:len(res)], res)
	e.op.Dense(e.row, i, e.sub, e.extent, out)
	return out
}

type unarySparse[V Value, I Index] struct {
	inner    SparseExtractor[V, I]
	op       UnaryOp[V, I]
	row      bool
	wantIdx  bool
	needIdx  bool
	iscratch []I
}

func (e *unarySparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	ib := ibuf
	if e.needIdx && !e.wantIdx {
		ib = e.iscratch
	}
	r := e.inner.Fetch(i, vbuf, ib)

	out := SparseRange[V, I]{Number: r.Number}
	out.Value = copyUnlessAliased(vbuf[:r.Number], r.Value)

	var idx []I
	if e.needIdx {
		idx = copyUnlessAliased(ib[:r.Number], r.Index)
	}
	e.op.Sparse(e.row, i, out.Value, idx)
	if e.wantIdx {
		out.Index = idx
	}
	return out
}

type unaryOverlaySparse[V Value, I Index] struct {
	inner  SparseExtractor[V, I]
	op     UnaryOp[V, I]
	row    bool
	opt    Options
	n      int
	first  I
	allIdx []I
	vwork  []V
	iwork  []I
}

func (e *unaryOverlaySparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	out := SparseRange[V, I]{Number: e.n}
	if e.opt.ExtractValue {
		r := e.inner.Fetch(i, e.vwork, e.iwork)
		vals := copyUnlessAliased(e.vwork[:r.Number], r.Value)
		e.op.Sparse(e.row, i, vals, nil)

		fill := e.op.Fill(e.row, i)
		for k := 0; k < e.n; k++ {
			vbuf[k] = fill
		}
		for k := 0; k < r.Number; k++ {
			vbuf[r.Index[k]-e.first] = vals[k]
		}
		out.Value = vbuf[:e.n]
	}
	if e.opt.ExtractIndex {
		copy(ibuf, e.allIdx)
		out.Index = ibuf[:e.n]
	}
	return out
}

// densifiedSparse presents a dense extractor as a sparse one covering the
// entire subset, for operations that do not preserve structural zeros.
type densifiedSparse[V Value, I Index] struct {
	inner  DenseExtractor[V, I]
	opt    Options
	n      int
	allIdx []I
}

func newDensifiedSparse[V Value, I Index](inner DenseExtractor[V, I], sub Subset[I], extent I, opt Options) *densifiedSparse[V, I] {
	return &densifiedSparse[V, I]{inner: inner, opt: opt, n: sub.Len(extent), allIdx: subsetPrimaries(sub, extent)}
}

func (e *densifiedSparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	out := SparseRange[V, I]{Number: e.n}
	if e.opt.ExtractValue {
		res := e.inner.Fetch(i, vbuf)
		out.Value = copyUnlessAliased(vbuf[:len(res)], res)
	}
	if e.opt.ExtractIndex {
		copy(ibuf, e.allIdx)
		out.Index = ibuf[:e.n]
	}
	return out
}

// delayedBinaryIsometric combines two same-shaped children element-wise.
type delayedBinaryIsometric[V Value, I Index] struct {
	left, right Matrix[V, I]
	op          BinaryOp[V, I]
}

// NewDelayedBinaryIsometric wraps two matrices of identical shape so that
// fetched elements are combined pairwise by op.
func NewDelayedBinaryIsometric[V Value, I Index](left, right Matrix[V, I], op BinaryOp[V, I]) (Matrix[V, I], error) {
	if left.NRow() != right.NRow() || left.NCol() != right.NCol() {
		return nil, fmt.Errorf("%w: operands have different shapes (%dx%d vs %dx%d)",
			ErrInvalidArgument, left.NRow(), left.NCol(), right.NRow(), right.NCol())
	}
	return &delayedBinaryIsometric[V, I]{left: left, right: right, op: op}, nil
}

func (m *delayedBinaryIsometric[V, I]) NRow() I { return m.left.NRow() }

func (m *delayedBinaryIsometric[V, I]) NCol() I { return m.left.NCol() }

func (m *delayedBinaryIsometric[V, I]) IsSparse() bool {
	return m.op.IsSparse() && m.left.IsSparse() && m.right.IsSparse()
}

func (m *delayedBinaryIsometric[V, I]) SparseProportion() float64 {
	if m.op.IsSparse() {
		return (m.left.SparseProportion() + m.right.SparseProportion()) / 2
	}
	return 0
}

func (m *delayedBinaryIsometric[V, I]) PreferRows() bool { return m.left.PreferRows() }

func (m *delayedBinaryIsometric[V, I]) PreferRowsProportion() float64 {
	return (m.left.PreferRowsProportion() + m.right.PreferRowsProportion()) / 2
}

func (m *delayedBinaryIsometric[V, I]) UsesOracle(row bool) bool {
	return m.left.UsesOracle(row) || m.right.UsesOracle(row)
}

func (m *delayedBinaryIsometric[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	extent := secondaryExtent[V, I](m, row)
	if err := sub.validate(extent); err != nil {
		return nil, err
	}
	le, err := m.left.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	re, err := m.right.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return &binaryDense[V, I]{
		left: le, right: re, op: m.op, row: row, sub: sub, extent: extent,
		rscratch: make([]V, sub.Len(extent)),
	}, nil
}

func (m *delayedBinaryIsometric[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	extent := secondaryExtent[V, I](m, row)
	if err := sub.validate(extent); err != nil {
		return nil, err
	}
	n := sub.Len(extent)

	if !m.op.IsSparse() {
		dense, err := m.Dense(row, sub, opt)
		if err != nil {
			return nil, err
		}
		return newDensifiedSparse(dense, sub, extent, opt), nil
	}

	full := Options{ExtractValue: true, ExtractIndex: true, OrderedIndex: true}
	le, err := m.left.Sparse(row, sub, full)
	if err != nil {
		return nil, err
	}
	re, err := m.right.Sparse(row, sub, full)
	if err != nil {
		return nil, err
	}
	return &binarySparse[V, I]{
		left: le, right: re, op: m.op, row: row, opt: opt,
		lv: make([]V, n), li: make([]I, n),
		rv: make([]V, n), ri: make([]I, n),
		vwork: make([]V, n), iwork: make([]I, n),
	}, nil
}

func (m *delayedBinaryIsometric[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	inner, err := m.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicDenseOracular(inner, oracle), nil
}

func (m *delayedBinaryIsometric[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	inner, err := m.Sparse(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicSparseOracular(inner, oracle), nil
}

type binaryDense[V Value, I Index] struct {
	left, right DenseExtractor[V, I]
	op          BinaryOp[V, I]
	row         bool
	sub         Subset[I]
	extent      I
	rscratch    []V
}

func (e *binaryDense[V, I]) Fetch(i I, buf []V) []V {
	lres := e.left.Fetch(i, buf)
	out := copyUnlessAliased(buf[:len(lres)], lres)
	rres := e.right.Fetch(i, e.rscratch)
	right := copyUnlessAliased(e.rscratch[:len(rres)], rres)
	e.op.Dense(e.row, i, e.sub, e.extent, out, right)
	return out
}

type binarySparse[V Value, I Index] struct {
	left, right SparseExtractor[V, I]
	op          BinaryOp[V, I]
	row         bool
	opt         Options
	lv, vwork   []V
	rv          []V
	li, iwork   []I
	ri          []I
}

func (e *binarySparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	lr := e.left.Fetch(i, e.lv, e.li)
	rr := e.right.Fetch(i, e.rv, e.ri)
	merged := e.op.Sparse(e.row, i, lr, rr, e.vwork, e.iwork)

	out := SparseRange[V, I]{Number: merged.Number}
	if e.opt.ExtractValue {
		copy(vbuf, merged.Value)
		out.Value = vbuf[:merged.Number]
	}
	if e.opt.ExtractIndex {
		copy(ibuf, merged.Index)
		out.Index = ibuf[:merged.Number]
	}
	return out
}
