package matview

// castMatrix re-types a child matrix to a different value and/or index
// type.  Fetches delegate to the child through per-extractor conversion
// buffers allocated once at construction, so the hot path stays
// allocation-free.  This is how narrow storage types (uint8 tiers, uint16
// row indices) are exposed behind a wider caller-facing interface.
type castMatrix[VOut Value, IOut Index, VIn Value, IIn Index] struct {
	child Matrix[VIn, IIn]
}

// NewDelayedCast exposes child as a Matrix of a different value/index
// type.  Values and indices are converted element-wise on every fetch.
func NewDelayedCast[VOut Value, IOut Index, VIn Value, IIn Index](child Matrix[VIn, IIn]) Matrix[VOut, IOut] {
	return &castMatrix[VOut, IOut, VIn, IIn]{child: child}
}

func (m *castMatrix[VOut, IOut, VIn, IIn]) NRow() IOut { return IOut(m.child.NRow()) }

func (m *castMatrix[VOut, IOut, VIn, IIn]) NCol() IOut { return IOut(m.child.NCol()) }

func (m *castMatrix[VOut, IOut, VIn, IIn]) IsSparse() bool { return m.child.IsSparse() }

func (m *castMatrix[VOut, IOut, VIn, IIn]) SparseProportion() float64 {
	return m.child.SparseProportion()
}

func (m *castMatrix[VOut, IOut, VIn, IIn]) PreferRows() bool { return m.child.PreferRows() }

func (m *castMatrix[VOut, IOut, VIn, IIn]) PreferRowsProportion() float64 {
	return m.child.PreferRowsProportion()
}

func (m *castMatrix[VOut, IOut, VIn, IIn]) UsesOracle(row bool) bool {
	return m.child.UsesOracle(row)
}

func (m *castMatrix[VOut, IOut, VIn, IIn]) translate(sub Subset[IOut], row bool) (Subset[IIn], error) {
	if err := sub.validate(IOut(secondaryExtent(m.child, row))); err != nil {
		return Subset[IIn]{}, err
	}
	switch sub.Kind() {
	case SubsetFull:
		return All[IIn](), nil
	case SubsetBlock:
		return Block(IIn(sub.Start()), IIn(sub.Len(0))), nil
	default:
		ids := sub.Indices()
		conv := make([]IIn, len(ids))
		for k, id := range ids {
			conv[k] = IIn(id)
		}
		return Picked(conv), nil
	}
}

func (m *castMatrix[VOut, IOut, VIn, IIn]) Dense(row bool, sub Subset[IOut], opt Options) (DenseExtractor[VOut, IOut], error) {
	tsub, err := m.translate(sub, row)
	if err != nil {
		return nil, err
	}
	inner, err := m.child.Dense(row, tsub, opt)
	if err != nil {
		return nil, err
	}
	n := sub.Len(secondaryExtent[VOut, IOut](m, row))
	return &castDense[VOut, IOut, VIn, IIn]{inner: inner, scratch: make([]VIn, n)}, nil
}

func (m *castMatrix[VOut, IOut, VIn, IIn]) Sparse(row bool, sub Subset[IOut], opt Options) (SparseExtractor[VOut, IOut], error) {
	tsub, err := m.translate(sub, row)
	if err != nil {
		return nil, err
	}
	inner, err := m.child.Sparse(row, tsub, opt)
	if err != nil {
		return nil, err
	}
	e := &castSparse[VOut, IOut, VIn, IIn]{inner: inner, opt: opt}
	n := sub.Len(secondaryExtent[VOut, IOut](m, row))
	if opt.ExtractValue {
		e.vscratch = make([]VIn, n)
	}
	if opt.ExtractIndex {
		e.iscratch = make([]IIn, n)
	}
	return e, nil
}

func (m *castMatrix[VOut, IOut, VIn, IIn]) DenseWithOracle(row bool, oracle Oracle[IOut], sub Subset[IOut], opt Options) (OracularDenseExtractor[VOut, IOut], error) {
	inner, err := m.Dense(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicDenseOracular(inner, oracle), nil
}

func (m *castMatrix[VOut, IOut, VIn, IIn]) SparseWithOracle(row bool, oracle Oracle[IOut], sub Subset[IOut], opt Options) (OracularSparseExtractor[VOut, IOut], error) {
	inner, err := m.Sparse(row, sub, opt)
	if err != nil {
		return nil, err
	}
	return newMyopicSparseOracular(inner, oracle), nil
}

type castDense[VOut Value, IOut Index, VIn Value, IIn Index] struct {
	inner   DenseExtractor[VIn, IIn]
	scratch []VIn
}

func (e *castDense[VOut, IOut, VIn, IIn]) Fetch(i IOut, buf []VOut) []VOut {
	res := e.inner.Fetch(IIn(i), e.scratch)
	for k, v := range res {
		buf[k] = VOut(v)
	}
	return buf[:len(res)]
}

type castSparse[VOut Value, IOut Index, VIn Value, IIn Index] struct {
	inner    SparseExtractor[VIn, IIn]
	opt      Options
	vscratch []VIn
	iscratch []IIn
}

func (e *castSparse[VOut, IOut, VIn, IIn]) Fetch(i IOut, vbuf []VOut, ibuf []IOut) SparseRange[VOut, IOut] {
	r := e.inner.Fetch(IIn(i), e.vscratch, e.iscratch)
	out := SparseRange[VOut, IOut]{Number: r.Number}
	if e.opt.ExtractValue {
		for k := 0; k < r.Number; k++ {
			vbuf[k] = VOut(r.Value[k])
		}
		out.Value = vbuf[:r.Number]
	}
	if e.opt.ExtractIndex {
		for k := 0; k < r.Number; k++ {
			ibuf[k] = IOut(r.Index[k])
		}
		out.Index = ibuf[:r.Number]
	}
	return out
}
