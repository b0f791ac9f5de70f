package matview

import "fmt"

// delayedBind concatenates children along one axis.  A cumulative extent
// table resolves combined indices to children; requests along the bind
// axis delegate to the owning child, requests along the other axis fan out
// to every child and assemble the pieces.
type delayedBind[V Value, I Index] struct {
	children []Matrix[V, I]
	byRow    bool
	cum      []I
	mapping  []int

	sparseProp float64
	preferProp float64
	oracles    [2]bool
}

// NewDelayedBind combines children along rows (byRow=true) or columns
// (byRow=false).  All children must agree on the extent of the other axis.
// Binding a single child returns it unchanged; binding none returns an
// empty matrix.
func NewDelayedBind[V Value, I Index](children []Matrix[V, I], byRow bool) (Matrix[V, I], error) {
	if len(children) == 0 {
		return NewCSCMatrix[V, I](0, 0, nil, nil, []int{0}, false)
	}
	if len(children) == 1 {
		return children[0], nil
	}

	other := secondaryExtent(children[0], byRow)
	m := &delayedBind[V, I]{children: children, byRow: byRow, cum: make([]I, len(children)+1)}
	for c, child := range children {
		if got := secondaryExtent(child, byRow); got != other {
			return nil, fmt.Errorf("%w: children disagree on the unbound dimension (%d vs %d)", ErrInvalidArgument, got, other)
		}
		m.cum[c+1] = m.cum[c] + primaryExtent(child, byRow)
	}

	total := int(m.cum[len(children)])
	m.mapping = make([]int, total)
	for c := range children {
		for i := m.cum[c]; i < m.cum[c+1]; i++ {
			m.mapping[i] = c
		}
	}

	for c, child := range children {
		w := float64(m.cum[c+1] - m.cum[c])
		m.sparseProp += w * child.SparseProportion()
		m.preferProp += w * child.PreferRowsProportion()
		if child.UsesOracle(true) {
			m.oracles[1] = true
		}
		if child.UsesOracle(false) {
			m.oracles[0] = true
		}
	}
	if total > 0 {
		m.sparseProp /= float64(total)
		m.preferProp /= float64(total)
	}
	return m, nil
}

func (m *delayedBind[V, I]) NRow() I {
	if m.byRow {
		return m.cum[len(m.children)]
	}
	return m.children[0].NRow()
}

func (m *delayedBind[V, I]) NCol() I {
	if m.byRow {
		return m.children[0].NCol()
	}
	return m.cum[len(m.children)]
}

func (m *delayedBind[V, I]) IsSparse() bool { return m.sparseProp > 0.5 }

func (m *delayedBind[V, I]) SparseProportion() float64 { return m.sparseProp }

func (m *delayedBind[V, I]) PreferRows() bool { return m.preferProp > 0.5 }

func (m *delayedBind[V, I]) PreferRowsProportion() float64 { return m.preferProp }

func (m *delayedBind[V, I]) UsesOracle(row bool) bool {
	if row {
		return m.oracles[1]
	}
	return m.oracles[0]
}

// childSlice describes one child's share of a parallel (non-bind axis)
// extraction: the translated subset it receives, its output offset within
// the caller's buffers, and its output length.
type childSlice[I Index] struct {
	child int
	sub   Subset[I]
	off   int
	n     int
}

// partition splits a subset over the bind axis into per-child slices.
func (m *delayedBind[V, I]) partition(sub Subset[I]) ([]childSlice[I], error) {
	if err := sub.validate(m.cum[len(m.children)]); err != nil {
		return nil, err
	}

	var out []childSlice[I]
	off := 0
	switch sub.Kind() {
	case SubsetFull:
		for c := range m.children {
			n := int(m.cum[c+1] - m.cum[c])
			if n == 0 {
				continue
			}
			out = append(out, childSlice[I]{child: c, sub: All[I](), off: off, n: n})
			off += n
		}

	case SubsetBlock:
		start := sub.Start()
		end := start + I(sub.Len(0))
		for c := range m.children {
			lo, hi := m.cum[c], m.cum[c+1]
			if lo < start {
				lo = start
			}
			if hi > end {
				hi = end
			}
			if hi <= lo {
				continue
			}
			n := int(hi - lo)
			out = append(out, childSlice[I]{child: c, sub: Block(lo-m.cum[c], hi-lo), off: off, n: n})
			off += n
		}

	default:
		ids := sub.Indices()
		k := 0
		for c := range m.children {
			hi := m.cum[c+1]
			startK := k
			for k < len(ids) && ids[k] < hi {
				k++
			}
			if k == startK {
				continue
			}
			local := make([]I, k-startK)
			for t := startK; t < k; t++ {
				local[t-startK] = ids[t] - m.cum[c]
			}
			out = append(out, childSlice[I]{child: c, sub: Picked(local), off: off, n: len(local)})
			off += len(local)
		}
	}
	return out, nil
}

func (m *delayedBind[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	if row == m.byRow {
		if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
			return nil, err
		}
		exts := make([]DenseExtractor[V, I], len(m.children))
		for c, child := range m.children {
			ext, err := child.Dense(row, sub, opt)
			if err != nil {
				return nil, err
			}
			exts[c] = ext
		}
		return &bindPerpDense[V, I]{m: m, exts: exts}, nil
	}

	parts, err := m.partition(sub)
	if err != nil {
		return nil, err
	}
	exts := make([]DenseExtractor[V, I], len(parts))
	for t, part := range parts {
		ext, err := m.children[part.child].Dense(row, part.sub, opt)
		if err != nil {
			return nil, err
		}
		exts[t] = ext
	}
	return &bindParallelDense[V, I]{parts: parts, exts: exts}, nil
}

func (m *delayedBind[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	if row == m.byRow {
		if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
			return nil, err
		}
		exts := make([]SparseExtractor[V, I], len(m.children))
		for c, child := range m.children {
			ext, err := child.Sparse(row, sub, opt)
			if err != nil {
				return nil, err
			}
			exts[c] = ext
		}
		return &bindPerpSparse[V, I]{m: m, exts: exts}, nil
	}

	parts, err := m.partition(sub)
	if err != nil {
		return nil, err
	}
	exts := make([]SparseExtractor[V, I], len(parts))
	for t, part := range parts {
		ext, err := m.children[part.child].Sparse(row, part.sub, opt)
		if err != nil {
			return nil, err
		}
		exts[t] = ext
	}
	return &bindParallelSparse[V, I]{m: m, parts: parts, exts: exts, opt: opt}, nil
}

func (m *delayedBind[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	if row == m.byRow {
		if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
			return nil, err
		}
		seg := m.segment(oracle)
		exts := make([]OracularDenseExtractor[V, I], len(m.children))
		for c, child := range m.children {
			if seg.perChild[c] == nil {
				continue
			}
			ext, err := child.DenseWithOracle(row, seg.perChild[c], sub, opt)
			if err != nil {
				return nil, err
			}
			exts[c] = ext
		}
		return &bindPerpOracularDense[V, I]{order: seg.order, exts: exts}, nil
	}

	parts, err := m.partition(sub)
	if err != nil {
		return nil, err
	}
	exts := make([]OracularDenseExtractor[V, I], len(parts))
	for t, part := range parts {
		ext, err := m.children[part.child].DenseWithOracle(row, oracle, part.sub, opt)
		if err != nil {
			return nil, err
		}
		exts[t] = ext
	}
	return &bindParallelOracularDense[V, I]{parts: parts, exts: exts}, nil
}

func (m *delayedBind[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	if row == m.byRow {
		if err := sub.validate(secondaryExtent[V, I](m, row)); err != nil {
			return nil, err
		}
		seg := m.segment(oracle)
		exts := make([]OracularSparseExtractor[V, I], len(m.children))
		for c, child := range m.children {
			if seg.perChild[c] == nil {
				continue
			}
			ext, err := child.SparseWithOracle(row, seg.perChild[c], sub, opt)
			if err != nil {
				return nil, err
			}
			exts[c] = ext
		}
		return &bindPerpOracularSparse[V, I]{order: seg.order, exts: exts}, nil
	}

	parts, err := m.partition(sub)
	if err != nil {
		return nil, err
	}
	exts := make([]OracularSparseExtractor[V, I], len(parts))
	for t, part := range parts {
		ext, err := m.children[part.child].SparseWithOracle(row, oracle, part.sub, opt)
		if err != nil {
			return nil, err
		}
		exts[t] = ext
	}
	return &bindParallelOracularSparse[V, I]{m: m, parts: parts, exts: exts, opt: opt}, nil
}

// segmentation routes a parent oracle's predictions along the bind axis
// into per-child sub-oracles expressed in child-local coordinates, plus
// the child ordinal serving each global prediction.
type segmentation[I Index] struct {
	order    []int
	perChild []Oracle[I]
}

func (m *delayedBind[V, I]) segment(oracle Oracle[I]) segmentation[I] {
	total := oracle.Total()
	seg := segmentation[I]{order: make([]int, total), perChild: make([]Oracle[I], len(m.children))}

	locals := make([][]I, len(m.children))
	for k := 0; k < total; k++ {
		pred := oracle.Get(k)
		c := m.mapping[pred]
		seg.order[k] = c
		locals[c] = append(locals[c], pred-m.cum[c])
	}

	for c, ids := range locals {
		if ids == nil {
			continue
		}
		consecutive := true
		for t := 1; t < len(ids); t++ {
			if ids[t] != ids[t-1]+1 {
				consecutive = false
				break
			}
		}
		if consecutive {
			seg.perChild[c] = NewConsecutiveOracle(ids[0], I(len(ids)))
		} else {
			seg.perChild[c] = NewFixedOracle(ids)
		}
	}
	return seg
}

// copyUnlessAliased makes res visible in dst, skipping the copy when the
// extractor already wrote into it.
func copyUnlessAliased[V Value](dst, res []V) []V {
	if len(res) == 0 {
		return dst[:0]
	}
	if &dst[0] != &res[0] {
		copy(dst, res)
	}
	return dst[:len(res)]
}

type bindPerpDense[V Value, I Index] struct {
	m    *delayedBind[V, I]
	exts []DenseExtractor[V, I]
}

func (e *bindPerpDense[V, I]) Fetch(i I, buf []V) []V {
	c := e.m.mapping[i]
	return e.exts[c].Fetch(i-e.m.cum[c], buf)
}

type bindPerpSparse[V Value, I Index] struct {
	m    *delayedBind[V, I]
	exts []SparseExtractor[V, I]
}

func (e *bindPerpSparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	c := e.m.mapping[i]
	return e.exts[c].Fetch(i-e.m.cum[c], vbuf, ibuf)
}

type bindPerpOracularDense[V Value, I Index] struct {
	order []int
	exts  []OracularDenseExtractor[V, I]
	used  int
}

func (e *bindPerpOracularDense[V, I]) FetchNext(buf []V) []V {
	c := e.order[e.used]
	e.used++
	return e.exts[c].FetchNext(buf)
}

type bindPerpOracularSparse[V Value, I Index] struct {
	order []int
	exts  []OracularSparseExtractor[V, I]
	used  int
}

func (e *bindPerpOracularSparse[V, I]) FetchNext(vbuf []V, ibuf []I) SparseRange[V, I] {
	c := e.order[e.used]
	e.used++
	return e.exts[c].FetchNext(vbuf, ibuf)
}

type bindParallelDense[V Value, I Index] struct {
	parts []childSlice[I]
	exts  []DenseExtractor[V, I]
}

func (e *bindParallelDense[V, I]) Fetch(i I, buf []V) []V {
	n := 0
	for t, part := range e.parts {
		seg := buf[part.off : part.off+part.n]
		copyUnlessAliased(seg, e.exts[t].Fetch(i, seg))
		n = part.off + part.n
	}
	return buf[:n]
}

// assembleSparse merges one child's fetched range into the combined
// output, shifting indices into the bound coordinate space.
func assembleSparse[V Value, I Index](out *SparseRange[V, I], r SparseRange[V, I], vbuf []V, ibuf []I, shift I, opt Options) {
	if opt.ExtractValue {
		copyUnlessAliased(vbuf[out.Number:out.Number+r.Number], r.Value)
	}
	if opt.ExtractIndex {
		seg := ibuf[out.Number : out.Number+r.Number]
		for k := 0; k < r.Number; k++ {
			seg[k] = r.Index[k] + shift
		}
	}
	out.Number += r.Number
}

type bindParallelSparse[V Value, I Index] struct {
	m     *delayedBind[V, I]
	parts []childSlice[I]
	exts  []SparseExtractor[V, I]
	opt   Options
}

func (e *bindParallelSparse[V, I]) Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I] {
	out := SparseRange[V, I]{}
	for t, part := range e.parts {
		var vseg []V
		var iseg []I
		if e.opt.ExtractValue {
			vseg = vbuf[out.Number:]
		}
		if e.opt.ExtractIndex {
			iseg = ibuf[out.Number:]
		}
		r := e.exts[t].Fetch(i, vseg, iseg)
		assembleSparse(&out, r, vbuf, ibuf, e.m.cum[part.child], e.opt)
	}
	if e.opt.ExtractValue {
		out.Value = vbuf[:out.Number]
	}
	if e.opt.ExtractIndex {
		out.Index = ibuf[:out.Number]
	}
	return out
}

type bindParallelOracularDense[V Value, I Index] struct {
	parts []childSlice[I]
	exts  []OracularDenseExtractor[V, I]
}

func (e *bindParallelOracularDense[V, I]) FetchNext(buf []V) []V {
	n := 0
	for t, part := range e.parts {
		seg := buf[part.off : part.off+part.n]
		copyUnlessAliased(seg, e.exts[t].FetchNext(seg))
		n = part.off + part.n
	}
	return buf[:n]
}

type bindParallelOracularSparse[V Value, I Index] struct {
	m     *delayedBind[V, I]
	parts []childSlice[I]
	exts  []OracularSparseExtractor[V, I]
	opt   Options
}

func (e *bindParallelOracularSparse[V, I]) FetchNext(vbuf []V, ibuf []I) SparseRange[V, I] {
	out := SparseRange[V, I]{}
	for t, part := range e.parts {
		var vseg []V
		var iseg []I
		if e.opt.ExtractValue {
			vseg = vbuf[out.Number:]
		}
		if e.opt.ExtractIndex {
			iseg = ibuf[out.Number:]
		}
		r := e.exts[t].FetchNext(vseg, iseg)
		assembleSparse(&out, r, vbuf, ibuf, e.m.cum[part.child], e.opt)
	}
	if e.opt.ExtractValue {
		out.Value = vbuf[:out.Number]
	}
	if e.opt.ExtractIndex {
		out.Index = ibuf[:out.Number]
	}
	return out
}
