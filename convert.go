package matview

import "fmt"

var intScratchPool = newSlicePool[int]()

// CountNonZeros counts the non-zero elements of every row (byRow=true) or
// column (byRow=false), writing the per-primary totals into counts, which
// must have the extent of that dimension.  The matrix is consumed along
// its preferred direction; when that differs from the requested one the
// workers accumulate into pooled scratch vectors that are summed after the
// join.
func CountNonZeros[V Value, I Index](m Matrix[V, I], byRow bool, counts []int, threads int) error {
	n := primaryExtent(m, byRow)
	if len(counts) != int(n) {
		return fmt.Errorf("%w: counts should have length %d", ErrInvalidArgument, n)
	}
	for i := range counts {
		counts[i] = 0
	}

	if m.PreferRows() == byRow {
		_, err := Parallelize(func(_ int, start, length I) error {
			if m.IsSparse() {
				ext, err := m.Sparse(byRow, All[I](), Options{})
				if err != nil {
					return err
				}
				for p := start; p < start+length; p++ {
					counts[p] = ext.Fetch(p, nil, nil).Number
				}
				return nil
			}
			ext, err := m.Dense(byRow, All[I](), DefaultOptions())
			if err != nil {
				return err
			}
			buf := make([]V, secondaryExtent(m, byRow))
			for p := start; p < start+length; p++ {
				c := 0
				for _, v := range ext.Fetch(p, buf) {
					if v != 0 {
						c++
					}
				}
				counts[p] = c
			}
			return nil
		}, n, threads)
		return err
	}

	// Preferred direction is orthogonal: sweep it instead and scatter into
	// per-worker scratch counts over the requested primary dimension.
	if threads < 1 {
		threads = 1
	}
	scratches := make([][]int, threads)
	defer func() {
		for _, s := range scratches {
			if s != nil {
				intScratchPool.put(s)
			}
		}
	}()

	other := secondaryExtent(m, byRow)
	_, err := Parallelize(func(w int, start, length I) error {
		scratch := intScratchPool.get(int(n), true)
		scratches[w] = scratch
		if m.IsSparse() {
			ext, err := m.Sparse(!byRow, All[I](), Options{ExtractIndex: true, OrderedIndex: true})
			if err != nil {
				return err
			}
			ibuf := make([]I, n)
			for q := start; q < start+length; q++ {
				r := ext.Fetch(q, nil, ibuf)
				for _, p := range r.Index {
					scratch[p]++
				}
			}
			return nil
		}
		ext, err := m.Dense(!byRow, All[I](), DefaultOptions())
		if err != nil {
			return err
		}
		buf := make([]V, n)
		for q := start; q < start+length; q++ {
			for p, v := range ext.Fetch(q, buf) {
				if v != 0 {
					scratch[p]++
				}
			}
		}
		return nil
	}, other, threads)
	if err != nil {
		return err
	}

	for _, scratch := range scratches {
		if scratch == nil {
			continue
		}
		for p, c := range scratch {
			counts[p] += c
		}
	}
	return nil
}

// FillCompressedContents writes the non-zero values and secondary indices
// of every row/column into the pre-sized output slices, assuming pointers
// already holds the cumulative offsets produced from CountNonZeros.
// Workers own disjoint primary ranges, so they write into disjoint slices
// of the outputs.
func FillCompressedContents[V Value, I Index](m Matrix[V, I], byRow bool, pointers []int, values []V, indices []I, threads int) error {
	n := primaryExtent(m, byRow)
	if len(pointers) != int(n)+1 {
		return fmt.Errorf("%w: pointers should have length %d", ErrInvalidArgument, n+1)
	}
	if nnz := pointers[n]; len(values) != nnz || len(indices) != nnz {
		return fmt.Errorf("%w: outputs should have length %d", ErrInvalidArgument, pointers[n])
	}

	sec := secondaryExtent(m, byRow)
	_, err := Parallelize(func(_ int, start, length I) error {
		if m.IsSparse() {
			ext, err := m.Sparse(byRow, All[I](), DefaultOptions())
			if err != nil {
				return err
			}
			vbuf := make([]V, sec)
			ibuf := make([]I, sec)
			for p := start; p < start+length; p++ {
				r := ext.Fetch(p, vbuf, ibuf)
				off := pointers[p]
				copy(values[off:pointers[p+1]], r.Value[:r.Number])
				copy(indices[off:pointers[p+1]], r.Index[:r.Number])
			}
			return nil
		}
		ext, err := m.Dense(byRow, All[I](), DefaultOptions())
		if err != nil {
			return err
		}
		buf := make([]V, sec)
		for p := start; p < start+length; p++ {
			off := pointers[p]
			for s, v := range ext.Fetch(p, buf) {
				if v != 0 {
					values[off] = v
					indices[off] = I(s)
					off++
				}
			}
		}
		return nil
	}, n, threads)
	return err
}

// ConvertToCompressedSparse materialises any matrix as compressed sparse
// storage grouped by rows (toRow=true) or columns.  The two-pass strategy
// counts first and fills exactly-sized allocations second; the one-pass
// strategy collects fragmented storage and flattens it, trading O(nnz)
// temporary memory for a single sweep of the input.
func ConvertToCompressedSparse[V Value, I Index](m Matrix[V, I], toRow, twoPass bool, threads int) (*CompressedSparse[V, I], error) {
	n := primaryExtent(m, toRow)

	if !twoPass {
		frag, err := ConvertToFragmentedSparse(m, toRow, threads)
		if err != nil {
			return nil, err
		}
		pointers := make([]int, n+1)
		for p := 0; p < int(n); p++ {
			pointers[p+1] = pointers[p] + len(frag.values[p])
		}
		values := make([]V, pointers[n])
		indices := make([]I, pointers[n])
		for p := 0; p < int(n); p++ {
			copy(values[pointers[p]:], frag.values[p])
			copy(indices[pointers[p]:], frag.indices[p])
		}
		return newCompressedSparse(m.NRow(), m.NCol(), toRow, values, indices, pointers, false)
	}

	counts := make([]int, n)
	if err := CountNonZeros(m, toRow, counts, threads); err != nil {
		return nil, err
	}
	pointers := make([]int, n+1)
	for p, c := range counts {
		pointers[p+1] = pointers[p] + c
	}
	values := make([]V, pointers[n])
	indices := make([]I, pointers[n])
	if err := FillCompressedContents(m, toRow, pointers, values, indices, threads); err != nil {
		return nil, err
	}
	return newCompressedSparse(m.NRow(), m.NCol(), toRow, values, indices, pointers, false)
}

// ConvertToFragmentedSparse materialises any matrix as fragmented sparse
// storage in a single sweep along the target dimension.
func ConvertToFragmentedSparse[V Value, I Index](m Matrix[V, I], toRow bool, threads int) (*FragmentedSparse[V, I], error) {
	n := primaryExtent(m, toRow)
	sec := secondaryExtent(m, toRow)
	values := make([][]V, n)
	indices := make([][]I, n)

	_, err := Parallelize(func(_ int, start, length I) error {
		if m.IsSparse() {
			ext, err := m.Sparse(toRow, All[I](), DefaultOptions())
			if err != nil {
				return err
			}
			vbuf := make([]V, sec)
			ibuf := make([]I, sec)
			for p := start; p < start+length; p++ {
				r := ext.Fetch(p, vbuf, ibuf)
				values[p] = append([]V(nil), r.Value[:r.Number]...)
				indices[p] = append([]I(nil), r.Index[:r.Number]...)
			}
			return nil
		}
		ext, err := m.Dense(toRow, All[I](), DefaultOptions())
		if err != nil {
			return err
		}
		buf := make([]V, sec)
		for p := start; p < start+length; p++ {
			var vals []V
			var ids []I
			for s, v := range ext.Fetch(p, buf) {
				if v != 0 {
					vals = append(vals, v)
					ids = append(ids, I(s))
				}
			}
			values[p] = vals
			indices[p] = ids
		}
		return nil
	}, n, threads)
	if err != nil {
		return nil, err
	}
	return newFragmentedSparse(m.NRow(), m.NCol(), toRow, values, indices, false)
}

// ConvertToDense materialises any matrix as dense storage, row-major when
// toRow is set and column-major otherwise.  Workers fill disjoint stripes
// of the backing slice along the target dimension.
func ConvertToDense[V Value, I Index](m Matrix[V, I], toRow bool, threads int) (*Dense[V, I], error) {
	n := primaryExtent(m, toRow)
	sec := int(secondaryExtent(m, toRow))
	data := make([]V, int(n)*sec)

	_, err := Parallelize(func(_ int, start, length I) error {
		ext, err := m.Dense(toRow, All[I](), DefaultOptions())
		if err != nil {
			return err
		}
		for p := start; p < start+length; p++ {
			seg := data[int(p)*sec : (int(p)+1)*sec]
			copyUnlessAliased(seg, ext.Fetch(p, seg))
		}
		return nil
	}, n, threads)
	if err != nil {
		return nil, err
	}

	if toRow {
		return NewDenseRowMajor(m.NRow(), m.NCol(), data)
	}
	return NewDenseColumnMajor(m.NRow(), m.NCol(), data)
}
