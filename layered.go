package matview

import "fmt"

// LayeredData is the result of the layered sparse pipeline: a matrix whose
// rows have been regrouped into 8-, 16- and 32-bit tiers, plus the
// permutation mapping original rows to their new positions.  For an
// original row r, its data lives at row Permutation[r] of Matrix.
type LayeredData[V Value, I Index] struct {
	Matrix      Matrix[V, I]
	Permutation []int
}

// layeredAssignments is the outcome of the classification pass: the tier
// of every row, its index within the tier, per-tier row totals and
// per-tier column pointers for the upcoming CSC builds.
type layeredAssignments struct {
	category  []uint8
	newIndex  []int
	perTier   [3]int
	colptr    [3][]int
	permuted  []int
}

func layeredCategory(v float64) uint8 {
	switch {
	case v > 65535:
		return 2
	case v > 255:
		return 1
	default:
		return 0
	}
}

// classifyRows is the first pass: per-row maxima decide the tier, and the
// per-tier column counts collected along the way become the column
// pointers of the three submatrices.
func classifyRows[V Value, I Index](m Matrix[V, I], threads int) (*layeredAssignments, error) {
	nr := int(m.NRow())
	nc := int(m.NCol())
	asg := &layeredAssignments{category: make([]uint8, nr), newIndex: make([]int, nr)}

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

	_, err := Parallelize(func(w int, start, length I) error {
		scratch := intScratchPool.get(3*nc, true)
		scratches[w] = scratch

		ext, err := m.Sparse(true, All[I](), DefaultOptions())
		if err != nil {
			return err
		}
		vbuf := make([]V, nc)
		ibuf := make([]I, nc)
		for r := start; r < start+length; r++ {
			rng := ext.Fetch(r, vbuf, ibuf)
			var max float64
			for k := 0; k < rng.Number; k++ {
				v := float64(rng.Value[k])
				if v < 0 {
					return fmt.Errorf("%w: negative value %g in row %d", ErrInvalidArgument, v, r)
				}
				if v > max {
					max = v
				}
			}
			cat := layeredCategory(max)
			asg.category[r] = cat
			for k := 0; k < rng.Number; k++ {
				scratch[int(cat)*nc+int(rng.Index[k])]++
			}
		}
		return nil
	}, I(nr), threads)
	if err != nil {
		return nil, err
	}

	for t := 0; t < 3; t++ {
		asg.colptr[t] = make([]int, nc+1)
	}
	for _, scratch := range scratches {
		if scratch == nil {
			continue
		}
		for t := 0; t < 3; t++ {
			for c := 0; c < nc; c++ {
				asg.colptr[t][c+1] += scratch[t*nc+c]
			}
		}
	}
	for t := 0; t < 3; t++ {
		for c := 0; c < nc; c++ {
			asg.colptr[t][c+1] += asg.colptr[t][c]
		}
	}

	// Tier-local indices follow original row order, then the offsets of
	// the tiers stack to give the permutation.
	for r := 0; r < nr; r++ {
		cat := asg.category[r]
		asg.newIndex[r] = asg.perTier[cat]
		asg.perTier[cat]++
	}
	offset := [3]int{0, asg.perTier[0], asg.perTier[0] + asg.perTier[1]}
	asg.permuted = make([]int, nr)
	for r := 0; r < nr; r++ {
		asg.permuted[r] = offset[asg.category[r]] + asg.newIndex[r]
	}
	return asg, nil
}

// layeredAssemble is the second pass: every column of the input is
// scattered into the pre-sized CSC arrays of its rows' tiers, then the
// tiers are cast up to the caller's types and bound along the rows.  SI is
// the internal row-index type, uint16 when the row count allows it.
func layeredAssemble[SI Index, V Value, I Index](m Matrix[V, I], asg *layeredAssignments, threads int) (Matrix[V, I], error) {
	nc := int(m.NCol())
	nr := int(m.NRow())

	dat8 := make([]uint8, asg.colptr[0][nc])
	dat16 := make([]uint16, asg.colptr[1][nc])
	dat32 := make([]uint32, asg.colptr[2][nc])
	row8 := make([]SI, len(dat8))
	row16 := make([]SI, len(dat16))
	row32 := make([]SI, len(dat32))

	_, err := Parallelize(func(_ int, start, length I) error {
		ext, err := m.Sparse(false, All[I](), DefaultOptions())
		if err != nil {
			return err
		}
		vbuf := make([]V, nr)
		ibuf := make([]I, nr)
		var cursor [3]int
		for c := start; c < start+length; c++ {
			rng := ext.Fetch(c, vbuf, ibuf)
			cursor = [3]int{asg.colptr[0][c], asg.colptr[1][c], asg.colptr[2][c]}
			for k := 0; k < rng.Number; k++ {
				r := int(rng.Index[k])
				v := rng.Value[k]
				local := SI(asg.newIndex[r])
				switch asg.category[r] {
				case 0:
					dat8[cursor[0]] = uint8(v)
					row8[cursor[0]] = local
					cursor[0]++
				case 1:
					dat16[cursor[1]] = uint16(v)
					row16[cursor[1]] = local
					cursor[1]++
				default:
					dat32[cursor[2]] = uint32(v)
					row32[cursor[2]] = local
					cursor[2]++
				}
			}
		}
		return nil
	}, I(nc), threads)
	if err != nil {
		return nil, err
	}

	var children []Matrix[V, I]
	if asg.perTier[0] > 0 {
		sub, err := NewCSCMatrix(SI(asg.perTier[0]), SI(nc), dat8, row8, asg.colptr[0], false)
		if err != nil {
			return nil, err
		}
		children = append(children, NewDelayedCast[V, I, uint8, SI](sub))
	}
	if asg.perTier[1] > 0 {
		sub, err := NewCSCMatrix(SI(asg.perTier[1]), SI(nc), dat16, row16, asg.colptr[1], false)
		if err != nil {
			return nil, err
		}
		children = append(children, NewDelayedCast[V, I, uint16, SI](sub))
	}
	if asg.perTier[2] > 0 {
		sub, err := NewCSCMatrix(SI(asg.perTier[2]), SI(nc), dat32, row32, asg.colptr[2], false)
		if err != nil {
			return nil, err
		}
		children = append(children, NewDelayedCast[V, I, uint32, SI](sub))
	}

	if len(children) == 0 {
		return NewCSCMatrix[V, I](0, I(nc), nil, nil, make([]int, nc+1), false)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return NewDelayedBind(children, true)
}

// ConvertToLayeredSparse regroups an integer count matrix so that each
// row's values are stored in the smallest of uint8, uint16 and uint32 that
// fits the row's maximum.  Rows are reordered into tier submatrices bound
// along the row axis; the reported permutation maps each original row to
// its new position.  Negative values are rejected with ErrInvalidArgument.
func ConvertToLayeredSparse[V Value, I Index](m Matrix[V, I], threads int) (*LayeredData[V, I], error) {
	asg, err := classifyRows(m, threads)
	if err != nil {
		return nil, err
	}

	var out Matrix[V, I]
	if int(m.NRow()) <= 65535 {
		out, err = layeredAssemble[uint16](m, asg, threads)
	} else {
		out, err = layeredAssemble[uint32](m, asg, threads)
	}
	if err != nil {
		return nil, err
	}
	return &LayeredData[V, I]{Matrix: out, Permutation: asg.permuted}, nil
}
