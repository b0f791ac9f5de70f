package mmarket

import (
	"bytes"
	"io"

	"github.com/james-bowman/matview"
)

// lineAssignments is the classifying store of the layered loader's first
// pass: it records each row's integer tier (by the largest value seen on
// the row) and the line counts needed to pre-size the builder's arrays.
type lineAssignments struct {
	nrow, ncol uint64

	category    []uint8
	index       []int
	linesPerRow []int

	rowsPerTier  [3]int
	linesPerTier [3]int
	permutation  []int
}

func (a *lineAssignments) SetDim(nr, nc, nlines uint64) error {
	a.nrow, a.ncol = nr, nc
	a.category = make([]uint8, nr)
	a.index = make([]int, nr)
	a.linesPerRow = make([]int, nr)
	return nil
}

func (a *lineAssignments) AddLine(row, col, value, line uint64) error {
	if value > 65535 {
		if a.category[row] < 2 {
			a.category[row] = 2
		}
	} else if value > 255 {
		if a.category[row] < 1 {
			a.category[row] = 1
		}
	}
	a.linesPerRow[row]++
	return nil
}

// finish turns the per-row tiers into tier-local indices, per-tier totals
// and the permutation of original rows to bound-matrix rows.
func (a *lineAssignments) finish() {
	for r := range a.category {
		tier := a.category[r]
		a.index[r] = a.rowsPerTier[tier]
		a.rowsPerTier[tier]++
		a.linesPerTier[tier] += a.linesPerRow[r]
	}

	offset := [3]int{0, a.rowsPerTier[0], a.rowsPerTier[0] + a.rowsPerTier[1]}
	a.permutation = make([]int, len(a.category))
	for r := range a.category {
		a.permutation[r] = offset[a.category[r]] + a.index[r]
	}
}

// layeredBuilder is the building store of the second pass: each data line
// lands in its row's tier at the next free slot, with the row already
// renumbered into tier-local space.  SI is the internal index type,
// uint16 when both dimensions allow it.
type layeredBuilder[V matview.Value, I matview.Index, SI matview.Index] struct {
	assign *lineAssignments

	dat8  []uint8
	rows8 []SI
	cols8 []SI
	n8    int

	dat16  []uint16
	rows16 []SI
	cols16 []SI
	n16    int

	dat32  []uint32
	rows32 []SI
	cols32 []SI
	n32    int
}

func newLayeredBuilder[V matview.Value, I matview.Index, SI matview.Index](assign *lineAssignments) *layeredBuilder[V, I, SI] {
	return &layeredBuilder[V, I, SI]{
		assign: assign,
		dat8:   make([]uint8, assign.linesPerTier[0]),
		rows8:  make([]SI, assign.linesPerTier[0]),
		cols8:  make([]SI, assign.linesPerTier[0]),
		dat16:  make([]uint16, assign.linesPerTier[1]),
		rows16: make([]SI, assign.linesPerTier[1]),
		cols16: make([]SI, assign.linesPerTier[1]),
		dat32:  make([]uint32, assign.linesPerTier[2]),
		rows32: make([]SI, assign.linesPerTier[2]),
		cols32: make([]SI, assign.linesPerTier[2]),
	}
}

func (b *layeredBuilder[V, I, SI]) SetDim(uint64, uint64, uint64) error { return nil }

func (b *layeredBuilder[V, I, SI]) AddLine(row, col, value, line uint64) error {
	local := SI(b.assign.index[row])
	switch b.assign.category[row] {
	case 0:
		b.dat8[b.n8] = uint8(value)
		b.rows8[b.n8] = local
		b.cols8[b.n8] = SI(col)
		b.n8++
	case 1:
		b.dat16[b.n16] = uint16(value)
		b.rows16[b.n16] = local
		b.cols16[b.n16] = SI(col)
		b.n16++
	default:
		b.dat32[b.n32] = uint32(value)
		b.rows32[b.n32] = local
		b.cols32[b.n32] = SI(col)
		b.n32++
	}
	return nil
}

// tier compresses one tier's triplets into a compressed sparse column
// matrix cast up to the caller's types.
func layeredTier[SV matview.Value, SI matview.Index, V matview.Value, I matview.Index](nrows, ncols int, values []SV, rows, cols []SI) (matview.Matrix[V, I], error) {
	ptr, err := matview.CompressSparseTriplets(ncols, values, cols, rows)
	if err != nil {
		return nil, err
	}
	sub, err := matview.NewCSCMatrix(SI(nrows), SI(ncols), values, rows, ptr, false)
	if err != nil {
		return nil, err
	}
	return matview.NewDelayedCast[V, I, SV, SI](sub), nil
}

func (b *layeredBuilder[V, I, SI]) build() (matview.Matrix[V, I], error) {
	nc := int(b.assign.ncol)
	var children []matview.Matrix[V, I]

	if b.assign.rowsPerTier[0] > 0 {
		m, err := layeredTier[uint8, SI, V, I](b.assign.rowsPerTier[0], nc, b.dat8, b.rows8, b.cols8)
		if err != nil {
			return nil, err
		}
		children = append(children, m)
	}
	if b.assign.rowsPerTier[1] > 0 {
		m, err := layeredTier[uint16, SI, V, I](b.assign.rowsPerTier[1], nc, b.dat16, b.rows16, b.cols16)
		if err != nil {
			return nil, err
		}
		children = append(children, m)
	}
	if b.assign.rowsPerTier[2] > 0 {
		m, err := layeredTier[uint32, SI, V, I](b.assign.rowsPerTier[2], nc, b.dat32, b.rows32, b.cols32)
		if err != nil {
			return nil, err
		}
		children = append(children, m)
	}

	if len(children) == 0 {
		return matview.NewCSCMatrix[V, I](0, I(nc), nil, nil, make([]int, nc+1), false)
	}
	return matview.NewDelayedBind(children, true)
}

// loadLayered runs the parser twice over the same source: once to assign
// rows to tiers, once to build the tier submatrices in permuted order.
func loadLayered[V matview.Value, I matview.Index](pass func(Store) error) (*matview.LayeredData[V, I], error) {
	assign := &lineAssignments{}
	if err := pass(assign); err != nil {
		return nil, err
	}
	assign.finish()

	var out matview.Matrix[V, I]
	var err error
	if assign.nrow <= 65535 && assign.ncol <= 65535 {
		b := newLayeredBuilder[V, I, uint16](assign)
		if err = pass(b); err != nil {
			return nil, err
		}
		out, err = b.build()
	} else {
		b := newLayeredBuilder[V, I, uint32](assign)
		if err = pass(b); err != nil {
			return nil, err
		}
		out, err = b.build()
	}
	if err != nil {
		return nil, err
	}
	return &matview.LayeredData[V, I]{Matrix: out, Permutation: assign.permutation}, nil
}

// LoadLayeredSparseMatrixFromFile reads a MatrixMarket coordinate file
// into a layered sparse matrix: rows are regrouped so that each tier
// stores its values in the smallest of uint8, uint16 and uint32.  The file
// is scanned twice.  The returned permutation maps each original row to
// its new position.
func LoadLayeredSparseMatrixFromFile[V matview.Value, I matview.Index](path string, compression Compression, bufSize int) (*matview.LayeredData[V, I], error) {
	return loadLayered[V, I](func(store Store) error {
		return withFile(path, compression, bufSize, func(r io.Reader) error {
			return Parse(r, store)
		})
	})
}

// LoadLayeredSparseMatrixFromBuffer is the in-memory counterpart of
// LoadLayeredSparseMatrixFromFile; the buffer is parsed twice.
func LoadLayeredSparseMatrixFromBuffer[V matview.Value, I matview.Index](buf []byte, compression Compression, bufSize int) (*matview.LayeredData[V, I], error) {
	return loadLayered[V, I](func(store Store) error {
		r, err := decompress(bytes.NewReader(buf), compression, bufSize)
		if err != nil {
			return err
		}
		return Parse(r, store)
	})
}
