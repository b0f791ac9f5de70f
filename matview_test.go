package matview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testMatrix is the shared 6x8 fixture used by the access-equivalence
// harness: a mix of empty rows, dense rows and values that straddle the
// layered tier boundaries.
var testMatrix = [][]float64{
	{1, 0, 0, 4, 0, 0, 0, 8},
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 2, 3, 0, 5, 6, 7, 0},
	{9, 9, 9, 9, 9, 9, 9, 9},
	{0, 0, 0, 0, 0, 0, 0, 256},
	{0, 70000, 0, 0, 1, 0, 0, 0},
}

func flatten(rows [][]float64) (int, int, []float64) {
	nr := len(rows)
	nc := 0
	if nr > 0 {
		nc = len(rows[0])
	}
	data := make([]float64, 0, nr*nc)
	for _, row := range rows {
		data = append(data, row...)
	}
	return nr, nc, data
}

func transposeRef(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]float64, len(rows[0]))
	for j := range out {
		out[j] = make([]float64, len(rows))
		for i := range rows {
			out[j][i] = rows[i][j]
		}
	}
	return out
}

// buildCSR compresses a dense reference into row-major sparse storage.
func buildCSR(t *testing.T, rows [][]float64) *CompressedSparse[float64, int] {
	t.Helper()
	nr, nc, _ := flatten(rows)
	var values []float64
	var indices []int
	pointers := make([]int, nr+1)
	for i, row := range rows {
		for j, v := range row {
			if v != 0 {
				values = append(values, v)
				indices = append(indices, j)
			}
		}
		pointers[i+1] = len(values)
	}
	m, err := NewCSRMatrix(nr, nc, values, indices, pointers, true)
	require.NoError(t, err)
	return m
}

// buildCSC compresses a dense reference into column-major sparse storage.
func buildCSC(t *testing.T, rows [][]float64) *CompressedSparse[float64, int] {
	t.Helper()
	nr, nc, _ := flatten(rows)
	var values []float64
	var indices []int
	pointers := make([]int, nc+1)
	for j := 0; j < nc; j++ {
		for i := 0; i < nr; i++ {
			if rows[i][j] != 0 {
				values = append(values, rows[i][j])
				indices = append(indices, i)
			}
		}
		pointers[j+1] = len(values)
	}
	m, err := NewCSCMatrix(nr, nc, values, indices, pointers, true)
	require.NoError(t, err)
	return m
}

func buildDenseRow(t *testing.T, rows [][]float64) *Dense[float64, int] {
	t.Helper()
	nr, nc, data := flatten(rows)
	m, err := NewDenseRowMajor(nr, nc, data)
	require.NoError(t, err)
	return m
}

func buildFragmentedRow(t *testing.T, rows [][]float64) *FragmentedSparse[float64, int] {
	t.Helper()
	nr, nc, _ := flatten(rows)
	values := make([][]float64, nr)
	indices := make([][]int, nr)
	for i, row := range rows {
		for j, v := range row {
			if v != 0 {
				values[i] = append(values[i], v)
				indices[i] = append(indices[i], j)
			}
		}
	}
	m, err := NewFragmentedSparseRowMatrix(nr, nc, values, indices, true)
	require.NoError(t, err)
	return m
}

// refSlice extracts the expected dense result for one row/column and
// subset from the reference.
func refSlice(rows [][]float64, row bool, i int, sub Subset[int], extent int) []float64 {
	n := sub.Len(extent)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		p := sub.At(k, extent)
		if row {
			out[k] = rows[i][p]
		} else {
			out[k] = rows[p][i]
		}
	}
	return out
}

// expandSparse unpacks a sparse range into the dense subset layout.
func expandSparse(r SparseRange[float64, int], sub Subset[int], extent int) []float64 {
	out := make([]float64, sub.Len(extent))
	for k := 0; k < r.Number; k++ {
		// Locate the subset position of this index.
		for pos := 0; pos < len(out); pos++ {
			if sub.At(pos, extent) == r.Index[k] {
				out[pos] = r.Value[k]
				break
			}
		}
	}
	return out
}

// checkAccess verifies dense and sparse extraction in both directions over
// full, block and indexed subsets against the dense reference.
func checkAccess(t *testing.T, m Matrix[float64, int], rows [][]float64) {
	t.Helper()
	nr, nc, _ := flatten(rows)
	require.Equal(t, nr, m.NRow())
	require.Equal(t, nc, m.NCol())

	for _, row := range []bool{true, false} {
		extent := nc
		targets := nr
		if !row {
			extent = nr
			targets = nc
		}

		subsets := []Subset[int]{All[int]()}
		if extent > 2 {
			subsets = append(subsets,
				Block(1, extent-2),
				Picked(pickEvery(extent, 2)),
			)
		}

		for _, sub := range subsets {
			dext, err := m.Dense(row, sub, DefaultOptions())
			require.NoError(t, err)
			sext, err := m.Sparse(row, sub, DefaultOptions())
			require.NoError(t, err)

			buf := make([]float64, extent)
			vbuf := make([]float64, extent)
			ibuf := make([]int, extent)

			for i := 0; i < targets; i++ {
				want := refSlice(rows, row, i, sub, extent)
				require.Equal(t, want, dext.Fetch(i, buf), "dense row=%v i=%d", row, i)

				r := sext.Fetch(i, vbuf, ibuf)
				for k := 1; k < r.Number; k++ {
					require.Less(t, r.Index[k-1], r.Index[k], "sparse indices should be ascending")
				}
				require.Equal(t, want, expandSparse(r, sub, extent), "sparse row=%v i=%d", row, i)
			}
		}
	}
}

func pickEvery(extent, step int) []int {
	var ids []int
	for k := 0; k < extent; k += step {
		ids = append(ids, k)
	}
	return ids
}

// toDenseRows materialises a matrix into a dense reference via row-wise
// dense extraction.
func toDenseRows(t *testing.T, m Matrix[float64, int]) [][]float64 {
	t.Helper()
	ext, err := m.Dense(true, All[int](), DefaultOptions())
	require.NoError(t, err)
	out := make([][]float64, m.NRow())
	buf := make([]float64, m.NCol())
	for i := 0; i < m.NRow(); i++ {
		out[i] = append([]float64(nil), ext.Fetch(i, buf)...)
	}
	return out
}

func TestAccessEquivalenceAcrossStorageEngines(t *testing.T) {
	engines := map[string]Matrix[float64, int]{
		"csr":        buildCSR(t, testMatrix),
		"csc":        buildCSC(t, testMatrix),
		"dense-row":  buildDenseRow(t, testMatrix),
		"fragmented": buildFragmentedRow(t, testMatrix),
	}
	for name, m := range engines {
		t.Run(name, func(t *testing.T) {
			checkAccess(t, m, testMatrix)
		})
	}
}

func TestEmptyMatrices(t *testing.T) {
	for _, dims := range [][2]int{{0, 5}, {5, 0}, {0, 0}} {
		nr, nc := dims[0], dims[1]
		pointers := make([]int, nc+1)
		m, err := NewCSCMatrix[float64, int](nr, nc, nil, nil, pointers, true)
		require.NoError(t, err)

		ext, err := m.Sparse(true, All[int](), DefaultOptions())
		require.NoError(t, err)
		vbuf := make([]float64, nc+1)
		ibuf := make([]int, nc+1)
		for i := 0; i < nr; i++ {
			require.Zero(t, ext.Fetch(i, vbuf, ibuf).Number)
		}

		dext, err := m.Dense(false, All[int](), DefaultOptions())
		require.NoError(t, err)
		buf := make([]float64, nr+1)
		for j := 0; j < nc; j++ {
			require.Len(t, dext.Fetch(j, buf), nr)
		}
	}
}

func TestSingleRowAndColumnMatrices(t *testing.T) {
	single := [][]float64{{0, 3, 0, 7}}
	checkAccess(t, buildCSR(t, single), single)
	checkAccess(t, buildCSC(t, single), single)

	tall := transposeRef(single)
	checkAccess(t, buildCSC(t, tall), tall)
}

func TestFactoryValidation(t *testing.T) {
	m := buildCSR(t, testMatrix)

	_, err := m.Dense(true, Block(4, 10), DefaultOptions())
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.Sparse(true, Picked([]int{3, 3}), DefaultOptions())
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.Sparse(false, Picked([]int{2, 1}), DefaultOptions())
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = m.Dense(false, Picked([]int{0, 99}), DefaultOptions())
	require.ErrorIs(t, err, ErrInvalidArgument)
}
