package matview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountNonZeros(t *testing.T) {
	wantRows := []int{3, 0, 5, 8, 1, 2}
	wantCols := []int{2, 3, 2, 2, 3, 2, 2, 3}

	matrices := map[string]Matrix[float64, int]{
		"csr":   buildCSR(t, testMatrix),
		"csc":   buildCSC(t, testMatrix),
		"dense": buildDenseRow(t, testMatrix),
	}
	for name, m := range matrices {
		for _, threads := range []int{1, 3} {
			counts := make([]int, 6)
			require.NoError(t, CountNonZeros(m, true, counts, threads))
			require.Equal(t, wantRows, counts, "%s rows threads=%d", name, threads)

			counts = make([]int, 8)
			require.NoError(t, CountNonZeros(m, false, counts, threads))
			require.Equal(t, wantCols, counts, "%s cols threads=%d", name, threads)
		}
	}

	err := CountNonZeros[float64, int](matrices["csr"], true, make([]int, 3), 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFillCompressedContents(t *testing.T) {
	m := buildCSC(t, testMatrix)

	counts := make([]int, 6)
	require.NoError(t, CountNonZeros[float64, int](m, true, counts, 2))
	pointers := make([]int, 7)
	for i, c := range counts {
		pointers[i+1] = pointers[i] + c
	}

	values := make([]float64, pointers[6])
	indices := make([]int, pointers[6])
	require.NoError(t, FillCompressedContents[float64, int](m, true, pointers, values, indices, 2))

	rebuilt, err := NewCSRMatrix(6, 8, values, indices, pointers, true)
	require.NoError(t, err)
	require.Equal(t, testMatrix, toDenseRows(t, rebuilt))
}

func TestConvertToCompressedSparseRoundTrip(t *testing.T) {
	src := buildDenseRow(t, testMatrix)

	for _, toRow := range []bool{true, false} {
		for _, twoPass := range []bool{true, false} {
			out, err := ConvertToCompressedSparse[float64, int](src, toRow, twoPass, 2)
			require.NoError(t, err)
			require.Equal(t, toRow, out.PreferRows())
			require.Equal(t, testMatrix, toDenseRows(t, out), "toRow=%v twoPass=%v", toRow, twoPass)
		}
	}
}

func TestDenseSparseRoundTrip(t *testing.T) {
	// convert_to_compressed(convert_to_dense(M)) reproduces M.
	var m Matrix[float64, int] = buildCSC(t, testMatrix)

	dense, err := ConvertToDense(m, true, 2)
	require.NoError(t, err)
	require.Equal(t, testMatrix, toDenseRows(t, dense))

	back, err := ConvertToCompressedSparse[float64, int](dense, false, true, 2)
	require.NoError(t, err)
	require.Equal(t, testMatrix, toDenseRows(t, back))
	checkAccess(t, back, testMatrix)
}

func TestConvertToDenseColumnMajor(t *testing.T) {
	var m Matrix[float64, int] = buildCSR(t, testMatrix)
	dense, err := ConvertToDense(m, false, 3)
	require.NoError(t, err)
	require.False(t, dense.PreferRows())
	checkAccess(t, dense, testMatrix)
}

func TestConvertToFragmentedSparse(t *testing.T) {
	var m Matrix[float64, int] = buildDenseRow(t, testMatrix)
	frag, err := ConvertToFragmentedSparse(m, true, 2)
	require.NoError(t, err)
	require.Equal(t, testMatrix, toDenseRows(t, frag))
	checkAccess(t, frag, testMatrix)
}

func TestConvertDelayedComposition(t *testing.T) {
	// A decorated pipeline converts the same as its materialised result.
	base := buildCSC(t, testMatrix)
	scaled := NewDelayedUnaryIsometric[float64, int](base, NewMultiplyScalarOp[float64, int](2))
	tr := NewDelayedTranspose(scaled)

	out, err := ConvertToCompressedSparse(tr, true, true, 2)
	require.NoError(t, err)

	want := applyRef(transposeRef(testMatrix), func(_, _ int, v float64) float64 { return v * 2 })
	require.Equal(t, want, toDenseRows(t, out))
}
