package matview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// layeredFixture has per-row maxima straddling all three tiers, with
// small values sitting inside large rows to prove classification is by
// the row maximum rather than by individual entries.
var layeredFixture = [][]float64{
	{10, 0, 0, 2, 0, 0, 0, 0},      // u8
	{0, 1, 0, 0, 0, 0, 0, 0},       // u8
	{0, 0, 10, 0, 0, 0, 4, 0},      // u8
	{1000, 0, 0, 1, 0, 0, 0, 0},    // u16, with a tiny element
	{0, 10000, 0, 0, 0, 3, 0, 0},   // u16
	{100000, 0, 0, 0, 0, 0, 0, 1},   // u32, with a tiny element
	{0, 1, 0, 0, 0, 0, 0, 0},        // u8
	{0, 0, 100000, 0, 256, 0, 0, 0}, // u32
}

func TestConvertToLayeredSparse(t *testing.T) {
	var m Matrix[float64, int] = buildCSC(t, layeredFixture)

	out, err := ConvertToLayeredSparse(m, 2)
	require.NoError(t, err)
	require.Len(t, out.Permutation, 8)
	require.Equal(t, 8, out.Matrix.NRow())
	require.Equal(t, 8, out.Matrix.NCol())

	// Tier ordering: u8 rows first, then u16, then u32, each group in
	// original order.
	require.Equal(t, []int{0, 1, 2, 4, 5, 6, 3, 7}, out.Permutation)

	// Every original row is recovered at its permuted position.
	got := toDenseRows(t, out.Matrix)
	for r, want := range layeredFixture {
		require.Equal(t, want, got[out.Permutation[r]], "row %d", r)
	}
}

func TestConvertToLayeredSparseSingleTier(t *testing.T) {
	small := [][]float64{
		{1, 0, 2},
		{0, 3, 0},
	}
	var m Matrix[float64, int] = buildCSR(t, small)
	out, err := ConvertToLayeredSparse(m, 1)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, out.Permutation)
	require.Equal(t, small, toDenseRows(t, out.Matrix))
}

func TestConvertToLayeredSparseRejectsNegatives(t *testing.T) {
	var m Matrix[float64, int] = buildCSR(t, [][]float64{{1, -2, 3}})
	_, err := ConvertToLayeredSparse(m, 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConvertToLayeredSparseEmpty(t *testing.T) {
	empty, err := NewCSCMatrix[float64, int](0, 4, nil, nil, make([]int, 5), true)
	require.NoError(t, err)

	out, errc := ConvertToLayeredSparse[float64, int](empty, 1)
	require.NoError(t, errc)
	require.Empty(t, out.Permutation)
	require.Equal(t, 0, out.Matrix.NRow())
	require.Equal(t, 4, out.Matrix.NCol())
}

func TestLayeredRoundTripThroughConversion(t *testing.T) {
	var m Matrix[float64, int] = buildCSC(t, layeredFixture)
	out, err := ConvertToLayeredSparse(m, 2)
	require.NoError(t, err)

	// The layered composite behaves like any other matrix.
	back, err := ConvertToCompressedSparse(out.Matrix, true, true, 2)
	require.NoError(t, err)
	got := toDenseRows(t, back)
	for r, want := range layeredFixture {
		require.Equal(t, want, got[out.Permutation[r]])
	}
}
