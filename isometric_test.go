package matview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func applyRef(rows [][]float64, f func(i, j int, v float64) float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = f(i, j, v)
		}
	}
	return out
}

func TestUnaryScalarOps(t *testing.T) {
	m := buildCSC(t, testMatrix)

	t.Run("add", func(t *testing.T) {
		wrapped := NewDelayedUnaryIsometric[float64, int](m, NewAddScalarOp[float64, int](2.5))
		require.False(t, wrapped.IsSparse())
		checkAccess(t, wrapped, applyRef(testMatrix, func(_, _ int, v float64) float64 { return v + 2.5 }))
	})

	t.Run("add zero stays sparse", func(t *testing.T) {
		wrapped := NewDelayedUnaryIsometric[float64, int](m, NewAddScalarOp[float64, int](0))
		require.True(t, wrapped.IsSparse())
		checkAccess(t, wrapped, testMatrix)
	})

	t.Run("multiply", func(t *testing.T) {
		wrapped := NewDelayedUnaryIsometric[float64, int](m, NewMultiplyScalarOp[float64, int](3))
		require.True(t, wrapped.IsSparse())
		checkAccess(t, wrapped, applyRef(testMatrix, func(_, _ int, v float64) float64 { return v * 3 }))
	})

	t.Run("subtract from scalar", func(t *testing.T) {
		wrapped := NewDelayedUnaryIsometric[float64, int](m, NewSubtractScalarOp[float64, int](10, false))
		checkAccess(t, wrapped, applyRef(testMatrix, func(_, _ int, v float64) float64 { return 10 - v }))
	})

	t.Run("divide by scalar", func(t *testing.T) {
		op, err := NewDivideScalarOp[float64, int](4, true)
		require.NoError(t, err)
		wrapped := NewDelayedUnaryIsometric[float64, int](m, op)
		require.True(t, wrapped.IsSparse())
		checkAccess(t, wrapped, applyRef(testMatrix, func(_, _ int, v float64) float64 { return v / 4 }))
	})

	t.Run("abs", func(t *testing.T) {
		signed := applyRef(testMatrix, func(i, j int, v float64) float64 {
			if (i+j)%2 == 0 {
				return -v
			}
			return v
		})
		wrapped := NewDelayedUnaryIsometric[float64, int](buildCSR(t, signed), NewAbsOp[float64, int]())
		checkAccess(t, wrapped, testMatrix)
	})
}

func TestDivisionRequiresIEEE(t *testing.T) {
	_, err := NewDivideScalarOp[int64, int](0, true)
	require.ErrorIs(t, err, ErrDomain)

	_, err = NewDivideScalarOp[int64, int](5, false)
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = NewDivideOp[int32, int]()
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = NewDivideScalarOp[float64, int](0, true)
	require.NoError(t, err)
}

func TestCompareScalarOp(t *testing.T) {
	m := buildCSR(t, testMatrix)

	gt := NewDelayedUnaryIsometric[float64, int](m, NewCompareScalarOp[float64, int](CompareGreater, 5))
	require.True(t, gt.IsSparse())
	checkAccess(t, gt, applyRef(testMatrix, func(_, _ int, v float64) float64 {
		if v > 5 {
			return 1
		}
		return 0
	}))

	// Zero satisfies <= 5, so the result is dense.
	le := NewDelayedUnaryIsometric[float64, int](m, NewCompareScalarOp[float64, int](CompareLessOrEqual, 5))
	require.False(t, le.IsSparse())
	checkAccess(t, le, applyRef(testMatrix, func(_, _ int, v float64) float64 {
		if v <= 5 {
			return 1
		}
		return 0
	}))
}

func TestVectorOps(t *testing.T) {
	m := buildCSC(t, testMatrix)
	rowVec := []float64{1, 2, 3, 4, 5, 6}
	colVec := []float64{10, 20, 30, 40, 50, 60, 70, 80}

	t.Run("add per row", func(t *testing.T) {
		wrapped := NewDelayedUnaryIsometric[float64, int](m, NewAddVectorOp[float64, int](rowVec, true))
		checkAccess(t, wrapped, applyRef(testMatrix, func(i, _ int, v float64) float64 { return v + rowVec[i] }))
	})

	t.Run("add per column", func(t *testing.T) {
		wrapped := NewDelayedUnaryIsometric[float64, int](m, NewAddVectorOp[float64, int](colVec, false))
		checkAccess(t, wrapped, applyRef(testMatrix, func(_, j int, v float64) float64 { return v + colVec[j] }))
	})

	t.Run("multiply per row stays sparse", func(t *testing.T) {
		wrapped := NewDelayedUnaryIsometric[float64, int](m, NewMultiplyVectorOp[float64, int](rowVec, true))
		require.True(t, wrapped.IsSparse())
		checkAccess(t, wrapped, applyRef(testMatrix, func(i, _ int, v float64) float64 { return v * rowVec[i] }))
	})

	t.Run("multiply per column", func(t *testing.T) {
		wrapped := NewDelayedUnaryIsometric[float64, int](m, NewMultiplyVectorOp[float64, int](colVec, false))
		checkAccess(t, wrapped, applyRef(testMatrix, func(_, j int, v float64) float64 { return v * colVec[j] }))
	})
}

func TestBinaryOps(t *testing.T) {
	other := applyRef(testMatrix, func(i, j int, v float64) float64 {
		if j%2 == 0 {
			return float64(i + j)
		}
		return 0
	})
	left := buildCSR(t, testMatrix)
	right := buildCSC(t, other)

	t.Run("add", func(t *testing.T) {
		m, err := NewDelayedBinaryIsometric[float64, int](left, right, NewAddOp[float64, int]())
		require.NoError(t, err)
		require.True(t, m.IsSparse())
		checkAccess(t, m, applyRef(testMatrix, func(i, j int, v float64) float64 { return v + other[i][j] }))
	})

	t.Run("subtract", func(t *testing.T) {
		m, err := NewDelayedBinaryIsometric[float64, int](left, right, NewSubtractOp[float64, int]())
		require.NoError(t, err)
		checkAccess(t, m, applyRef(testMatrix, func(i, j int, v float64) float64 { return v - other[i][j] }))
	})

	t.Run("multiply", func(t *testing.T) {
		m, err := NewDelayedBinaryIsometric[float64, int](left, right, NewMultiplyOp[float64, int]())
		require.NoError(t, err)
		checkAccess(t, m, applyRef(testMatrix, func(i, j int, v float64) float64 { return v * other[i][j] }))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := NewDelayedBinaryIsometric[float64, int](left, buildCSR(t, testMatrix[:2]), NewAddOp[float64, int]())
		require.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestBinaryDivisionDegradesToDense(t *testing.T) {
	denom := applyRef(testMatrix, func(i, j int, _ float64) float64 { return float64(j + 1) })
	left := buildCSR(t, testMatrix)
	right := buildDenseRow(t, denom)

	op, err := NewDivideOp[float64, int]()
	require.NoError(t, err)
	m, err := NewDelayedBinaryIsometric[float64, int](left, right, op)
	require.NoError(t, err)
	require.False(t, m.IsSparse())

	// Sparse extraction reports every position of the subset.
	ext, err := m.Sparse(true, All[int](), DefaultOptions())
	require.NoError(t, err)
	vbuf := make([]float64, 8)
	ibuf := make([]int, 8)
	r := ext.Fetch(0, vbuf, ibuf)
	require.Equal(t, 8, r.Number)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, r.Index)
	for j := 0; j < 8; j++ {
		require.Equal(t, testMatrix[0][j]/denom[0][j], r.Value[j])
	}
}
