package matview

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressedConstructionInvariants(t *testing.T) {
	values := []float64{1, 10, 100, 1000, 10000, 100000, 0, 1}
	indices := []int{2, 3, 1, 0, 2, 2, 4, 0}
	pointers := []int{0, 1, 2, 3, 5, 7}

	// The last pointer (7) does not account for all eight stored entries.
	_, err := NewCSCMatrix(5, 5, values, indices, pointers, true)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Skipping the check lets the malformed input through.
	_, err = NewCSCMatrix(5, 5, values, indices, pointers, false)
	require.NoError(t, err)

	cases := []struct {
		name     string
		values   []float64
		indices  []int
		pointers []int
	}{
		{"length mismatch", []float64{1, 2}, []int{0}, []int{0, 1, 1, 1, 1, 1}},
		{"wrong pointer count", []float64{1}, []int{0}, []int{0, 1}},
		{"nonzero first pointer", []float64{1}, []int{0}, []int{1, 1, 1, 1, 1, 1}},
		{"short last pointer", []float64{1}, []int{0}, []int{0, 0, 0, 0, 0, 0}},
		{"decreasing pointers", []float64{1, 2}, []int{0, 1}, []int{0, 2, 1, 2, 2, 2}},
		{"index out of range", []float64{1}, []int{9}, []int{0, 1, 1, 1, 1, 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCSCMatrix(5, 5, tc.values, tc.indices, tc.pointers, true)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

// identityCSC builds an n x n identity stored column-major.
func identityCSC(t *testing.T, n int) *CompressedSparse[float64, int] {
	t.Helper()
	values := make([]float64, n)
	indices := make([]int, n)
	pointers := make([]int, n+1)
	for i := 0; i < n; i++ {
		values[i] = 1
		indices[i] = i
		pointers[i+1] = i + 1
	}
	m, err := NewCSCMatrix(n, n, values, indices, pointers, true)
	require.NoError(t, err)
	return m
}

func TestSecondaryAccessSweeps(t *testing.T) {
	const n = 10
	m := identityCSC(t, n)

	ext, err := m.Dense(true, All[int](), DefaultOptions())
	require.NoError(t, err)
	buf := make([]float64, n)

	expect := func(i int) []float64 {
		want := make([]float64, n)
		want[i] = 1
		return want
	}

	// A single probe into the middle.
	require.Equal(t, expect(5), append([]float64(nil), ext.Fetch(5, buf)...))

	// Ascending sweep drives the forward path of the cursor cache.
	asc, err := m.Dense(true, All[int](), DefaultOptions())
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.Equal(t, expect(i), append([]float64(nil), asc.Fetch(i, buf)...), "ascending row %d", i)
	}

	// Descending sweep drives the reverse path.
	desc, err := m.Dense(true, All[int](), DefaultOptions())
	require.NoError(t, err)
	for i := n - 1; i >= 0; i-- {
		require.Equal(t, expect(i), append([]float64(nil), desc.Fetch(i, buf)...), "descending row %d", i)
	}

	// Random probing falls back to binary search in both directions.
	rng := rand.New(rand.NewSource(42))
	random, err := m.Dense(true, All[int](), DefaultOptions())
	require.NoError(t, err)
	for k := 0; k < 100; k++ {
		i := rng.Intn(n)
		require.Equal(t, expect(i), append([]float64(nil), random.Fetch(i, buf)...), "random row %d", i)
	}
}

func TestSecondaryAccessDirectionSwitches(t *testing.T) {
	m := buildCSC(t, testMatrix)

	// An adversarial request order: repeats, jumps, reversals.
	order := []int{0, 0, 3, 2, 2, 5, 1, 4, 4, 0, 5, 3, 3, 2}
	sweep, err := m.Dense(true, All[int](), DefaultOptions())
	require.NoError(t, err)

	buf := make([]float64, len(testMatrix[0]))
	for _, i := range order {
		require.Equal(t, testMatrix[i], append([]float64(nil), sweep.Fetch(i, buf)...), "row %d", i)
	}
}

func TestSecondaryAccessOverSubsets(t *testing.T) {
	m := buildCSC(t, testMatrix)

	// Rows fetched over a block of columns, ascending then descending.
	sub := Block(2, 4)
	ext, err := m.Sparse(true, sub, DefaultOptions())
	require.NoError(t, err)
	vbuf := make([]float64, 4)
	ibuf := make([]int, 4)

	for pass := 0; pass < 2; pass++ {
		for k := 0; k < len(testMatrix); k++ {
			i := k
			if pass == 1 {
				i = len(testMatrix) - 1 - k
			}
			r := ext.Fetch(i, vbuf, ibuf)
			want := refSlice(testMatrix, true, i, sub, len(testMatrix[0]))
			require.Equal(t, want, expandSparse(r, sub, len(testMatrix[0])), "row %d pass %d", i, pass)
		}
	}
}

func TestPrimarySparseAliasesStorage(t *testing.T) {
	m := buildCSR(t, testMatrix)
	ext, err := m.Sparse(true, All[int](), DefaultOptions())
	require.NoError(t, err)

	// Buffers stay untouched when the matrix can hand out its own arrays.
	r := ext.Fetch(0, nil, nil)
	require.Equal(t, 3, r.Number)
	require.Equal(t, []float64{1, 4, 8}, r.Value)
	require.Equal(t, []int{0, 3, 7}, r.Index)
}

func TestSparseOptionsDisableComponents(t *testing.T) {
	m := buildCSC(t, testMatrix)

	noVal, err := m.Sparse(true, All[int](), Options{ExtractIndex: true, OrderedIndex: true})
	require.NoError(t, err)
	ibuf := make([]int, 8)
	r := noVal.Fetch(2, nil, ibuf)
	require.Nil(t, r.Value)
	require.Equal(t, []int{1, 2, 4, 5, 6}, r.Index)

	noIdx, err := m.Sparse(true, All[int](), Options{ExtractValue: true, OrderedIndex: true})
	require.NoError(t, err)
	vbuf := make([]float64, 8)
	r = noIdx.Fetch(2, vbuf, nil)
	require.Nil(t, r.Index)
	require.Equal(t, []float64{2, 3, 5, 6, 7}, r.Value)

	neither, err := m.Sparse(true, All[int](), Options{})
	require.NoError(t, err)
	r = neither.Fetch(3, nil, nil)
	require.Equal(t, 8, r.Number)
	require.Nil(t, r.Value)
	require.Nil(t, r.Index)
}

func TestPrimaryIndexedSubsetMerge(t *testing.T) {
	m := buildCSR(t, testMatrix)
	sub := Picked([]int{0, 3, 5, 7})
	ext, err := m.Sparse(true, sub, DefaultOptions())
	require.NoError(t, err)

	vbuf := make([]float64, 4)
	ibuf := make([]int, 4)
	r := ext.Fetch(0, vbuf, ibuf)
	require.Equal(t, []float64{1, 4, 8}, r.Value)
	require.Equal(t, []int{0, 3, 7}, r.Index)

	r = ext.Fetch(2, vbuf, ibuf)
	require.Equal(t, []float64{6}, r.Value)
	require.Equal(t, []int{5}, r.Index)
}
