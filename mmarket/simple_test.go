package mmarket

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/james-bowman/matview"
	"github.com/stretchr/testify/require"
)

func denseRows(t *testing.T, m matview.Matrix[float64, int]) [][]float64 {
	t.Helper()
	ext, err := m.Dense(true, matview.All[int](), matview.DefaultOptions())
	require.NoError(t, err)
	out := make([][]float64, m.NRow())
	buf := make([]float64, m.NCol())
	for i := 0; i < m.NRow(); i++ {
		out[i] = append([]float64(nil), ext.Fetch(i, buf)...)
	}
	return out
}

func TestLoadSparseMatrix(t *testing.T) {
	m, err := LoadSparseMatrix[float64, int](strings.NewReader(simpleDoc))
	require.NoError(t, err)

	require.Equal(t, 3, m.NRow())
	require.Equal(t, 2, m.NCol())
	require.True(t, m.IsSparse())
	require.False(t, m.PreferRows())

	want := [][]float64{{5, 0}, {0, 0}, {0, 7}}
	require.Equal(t, want, denseRows(t, m))
}

func TestLoadSparseMatrixUnsortedInput(t *testing.T) {
	// Coordinates out of order compress to the same matrix.
	doc := "% c\n4 4 5\n4 4 1\n1 1 2\n2 3 3\n2 1 4\n3 2 5\n"
	m, err := LoadSparseMatrix[float64, int](strings.NewReader(doc))
	require.NoError(t, err)

	want := [][]float64{
		{2, 0, 0, 0},
		{4, 0, 3, 0},
		{0, 5, 0, 0},
		{0, 0, 0, 1},
	}
	require.Equal(t, want, denseRows(t, m))
}

func TestLoadSparseMatrixWideIndices(t *testing.T) {
	// A column index beyond uint16 forces the wide storage path.
	doc := "% c\n2 70000 2\n1 1 3\n2 70000 9\n"
	m, err := LoadSparseMatrix[float64, int](strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, 70000, m.NCol())

	ext, err := m.Sparse(true, matview.All[int](), matview.DefaultOptions())
	require.NoError(t, err)
	vbuf := make([]float64, 70000)
	ibuf := make([]int, 70000)
	r := ext.Fetch(1, vbuf, ibuf)
	require.Equal(t, 1, r.Number)
	require.Equal(t, 69999, r.Index[0])
	require.Equal(t, 9.0, r.Value[0])
}

func TestLoadSparseMatrixFromFileCompression(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "m.mtx")
	require.NoError(t, os.WriteFile(plain, []byte(simpleDoc), 0o644))

	zipped := filepath.Join(dir, "m.mtx.gz")
	f, err := os.Create(zipped)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(simpleDoc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	want := [][]float64{{5, 0}, {0, 0}, {0, 7}}

	cases := []struct {
		path string
		comp Compression
	}{
		{plain, None},
		{plain, Auto},
		{zipped, Gzip},
		{zipped, Auto},
	}
	for _, tc := range cases {
		m, err := LoadSparseMatrixFromFile[float64, int](tc.path, tc.comp, 0)
		require.NoError(t, err, "path=%s comp=%d", tc.path, tc.comp)
		require.Equal(t, want, denseRows(t, m))
	}

	_, err = LoadSparseMatrixFromFile[float64, int](plain, Compression(9), 0)
	require.ErrorIs(t, err, matview.ErrUnsupported)
}

func TestLoadSparseMatrixFromBuffer(t *testing.T) {
	m, err := LoadSparseMatrixFromBuffer[float64, int]([]byte(simpleDoc), Auto, 0)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{5, 0}, {0, 0}, {0, 7}}, denseRows(t, m))
}

func TestExtractHeaderFromBuffer(t *testing.T) {
	h, err := ExtractHeaderFromBuffer([]byte(simpleDoc), None, 0)
	require.NoError(t, err)
	require.Equal(t, Header{NRow: 3, NCol: 2, NLines: 2}, h)
}
