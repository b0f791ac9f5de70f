package matview

import "gonum.org/v1/gonum/mat"

// gonumAdapter exposes a Matrix through the gonum mat.Matrix interface so
// that the rest of the Gonum ecosystem can consume it directly.  At is
// implemented with a fresh single-element extractor per call, which is
// correct but slow; convert to a concrete format first for anything
// performance sensitive.
type gonumAdapter struct {
	m Matrix[float64, int]
}

// ToGonum wraps m as a gonum mat.Matrix.
func ToGonum(m Matrix[float64, int]) mat.Matrix {
	return &gonumAdapter{m: m}
}

// Dims returns the matrix dimensions.
func (a *gonumAdapter) Dims() (int, int) {
	return a.m.NRow(), a.m.NCol()
}

// At returns the element at row i, column j.
func (a *gonumAdapter) At(i, j int) float64 {
	ext, err := a.m.Dense(true, Block(j, 1), DefaultOptions())
	if err != nil {
		panic(err)
	}
	var buf [1]float64
	return ext.Fetch(i, buf[:])[0]
}

// T returns the delayed transpose of the adapted matrix.
func (a *gonumAdapter) T() mat.Matrix {
	return &gonumAdapter{m: NewDelayedTranspose(a.m)}
}

// NewDenseFromGonum copies a gonum matrix into row-major dense storage.
func NewDenseFromGonum(src mat.Matrix) (*Dense[float64, int], error) {
	nr, nc := src.Dims()
	data := make([]float64, nr*nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			data[i*nc+j] = src.At(i, j)
		}
	}
	return NewDenseRowMajor(nr, nc, data)
}
