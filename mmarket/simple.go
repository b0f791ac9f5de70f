package mmarket

import (
	"bytes"
	"io"

	"github.com/james-bowman/matview"
)

// simpleStore accumulates the raw triplets of a coordinate file.  When
// both dimensions fit in sixteen bits the indices are stored short and the
// resulting matrix is built on uint16 indices behind a delayed cast,
// halving the footprint of the index arrays for the common small-matrix
// case.
type simpleStore[V matview.Value, I matview.Index] struct {
	nrow, ncol uint64
	short      bool

	values []V

	shortRows, shortCols []uint16
	rows, cols           []I
}

func (s *simpleStore[V, I]) SetDim(nr, nc, nlines uint64) error {
	s.nrow, s.ncol = nr, nc
	s.short = nr <= 65535 && nc <= 65535
	s.values = make([]V, nlines)
	if s.short {
		s.shortRows = make([]uint16, nlines)
		s.shortCols = make([]uint16, nlines)
	} else {
		s.rows = make([]I, nlines)
		s.cols = make([]I, nlines)
	}
	return nil
}

func (s *simpleStore[V, I]) AddLine(row, col, value, line uint64) error {
	s.values[line] = V(value)
	if s.short {
		s.shortRows[line] = uint16(row)
		s.shortCols[line] = uint16(col)
	} else {
		s.rows[line] = I(row)
		s.cols[line] = I(col)
	}
	return nil
}

// build compresses the triplets column-major and wraps them as a
// compressed sparse column matrix.
func (s *simpleStore[V, I]) build() (matview.Matrix[V, I], error) {
	if s.short {
		ptr, err := matview.CompressSparseTriplets(int(s.ncol), s.values, s.shortCols, s.shortRows)
		if err != nil {
			return nil, err
		}
		sub, err := matview.NewCSCMatrix(uint16(s.nrow), uint16(s.ncol), s.values, s.shortRows, ptr, false)
		if err != nil {
			return nil, err
		}
		return matview.NewDelayedCast[V, I, V, uint16](sub), nil
	}

	ptr, err := matview.CompressSparseTriplets(int(s.ncol), s.values, s.cols, s.rows)
	if err != nil {
		return nil, err
	}
	return matview.NewCSCMatrix(I(s.nrow), I(s.ncol), s.values, s.rows, ptr, false)
}

// LoadSparseMatrix reads a MatrixMarket coordinate stream and returns it
// as a compressed sparse column matrix.
func LoadSparseMatrix[V matview.Value, I matview.Index](r io.Reader) (matview.Matrix[V, I], error) {
	var store simpleStore[V, I]
	if err := Parse(r, &store); err != nil {
		return nil, err
	}
	return store.build()
}

// LoadSparseMatrixFromFile reads a MatrixMarket coordinate file, plain or
// gzip-compressed, and returns it as a compressed sparse column matrix.
func LoadSparseMatrixFromFile[V matview.Value, I matview.Index](path string, compression Compression, bufSize int) (matview.Matrix[V, I], error) {
	var out matview.Matrix[V, I]
	err := withFile(path, compression, bufSize, func(r io.Reader) error {
		m, err := LoadSparseMatrix[V, I](r)
		out = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadSparseMatrixFromBuffer is the in-memory counterpart of
// LoadSparseMatrixFromFile.
func LoadSparseMatrixFromBuffer[V matview.Value, I matview.Index](buf []byte, compression Compression, bufSize int) (matview.Matrix[V, I], error) {
	r, err := decompress(bytes.NewReader(buf), compression, bufSize)
	if err != nil {
		return nil, err
	}
	return LoadSparseMatrix[V, I](r)
}

// ExtractHeaderFromFile parses only the preamble of a MatrixMarket file.
func ExtractHeaderFromFile(path string, compression Compression, bufSize int) (Header, error) {
	var h Header
	err := withFile(path, compression, bufSize, func(r io.Reader) error {
		var herr error
		h, herr = ExtractHeader(r)
		return herr
	})
	return h, err
}

// ExtractHeaderFromBuffer parses only the preamble of an in-memory
// MatrixMarket document.
func ExtractHeaderFromBuffer(buf []byte, compression Compression, bufSize int) (Header, error) {
	r, err := decompress(bytes.NewReader(buf), compression, bufSize)
	if err != nil {
		return Header{}, err
	}
	return ExtractHeader(r)
}
