package matview

// forcedDense forwards everything to its child but reports the matrix as
// dense.  Useful when a structurally sparse matrix is dense enough that
// sparsity-aware consumers would only slow themselves down on it.  Sparse
// extraction still works and still returns genuinely sparse ranges.
type forcedDense[V Value, I Index] struct {
	child Matrix[V, I]
}

// NewForcedDense wraps child so that IsSparse reports false and
// SparseProportion reports zero.
func NewForcedDense[V Value, I Index](child Matrix[V, I]) Matrix[V, I] {
	return &forcedDense[V, I]{child: child}
}

func (m *forcedDense[V, I]) NRow() I { return m.child.NRow() }

func (m *forcedDense[V, I]) NCol() I { return m.child.NCol() }

func (m *forcedDense[V, I]) IsSparse() bool { return false }

func (m *forcedDense[V, I]) SparseProportion() float64 { return 0 }

func (m *forcedDense[V, I]) PreferRows() bool { return m.child.PreferRows() }

func (m *forcedDense[V, I]) PreferRowsProportion() float64 { return m.child.PreferRowsProportion() }

func (m *forcedDense[V, I]) UsesOracle(row bool) bool { return m.child.UsesOracle(row) }

func (m *forcedDense[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	return m.child.Dense(row, sub, opt)
}

func (m *forcedDense[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	return m.child.Sparse(row, sub, opt)
}

func (m *forcedDense[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	return m.child.DenseWithOracle(row, oracle, sub, opt)
}

func (m *forcedDense[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	return m.child.SparseWithOracle(row, oracle, sub, opt)
}
