package matview

// delayedTranspose swaps the roles of rows and columns on every forwarded
// call.  Nothing else changes: extractors come straight from the child with
// the row flag inverted.
type delayedTranspose[V Value, I Index] struct {
	child Matrix[V, I]
}

// NewDelayedTranspose returns a delayed transposition of child.  Wrapping a
// transposed matrix unwraps it instead of stacking a second decorator.
func NewDelayedTranspose[V Value, I Index](child Matrix[V, I]) Matrix[V, I] {
	if t, ok := child.(*delayedTranspose[V, I]); ok {
		return t.child
	}
	return &delayedTranspose[V, I]{child: child}
}

func (m *delayedTranspose[V, I]) NRow() I { return m.child.NCol() }

func (m *delayedTranspose[V, I]) NCol() I { return m.child.NRow() }

func (m *delayedTranspose[V, I]) IsSparse() bool { return m.child.IsSparse() }

func (m *delayedTranspose[V, I]) SparseProportion() float64 { return m.child.SparseProportion() }

func (m *delayedTranspose[V, I]) PreferRows() bool { return !m.child.PreferRows() }

func (m *delayedTranspose[V, I]) PreferRowsProportion() float64 {
	return 1 - m.child.PreferRowsProportion()
}

func (m *delayedTranspose[V, I]) UsesOracle(row bool) bool { return m.child.UsesOracle(!row) }

func (m *delayedTranspose[V, I]) Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error) {
	return m.child.Dense(!row, sub, opt)
}

func (m *delayedTranspose[V, I]) Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error) {
	return m.child.Sparse(!row, sub, opt)
}

func (m *delayedTranspose[V, I]) DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	return m.child.DenseWithOracle(!row, oracle, sub, opt)
}

func (m *delayedTranspose[V, I]) SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	return m.child.SparseWithOracle(!row, oracle, sub, opt)
}
