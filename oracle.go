package matview

// Oracle predicts a finite sequence of upcoming accesses along the target
// dimension, letting implementations prefetch.  Oracles are read-only and
// may be shared between extractors; the consumption cursor lives inside
// each extractor.
type Oracle[I Index] interface {
	// Total returns the number of predictions.
	Total() int

	// Get returns the k-th prediction, for k in [0, Total()).
	Get(k int) I
}

// ConsecutiveOracle predicts accesses to the contiguous run
// [start, start+length).
type ConsecutiveOracle[I Index] struct {
	start  I
	length I
}

// NewConsecutiveOracle returns an oracle predicting [start, start+length).
func NewConsecutiveOracle[I Index](start, length I) *ConsecutiveOracle[I] {
	return &ConsecutiveOracle[I]{start: start, length: length}
}

// Total returns the run length.
func (o *ConsecutiveOracle[I]) Total() int { return int(o.length) }

// Get returns start + k.
func (o *ConsecutiveOracle[I]) Get(k int) I { return o.start + I(k) }

// FixedOracle predicts accesses from a fixed sequence of indices.
type FixedOracle[I Index] struct {
	ids []I
}

// NewFixedOracle returns an oracle over the given prediction sequence.  The
// slice is adopted, not copied, and must not be mutated afterwards.
func NewFixedOracle[I Index](ids []I) *FixedOracle[I] {
	return &FixedOracle[I]{ids: ids}
}

// Total returns the sequence length.
func (o *FixedOracle[I]) Total() int { return len(o.ids) }

// Get returns the k-th prediction.
func (o *FixedOracle[I]) Get(k int) I { return o.ids[k] }

// oracleCursor tracks how many predictions an extractor has consumed.
// Advancing past Total is a programming error and panics, which doubles as
// the debug-build ordering check demanded of oracular extractors.
type oracleCursor[I Index] struct {
	oracle Oracle[I]
	used   int
}

func (c *oracleCursor[I]) next() I {
	if c.used >= c.oracle.Total() {
		panic("matview: oracular extractor exhausted its predictions")
	}
	i := c.oracle.Get(c.used)
	c.used++
	return i
}

// myopicDenseOracular drives a myopic dense extractor from an oracle.  It
// is the standard oracular implementation for matrices whose UsesOracle
// reports false: the predictions are consumed purely to preserve the k-th
// call / k-th prediction contract.
type myopicDenseOracular[V Value, I Index] struct {
	inner  DenseExtractor[V, I]
	cursor oracleCursor[I]
}

func newMyopicDenseOracular[V Value, I Index](inner DenseExtractor[V, I], oracle Oracle[I]) *myopicDenseOracular[V, I] {
	return &myopicDenseOracular[V, I]{inner: inner, cursor: oracleCursor[I]{oracle: oracle}}
}

func (e *myopicDenseOracular[V, I]) FetchNext(buf []V) []V {
	return e.inner.Fetch(e.cursor.next(), buf)
}

// myopicSparseOracular is the sparse counterpart of myopicDenseOracular.
type myopicSparseOracular[V Value, I Index] struct {
	inner  SparseExtractor[V, I]
	cursor oracleCursor[I]
}

func newMyopicSparseOracular[V Value, I Index](inner SparseExtractor[V, I], oracle Oracle[I]) *myopicSparseOracular[V, I] {
	return &myopicSparseOracular[V, I]{inner: inner, cursor: oracleCursor[I]{oracle: oracle}}
}

func (e *myopicSparseOracular[V, I]) FetchNext(vbuf []V, ibuf []I) SparseRange[V, I] {
	return e.inner.Fetch(e.cursor.next(), vbuf, ibuf)
}

// NewConsecutiveDenseExtractor is a convenience for the common pattern of
// walking every row or column in order: it attaches a ConsecutiveOracle
// over [start, start+length) so that oracle-aware matrices can prefetch.
func NewConsecutiveDenseExtractor[V Value, I Index](m Matrix[V, I], row bool, start, length I, sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error) {
	return m.DenseWithOracle(row, NewConsecutiveOracle(start, length), sub, opt)
}

// NewConsecutiveSparseExtractor is the sparse counterpart of
// NewConsecutiveDenseExtractor.
func NewConsecutiveSparseExtractor[V Value, I Index](m Matrix[V, I], row bool, start, length I, sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error) {
	return m.SparseWithOracle(row, NewConsecutiveOracle(start, length), sub, opt)
}
