package matview

import (
	"golang.org/x/exp/constraints"
)

// Value is the constraint satisfied by matrix element types.  Any of the
// built-in integer or floating point types may be used; the choice is made
// once at construction and monomorphised throughout the extractor chain.
type Value interface {
	constraints.Integer | constraints.Float
}

// Index is the constraint satisfied by row/column index types.  Signed and
// unsigned integer types are both supported; storage engines may internally
// use a narrower index type than the one exposed by the Matrix interface
// (see NewDelayedCast).
type Index interface {
	constraints.Integer
}

// SparseRange is a view of the non-zero elements of a single row or column.
// Number reports how many entries are present.  Value and Index are parallel
// slices of length Number holding the non-zero values and their positions
// along the non-target dimension; either may be nil if the extractor was
// configured not to materialise that component (see Options).  The slices
// may alias matrix-owned storage or the caller-supplied buffers and are only
// valid until the next Fetch on the producing extractor.
//
// When the extractor was constructed with Options.OrderedIndex set, Index is
// strictly increasing; otherwise the entries may appear in any order.
type SparseRange[V Value, I Index] struct {
	Number int
	Value  []V
	Index  []I
}

// Options controls the behaviour of sparse extraction.  The zero value
// disables everything, which is rarely what callers want; use
// DefaultOptions as a starting point.  Options are applied at extractor
// construction and are immutable thereafter.
type Options struct {
	// ExtractValue indicates whether the values of the non-zero elements
	// should be materialised in SparseRange.Value.
	ExtractValue bool

	// ExtractIndex indicates whether the indices of the non-zero elements
	// should be materialised in SparseRange.Index.
	ExtractIndex bool

	// OrderedIndex requires the returned indices to be strictly increasing
	// within each fetch.  Disabling it permits faster unsorted paths in
	// decorators that would otherwise have to merge or sort.
	OrderedIndex bool
}

// DefaultOptions returns the Options used by most callers: both components
// materialised, indices ordered.
func DefaultOptions() Options {
	return Options{ExtractValue: true, ExtractIndex: true, OrderedIndex: true}
}

// DenseExtractor is a stateful reader of dense rows or columns.  An
// extractor must not be shared across goroutines; the producing Matrix may
// be, so concurrent consumers each construct their own extractor.
type DenseExtractor[V Value, I Index] interface {
	// Fetch retrieves the selected subset of row/column i.  buf must have
	// length at least the subset size.  The returned slice holds the result
	// and may either be buf itself or a view of matrix-owned memory; it is
	// valid only until the next Fetch on this extractor.
	Fetch(i I, buf []V) []V
}

// SparseExtractor is a stateful reader of sparse rows or columns.
type SparseExtractor[V Value, I Index] interface {
	// Fetch retrieves the non-zero elements of row/column i restricted to
	// the extractor's subset.  vbuf and ibuf must have length at least the
	// subset size when the corresponding Options flag is set; either may be
	// nil when the flag is unset.  The returned range may alias vbuf/ibuf
	// or matrix-owned memory and is valid only until the next Fetch.
	Fetch(i I, vbuf []V, ibuf []I) SparseRange[V, I]
}

// OracularDenseExtractor is a dense reader driven by an Oracle: the k-th
// FetchNext call targets the k-th prediction.  Calling FetchNext more than
// Oracle.Total times is a programming error and panics.
type OracularDenseExtractor[V Value, I Index] interface {
	FetchNext(buf []V) []V
}

// OracularSparseExtractor is the sparse counterpart of
// OracularDenseExtractor.
type OracularSparseExtractor[V Value, I Index] interface {
	FetchNext(vbuf []V, ibuf []I) SparseRange[V, I]
}

// Matrix is the polymorphic two-dimensional array of V values addressed by
// I indices.  Implementations are logically immutable after construction
// and may be freely shared across goroutines; all access happens through
// extractors obtained from the factory methods, each of which is owned by a
// single consumer.
//
// The factory methods validate their inputs (block within bounds, index
// lists strictly increasing and in bounds) and report violations with an
// error wrapping ErrInvalidArgument.  They never mutate the matrix and
// allocate all workspaces up front, so the subsequent fetch loop is free of
// allocation for the concrete storage engines.
type Matrix[V Value, I Index] interface {
	// NRow returns the number of rows.
	NRow() I

	// NCol returns the number of columns.
	NCol() I

	// IsSparse indicates whether the matrix is stored in a sparse format.
	IsSparse() bool

	// SparseProportion reports the proportion of the underlying storage, in
	// [0, 1], that is sparse.  Decorators report a weighted average over
	// their children.
	SparseProportion() float64

	// PreferRows indicates whether row-wise extraction iterates faster than
	// column-wise extraction.  Purely advisory.
	PreferRows() bool

	// PreferRowsProportion reports the proportion of the underlying storage
	// that prefers row-wise extraction.
	PreferRowsProportion() float64

	// UsesOracle reports whether extraction along the given dimension
	// actually consults oracle predictions anywhere in the matrix graph.
	UsesOracle(row bool) bool

	// Dense returns a myopic dense extractor along rows (row=true) or
	// columns (row=false), restricted to the given subset of the other
	// dimension.
	Dense(row bool, sub Subset[I], opt Options) (DenseExtractor[V, I], error)

	// Sparse returns a myopic sparse extractor.
	Sparse(row bool, sub Subset[I], opt Options) (SparseExtractor[V, I], error)

	// DenseWithOracle returns a dense extractor that will be driven by the
	// oracle's predictions.  The oracle must outlive the extractor.
	DenseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularDenseExtractor[V, I], error)

	// SparseWithOracle returns a sparse extractor driven by the oracle.
	SparseWithOracle(row bool, oracle Oracle[I], sub Subset[I], opt Options) (OracularSparseExtractor[V, I], error)
}

// secondaryExtent returns the size of the dimension orthogonal to the
// target one, i.e. the dimension a subset descriptor applies to.
func secondaryExtent[V Value, I Index](m Matrix[V, I], row bool) I {
	if row {
		return m.NCol()
	}
	return m.NRow()
}

// primaryExtent returns the size of the target dimension.
func primaryExtent[V Value, I Index](m Matrix[V, I], row bool) I {
	if row {
		return m.NRow()
	}
	return m.NCol()
}
