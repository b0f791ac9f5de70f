package matview

import "fmt"

// SubsetKind identifies the shape of a Subset descriptor.
type SubsetKind int

const (
	// SubsetFull selects every element of the non-target dimension.
	SubsetFull SubsetKind = iota
	// SubsetBlock selects a contiguous half-open interval.
	SubsetBlock
	// SubsetIndexed selects an explicit ascending list of positions.
	SubsetIndexed
)

// Subset describes which elements of the non-target dimension an extractor
// should materialise.  Construct one with All, Block or Picked.
//
// The index list of a Picked subset is shared, not copied: decorators that
// need to translate indices build new lists and leave the caller's slice
// untouched, so the same Subset may be forwarded through an arbitrarily
// deep decorator chain without duplication.  Callers must not mutate a
// slice after handing it to Picked.
type Subset[I Index] struct {
	kind   SubsetKind
	start  I
	length I
	ids    []I
}

// All selects the full extent of the non-target dimension.
func All[I Index]() Subset[I] {
	return Subset[I]{kind: SubsetFull}
}

// Block selects the contiguous interval [start, start+length).
func Block[I Index](start, length I) Subset[I] {
	return Subset[I]{kind: SubsetBlock, start: start, length: length}
}

// Picked selects the positions in ids, which must be strictly increasing
// and within the extent of the non-target dimension.  The slice is adopted,
// not copied.
func Picked[I Index](ids []I) Subset[I] {
	return Subset[I]{kind: SubsetIndexed, ids: ids}
}

// Kind reports the shape of the subset.
func (s Subset[I]) Kind() SubsetKind { return s.kind }

// Start reports the first selected position of a block subset.
func (s Subset[I]) Start() I { return s.start }

// Indices reports the shared index list of a Picked subset, nil otherwise.
// The returned slice must be treated as immutable.
func (s Subset[I]) Indices() []I { return s.ids }

// Len reports how many elements the subset selects out of the given extent.
func (s Subset[I]) Len(extent I) int {
	switch s.kind {
	case SubsetBlock:
		return int(s.length)
	case SubsetIndexed:
		return len(s.ids)
	default:
		return int(extent)
	}
}

// At resolves the k-th selected position.
func (s Subset[I]) At(k int, extent I) I {
	switch s.kind {
	case SubsetBlock:
		return s.start + I(k)
	case SubsetIndexed:
		return s.ids[k]
	default:
		return I(k)
	}
}

// Bounds reports the half-open interval [first, last) spanned by the
// subset.  For an empty index list both bounds are zero; an empty block
// reports [start, start).
func (s Subset[I]) Bounds(extent I) (first, last I) {
	switch s.kind {
	case SubsetBlock:
		return s.start, s.start + s.length
	case SubsetIndexed:
		if len(s.ids) == 0 {
			return 0, 0
		}
		return s.ids[0], s.ids[len(s.ids)-1] + 1
	default:
		return 0, extent
	}
}

// validate checks the subset against the extent of the dimension it
// applies to.
func (s Subset[I]) validate(extent I) error {
	switch s.kind {
	case SubsetBlock:
		if s.length < 0 || s.start < 0 || int64(s.start)+int64(s.length) > int64(extent) {
			return fmt.Errorf("%w: block [%d, %d) outside extent %d", ErrInvalidArgument, s.start, s.start+s.length, extent)
		}
	case SubsetIndexed:
		for k, id := range s.ids {
			if id < 0 || id >= extent {
				return fmt.Errorf("%w: subset index %d outside extent %d", ErrInvalidArgument, id, extent)
			}
			if k > 0 && s.ids[k-1] >= id {
				return fmt.Errorf("%w: subset indices must be strictly increasing", ErrInvalidArgument)
			}
		}
	}
	return nil
}
