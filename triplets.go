package matview

import (
	"fmt"
	"sort"
)

// tripletView presents a (values, primary, secondary) triplet stream to
// the sort package, keeping the three slices aligned through swaps.
type tripletView[V Value, I Index] struct {
	values    []V
	primary   []I
	secondary []I
}

func (t *tripletView[V, I]) Len() int { return len(t.values) }

func (t *tripletView[V, I]) Less(i, j int) bool {
	if t.primary[i] != t.primary[j] {
		return t.primary[i] < t.primary[j]
	}
	return t.secondary[i] < t.secondary[j]
}

func (t *tripletView[V, I]) Swap(i, j int) {
	t.values[i], t.values[j] = t.values[j], t.values[i]
	t.primary[i], t.primary[j] = t.primary[j], t.primary[i]
	t.secondary[i], t.secondary[j] = t.secondary[j], t.secondary[i]
}

// CompressSparseTriplets sorts a triplet stream in place by (primary,
// secondary) index and returns the pointer vector of the resulting
// compressed layout, with length nPrimary+1.  Feeding the row-major
// triplets of a matrix produces CSR inputs; feeding column-major triplets
// produces CSC inputs.  Any permutation of the same stream compresses to
// the identical (values, indices, pointers) triple.
func CompressSparseTriplets[V Value, I Index](nPrimary int, values []V, primary, secondary []I) ([]int, error) {
	n := len(values)
	if len(primary) != n || len(secondary) != n {
		return nil, fmt.Errorf("%w: values, primary and secondary should have the same length", ErrInvalidArgument)
	}
	for _, p := range primary {
		if p < 0 || int(p) >= nPrimary {
			return nil, fmt.Errorf("%w: primary index %d outside extent %d", ErrInvalidArgument, p, nPrimary)
		}
	}

	view := &tripletView[V, I]{values: values, primary: primary, secondary: secondary}

	// A stream that is already grouped by primary index only needs its
	// runs ordered, which is the common case for parser output.
	grouped := true
	for i := 1; i < n; i++ {
		if primary[i-1] > primary[i] {
			grouped = false
			break
		}
	}
	if grouped {
		start := 0
		for start < n {
			end := start + 1
			for end < n && primary[end] == primary[start] {
				end++
			}
			run := &tripletView[V, I]{values: values[start:end], primary: primary[start:end], secondary: secondary[start:end]}
			if !sort.IsSorted(run) {
				sort.Sort(run)
			}
			start = end
		}
	} else {
		sort.Sort(view)
	}

	pointers := make([]int, nPrimary+1)
	for _, p := range primary {
		pointers[p+1]++
	}
	for i := 1; i <= nPrimary; i++ {
		pointers[i] += pointers[i-1]
	}
	return pointers, nil
}
