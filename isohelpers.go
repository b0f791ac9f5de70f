package matview

import "fmt"

// isFloat reports whether V carries IEEE semantics.  Integer division
// truncates 1/2 to zero, which is all the discrimination we need.
func isFloat[V Value]() bool {
	return V(1)/V(2) != 0
}

// scalarOp is the shared implementation of position-independent unary
// operations: the transform is a pure function of the element value.
type scalarOp[V Value, I Index] struct {
	sparse bool
	fill   V
	apply  func(V) V
}

func (o *scalarOp[V, I]) IsSparse() bool { return o.sparse }

func (o *scalarOp[V, I]) DependsOnIndex(bool) bool { return false }

func (o *scalarOp[V, I]) Fill(bool, I) V { return o.fill }

func (o *scalarOp[V, I]) Dense(_ bool, _ I, _ Subset[I], _ I, buf []V) {
	for k := range buf {
		buf[k] = o.apply(buf[k])
	}
}

func (o *scalarOp[V, I]) Sparse(_ bool, _ I, vals []V, _ []I) {
	for k := range vals {
		vals[k] = o.apply(vals[k])
	}
}

// NewAddScalarOp adds s to every element.
func NewAddScalarOp[V Value, I Index](s V) UnaryOp[V, I] {
	return &scalarOp[V, I]{sparse: s == 0, fill: s, apply: func(v V) V { return v + s }}
}

// NewSubtractScalarOp subtracts s from every element (right=true) or
// subtracts every element from s (right=false).
func NewSubtractScalarOp[V Value, I Index](s V, right bool) UnaryOp[V, I] {
	if right {
		return &scalarOp[V, I]{sparse: s == 0, fill: 0 - s, apply: func(v V) V { return v - s }}
	}
	return &scalarOp[V, I]{sparse: false, fill: s, apply: func(v V) V { return s - v }}
}

// NewMultiplyScalarOp multiplies every element by s.
func NewMultiplyScalarOp[V Value, I Index](s V) UnaryOp[V, I] {
	return &scalarOp[V, I]{sparse: true, fill: 0, apply: func(v V) V { return v * s }}
}

// NewDivideScalarOp divides every element by s (right=true) or divides s
// by every element (right=false).  Configurations that require IEEE
// behaviour fail on integer value types: dividing by a zero scalar with
// ErrDomain, dividing a scalar by the matrix (whose zeros would need to
// produce Inf) with ErrUnsupported.
func NewDivideScalarOp[V Value, I Index](s V, right bool) (UnaryOp[V, I], error) {
	if right {
		if s == 0 && !isFloat[V]() {
			return nil, fmt.Errorf("%w: division by zero on an integer value type", ErrDomain)
		}
		return &scalarOp[V, I]{sparse: s != 0, fill: 0 / s, apply: func(v V) V { return v / s }}, nil
	}
	if !isFloat[V]() {
		return nil, fmt.Errorf("%w: dividing a scalar by integer matrix elements", ErrUnsupported)
	}
	var zero V
	return &scalarOp[V, I]{sparse: false, fill: s / zero, apply: func(v V) V { return s / v }}, nil
}

// NewAbsOp replaces every element with its absolute value.
func NewAbsOp[V Value, I Index]() UnaryOp[V, I] {
	return &scalarOp[V, I]{sparse: true, fill: 0, apply: func(v V) V {
		if v < 0 {
			return -v
		}
		return v
	}}
}

// Comparison selects the predicate applied by NewCompareScalarOp.
type Comparison int

const (
	CompareEqual Comparison = iota
	CompareNotEqual
	CompareGreater
	CompareGreaterOrEqual
	CompareLess
	CompareLessOrEqual
)

func compareHolds[V Value](c Comparison, a, b V) bool {
	switch c {
	case CompareEqual:
		return a == b
	case CompareNotEqual:
		return a != b
	case CompareGreater:
		return a > b
	case CompareGreaterOrEqual:
		return a >= b
	case CompareLess:
		return a < b
	default:
		return a <= b
	}
}

// NewCompareScalarOp compares every element against s, producing 1 where
// the predicate holds and 0 elsewhere.  The result is sparse exactly when
// zero fails the predicate.
func NewCompareScalarOp[V Value, I Index](cmp Comparison, s V) UnaryOp[V, I] {
	var fill V
	if compareHolds(cmp, V(0), s) {
		fill = 1
	}
	return &scalarOp[V, I]{sparse: fill == 0, fill: fill, apply: func(v V) V {
		if compareHolds(cmp, v, s) {
			return 1
		}
		return 0
	}}
}

// vectorOp adds or multiplies a per-row or per-column vector.
type vectorOp[V Value, I Index] struct {
	vec      []V
	byRow    bool // vec is indexed by row
	multiply bool
}

// NewAddVectorOp adds vec[k] to every element of row k (byRow=true) or
// column k (byRow=false).  len(vec) must match that dimension.
func NewAddVectorOp[V Value, I Index](vec []V, byRow bool) UnaryOp[V, I] {
	return &vectorOp[V, I]{vec: vec, byRow: byRow}
}

// NewMultiplyVectorOp multiplies every element of row/column k by vec[k].
func NewMultiplyVectorOp[V Value, I Index](vec []V, byRow bool) UnaryOp[V, I] {
	return &vectorOp[V, I]{vec: vec, byRow: byRow, multiply: true}
}

func (o *vectorOp[V, I]) IsSparse() bool { return o.multiply }

func (o *vectorOp[V, I]) DependsOnIndex(row bool) bool { return row != o.byRow }

func (o *vectorOp[V, I]) Fill(row bool, i I) V {
	if o.multiply || row != o.byRow {
		return 0
	}
	return o.vec[i]
}

func (o *vectorOp[V, I]) combine(v, w V) V {
	if o.multiply {
		return v * w
	}
	return v + w
}

func (o *vectorOp[V, I]) Dense(row bool, i I, sub Subset[I], extent I, buf []V) {
	if row == o.byRow {
		w := o.vec[i]
		for k := range buf {
			buf[k] = o.combine(buf[k], w)
		}
		return
	}
	for k := range buf {
		buf[k] = o.combine(buf[k], o.vec[sub.At(k, extent)])
	}
}

func (o *vectorOp[V, I]) Sparse(row bool, i I, vals []V, idx []I) {
	if row == o.byRow {
		w := o.vec[i]
		for k := range vals {
			vals[k] = o.combine(vals[k], w)
		}
		return
	}
	for k := range vals {
		vals[k] = o.combine(vals[k], o.vec[idx[k]])
	}
}

// pairOp is the shared implementation of element-wise binary operations.
type pairOp[V Value, I Index] struct {
	sparse bool
	apply  func(a, b V) V
}

// NewAddOp combines two matrices by element-wise addition.
func NewAddOp[V Value, I Index]() BinaryOp[V, I] {
	return &pairOp[V, I]{sparse: true, apply: func(a, b V) V { return a + b }}
}

// NewSubtractOp combines two matrices by element-wise subtraction.
func NewSubtractOp[V Value, I Index]() BinaryOp[V, I] {
	return &pairOp[V, I]{sparse: true, apply: func(a, b V) V { return a - b }}
}

// NewMultiplyOp combines two matrices by element-wise multiplication.
func NewMultiplyOp[V Value, I Index]() BinaryOp[V, I] {
	return &pairOp[V, I]{sparse: true, apply: func(a, b V) V { return a * b }}
}

// NewDivideOp combines two matrices by element-wise division.  Division
// mints Inf/NaN from structural zeros, so it requires an IEEE value type
// and always produces dense output.
func NewDivideOp[V Value, I Index]() (BinaryOp[V, I], error) {
	if !isFloat[V]() {
		return nil, fmt.Errorf("%w: element-wise division on an integer value type", ErrUnsupported)
	}
	return &pairOp[V, I]{sparse: false, apply: func(a, b V) V { return a / b }}, nil
}

func (o *pairOp[V, I]) IsSparse() bool { return o.sparse }

func (o *pairOp[V, I]) Dense(_ bool, _ I, _ Subset[I], _ I, left, right []V) {
	for k := range left {
		left[k] = o.apply(left[k], right[k])
	}
}

func (o *pairOp[V, I]) Sparse(_ bool, _ I, left, right SparseRange[V, I], vbuf []V, ibuf []I) SparseRange[V, I] {
	out := SparseRange[V, I]{}
	l, r := 0, 0
	for l < left.Number || r < right.Number {
		switch {
		case r == right.Number || (l < left.Number && left.Index[l] < right.Index[r]):
			vbuf[out.Number] = o.apply(left.Value[l], 0)
			ibuf[out.Number] = left.Index[l]
			l++
		case l == left.Number || right.Index[r] < left.Index[l]:
			vbuf[out.Number] = o.apply(0, right.Value[r])
			ibuf[out.Number] = right.Index[r]
			r++
		default:
			vbuf[out.Number] = o.apply(left.Value[l], right.Value[r])
			ibuf[out.Number] = left.Index[l]
			l++
			r++
		}
		out.Number++
	}
	out.Value = vbuf[:out.Number]
	out.Index = ibuf[:out.Number]
	return out
}
