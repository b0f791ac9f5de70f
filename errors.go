package matview

import "errors"

var (
	// ErrInvalidArgument indicates a construction-time violation: malformed
	// compressed or fragmented sparse inputs, inconsistent dimensions when
	// binding, an out-of-bounds subset block, an index list that is not
	// strictly increasing or is out of bounds, or a negative value fed to
	// the layered-sparse classifier.
	ErrInvalidArgument = errors.New("matview: invalid argument")

	// ErrUnsupported indicates a configuration the library cannot honour,
	// such as an arithmetic operation requiring IEEE semantics on an
	// integer value type.
	ErrUnsupported = errors.New("matview: unsupported configuration")

	// ErrDomain indicates an arithmetic helper was asked for a result that
	// would require IEEE behaviour (Inf/NaN) on a type that lacks it.
	ErrDomain = errors.New("matview: domain error")
)
