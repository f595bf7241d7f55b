package expt

import "errors"

// Error taxonomy. All operations fail synchronously with one of these
// sentinels (wrapped with context); callers match with errors.Is. Non
// in-place calls leave the receiver untouched on error.
var (
	// ErrUnsupportedFormat reports an unknown file-format tag.
	ErrUnsupportedFormat = errors.New("expt: unsupported format")

	// ErrAmbiguousFormat reports that identifier-separator auto-detection
	// found no known separator.
	ErrAmbiguousFormat = errors.New("expt: ambiguous identifier format")

	// ErrInvalidParameter reports a parameter outside its domain, such as a
	// non-positive normalization total or an over-large downsample request.
	ErrInvalidParameter = errors.New("expt: invalid parameter")

	// ErrUnknownAxis reports an unrecognized axis token.
	ErrUnknownAxis = errors.New("expt: unknown axis")
)
