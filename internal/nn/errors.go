package nn

import "errors"

var (
	// ErrBadMagic is returned when a model file does not start with "NNWB".
	ErrBadMagic = errors.New("bad model magic")
	// ErrUnsupportedVersion is returned for a model format version other than 1.
	ErrUnsupportedVersion = errors.New("unsupported model version")
	// ErrDimensionMismatch is returned when sizes in a call or file disagree
	// with the network topology.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNotInitialized is returned when an operation needs weights that
	// were never set up.
	ErrNotInitialized = errors.New("network not initialized")
)
