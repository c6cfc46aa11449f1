package backdrop

import (
	"errors"
	"fmt"
)

// ErrAllProvidersExhausted is returned when every rotation provider and the
// bundled fallback image all failed to produce a displayable backdrop.
var ErrAllProvidersExhausted = errors.New("all providers exhausted")

// LoadErrorKind distinguishes the two ways a backdrop fetch can fail.
type LoadErrorKind int

// LoadErrorKind constants
const (
	ErrNetwork LoadErrorKind = iota
	ErrDecode
)

// String returns the string representation of a LoadErrorKind
func (k LoadErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// LoadError wraps a failed backdrop fetch with the URL that failed and
// whether the failure happened on the wire or while decoding the bytes.
type LoadError struct {
	Kind LoadErrorKind
	URL  string
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	return fmt.Sprintf("%s error loading %s: %v", e.Kind, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a LoadError caused by a transport or
// HTTP status failure.
func IsNetworkError(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == ErrNetwork
}

// IsDecodeError reports whether err is a LoadError caused by undecodable
// image bytes.
func IsDecodeError(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Kind == ErrDecode
}
