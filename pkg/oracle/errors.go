package oracle

import (
	"errors"
	"fmt"
)

// ErrorType classifies model-call failures for logging and metrics.
type ErrorType int8

const (
	// ErrorTypeUnknown is the default for unclassified errors.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuth represents authentication errors (401/403, bad API key).
	ErrorTypeAuth
	// ErrorTypeRateLimit represents rate limiting errors (429, quota exceeded).
	ErrorTypeRateLimit
	// ErrorTypeTransient represents transient errors (5xx, EOF, connection reset, timeout).
	ErrorTypeTransient
	// ErrorTypeBadPrompt represents malformed request errors (too long, violates policy).
	ErrorTypeBadPrompt
	// ErrorTypeEmptyResponse represents HTTP 200 but no content errors.
	ErrorTypeEmptyResponse
	// ErrorTypeParse represents structured output that failed schema decoding.
	ErrorTypeParse
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeParse:
		return "parse"
	case ErrorTypeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Error wraps an underlying failure with a classification and the
// operation that produced it.
type Error struct {
	Err  error
	Op   string
	Type ErrorType
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oracle %s: %s", e.Op, e.Type)
	}
	return fmt.Sprintf("oracle %s: %s: %v", e.Op, e.Type, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError classifies err under the given operation name.
func WrapError(op string, typ ErrorType, err error) *Error {
	return &Error{Op: op, Type: typ, Err: err}
}

// TypeOf extracts the classification from err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Type
	}
	return ErrorTypeUnknown
}
