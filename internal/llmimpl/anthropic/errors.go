package anthropic

import (
	"context"
	"errors"
	"strings"

	"mediroute/pkg/oracle"
)

// classify maps Anthropic SDK errors to oracle error types. The SDK
// surfaces HTTP status codes in error text, so matching is string-based.
func classify(err error) oracle.ErrorType {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return oracle.ErrorTypeTransient
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "401") || strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "api key"):
		return oracle.ErrorTypeAuth
	case strings.Contains(errStr, "429") || strings.Contains(errStr, "rate") ||
		strings.Contains(errStr, "quota"):
		return oracle.ErrorTypeRateLimit
	case strings.Contains(errStr, "400") || strings.Contains(errStr, "invalid") ||
		strings.Contains(errStr, "too large"):
		return oracle.ErrorTypeBadPrompt
	case strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "529") ||
		strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "eof") || strings.Contains(errStr, "reset"):
		return oracle.ErrorTypeTransient
	}

	return oracle.ErrorTypeUnknown
}
