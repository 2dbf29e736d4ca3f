package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"

	"mediroute/pkg/oracle"
)

// classify maps OpenAI SDK errors to oracle error types.
func classify(err error) oracle.ErrorType {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return oracle.ErrorTypeTransient
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403:
			return oracle.ErrorTypeAuth
		case 429:
			return oracle.ErrorTypeRateLimit
		case 400, 413, 422:
			return oracle.ErrorTypeBadPrompt
		case 500, 502, 503, 504:
			return oracle.ErrorTypeTransient
		}
	}

	return oracle.ErrorTypeUnknown
}
