package oracle

import (
	"context"
	"encoding/json"
	"strings"
)

// StructuredResult reports how a structured call was resolved. Fallback
// results carry the decode failure that triggered them.
type StructuredResult struct {
	// Fallback is true when the model output could not be decoded and the
	// caller's default was used instead.
	Fallback bool
	// ParseErr is the decode failure behind a fallback result.
	ParseErr error
	Usage    Usage
}

// Structured issues a completion constrained to the given schema and decodes
// the model output into T. Transport failures are returned as-is. Decode
// failures are never retried against the model: the caller's fallback value
// is returned instead, with the failure recorded in the result.
func Structured[T any](ctx context.Context, c Client, req Request, rs ResponseSchema, fallback func(raw string, decodeErr error) T) (T, StructuredResult, error) {
	var zero T

	req.ResponseFormat = &rs
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return zero, StructuredResult{}, err
	}

	raw := ExtractJSON(resp.Content)
	if raw == "" {
		perr := WrapError(rs.Name, ErrorTypeEmptyResponse, nil)
		return fallback(resp.Content, perr), StructuredResult{Fallback: true, ParseErr: perr, Usage: resp.Usage}, nil
	}

	var out T
	if uerr := json.Unmarshal([]byte(raw), &out); uerr != nil {
		perr := WrapError(rs.Name, ErrorTypeParse, uerr)
		return fallback(resp.Content, perr), StructuredResult{Fallback: true, ParseErr: perr, Usage: resp.Usage}, nil
	}

	return out, StructuredResult{Usage: resp.Usage}, nil
}

// ExtractJSON strips markdown code fences that some backends wrap around
// JSON output and returns the trimmed payload. Returns "" when no JSON
// object or array is present.
func ExtractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return ""
	}
	return s
}

// SanitizeChoice uppercases and trims raw and returns it when it is one of
// the allowed labels; otherwise it returns fallback. Used to clamp model
// output onto closed enum sets.
func SanitizeChoice(raw string, allowed []string, fallback string) string {
	v := strings.ToUpper(strings.TrimSpace(raw))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}
