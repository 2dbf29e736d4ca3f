package history

import (
	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts prompt tokens. All supported backends are approximated
// with the GPT-4 encoding; when the codec cannot be built, counting degrades
// to a character-based estimate (4 chars per token).
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter builds a counter with the GPT-4 encoding.
func NewTokenCounter() *TokenCounter {
	codec, err := tokenizer.ForModel(tokenizer.GPT4)
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{codec: codec}
}

// Count returns the number of tokens in text.
func (tc *TokenCounter) Count(text string) int {
	if tc.codec == nil {
		return len(text) / 4
	}
	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
