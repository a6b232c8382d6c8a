// Package tokenizer provides client-side token counting for transcript
// accounting, backed by tiktoken's cl100k_base encoding.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

const encodingName = "cl100k_base"

// Tokenizer counts tokens the way OpenAI-family models do.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer using the cl100k_base encoding.
func New() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &Tokenizer{encoding: enc}, nil
}

// CountTokens returns the token count of a single string.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessagesTokens returns the approximate token count of a message
// sequence, including a small per-message overhead for role framing.
func (t *Tokenizer) CountMessagesTokens(messages []*types.Message) int {
	const perMessageOverhead = 4

	total := 0
	for _, msg := range messages {
		total += t.CountTokens(msg.Content) + perMessageOverhead
	}
	return total
}
