package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates token counts for a given model. The same counter
// is used for history budget trimming and usage reporting so both see
// identical numbers.
type TokenCounter interface {
	Count(text string, model string) int
}

// TiktokenCounter counts tokens with tiktoken encodings, falling back to
// cl100k_base for models tiktoken does not know.
type TiktokenCounter struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
}

func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{
		encoders: make(map[string]*tiktoken.Tiktoken),
	}
}

func (c *TiktokenCounter) Count(text string, model string) int {
	enc := c.encoderFor(model)
	if enc == nil {
		// Offline fallback: rough 4 chars per token heuristic
		return approxTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *TiktokenCounter) encoderFor(model string) *tiktoken.Tiktoken {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encoders[model]; ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			c.encoders[model] = nil
			return nil
		}
	}
	c.encoders[model] = enc
	return enc
}

func approxTokens(text string) int {
	n := len(text) / 4
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}
