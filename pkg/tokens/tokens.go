// Package tokens counts the tokens a string consumes under a model's
// tokenizer.
//
// Encodings are resolved through tiktoken-go/tokenizer, which ships its
// vocabularies embedded, so counting never touches the network.
package tokens

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// DefaultModel is the completion model the default counter is bound to.
const DefaultModel = "text-davinci-003"

// ErrUnknownModel is returned when no encoding is registered for a model.
var ErrUnknownModel = errors.New("tokens: unknown model")

// ErrSpecialToken is returned when text contains one of the encoding's
// special tokens, such as "<|endoftext|>".
var ErrSpecialToken = errors.New("tokens: text contains a special token")

const endOfText = "<|endoftext|>"

// specialTokens lists the control markers of each encoding. Encodings not
// listed only know endOfText.
var specialTokens = map[string][]string{
	"p50k_edit":   {endOfText, "<|fim_prefix|>", "<|fim_middle|>", "<|fim_suffix|>"},
	"cl100k_base": {endOfText, "<|fim_prefix|>", "<|fim_middle|>", "<|fim_suffix|>", "<|endofprompt|>"},
	"o200k_base":  {endOfText, "<|endofprompt|>"},
}

// contextWindows holds the total (prompt + completion) token budget of the
// models this package knows about.
var contextWindows = map[string]int{
	"text-davinci-003": 4097,
	"text-davinci-002": 4097,
	"code-davinci-002": 8001,
	"gpt-35-turbo":     4096,
	"gpt-3.5-turbo":    4096,
	"gpt-4":            8192,
	"gpt-4-32k":        32768,
	"gpt-4o":           128000,
}

// ContextWindow returns the context window of model, or 0 when unknown.
func ContextWindow(model string) int {
	return contextWindows[model]
}

// Counter tokenizes text with the encoding of a single model.
// It is safe for concurrent use.
type Counter struct {
	model   string
	codec   tokenizer.Codec
	special []string
}

// New returns a Counter for the given model name.
func New(model string) (*Counter, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownModel, model, err)
	}

	special, ok := specialTokens[codec.GetName()]
	if !ok {
		special = []string{endOfText}
	}

	return &Counter{model: model, codec: codec, special: special}, nil
}

// Model returns the model name the counter was built for.
func (c *Counter) Model() string { return c.model }

// Encoding returns the name of the underlying encoding (e.g. "p50k_base").
func (c *Counter) Encoding() string { return c.codec.GetName() }

// Get tokenizes text and returns the token ids together with their count.
// The count is always len(ids); the empty string yields no ids and 0.
// Text containing a special token is rejected with ErrSpecialToken.
func (c *Counter) Get(text string) ([]uint, int, error) {
	if text == "" {
		return []uint{}, 0, nil
	}
	if err := c.checkSpecial(text); err != nil {
		return nil, 0, err
	}

	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return nil, 0, fmt.Errorf("tokens: encode: %w", err)
	}

	return ids, len(ids), nil
}

// Pieces tokenizes text and returns the ids with the text of each token.
func (c *Counter) Pieces(text string) ([]uint, []string, error) {
	if text == "" {
		return []uint{}, []string{}, nil
	}
	if err := c.checkSpecial(text); err != nil {
		return nil, nil, err
	}

	ids, pieces, err := c.codec.Encode(text)
	if err != nil {
		return nil, nil, fmt.Errorf("tokens: encode: %w", err)
	}

	return ids, pieces, nil
}

func (c *Counter) checkSpecial(text string) error {
	for _, tok := range c.special {
		if strings.Contains(text, tok) {
			return fmt.Errorf("%w %q", ErrSpecialToken, tok)
		}
	}
	return nil
}

// Count returns only the number of tokens in text.
func (c *Counter) Count(text string) (int, error) {
	_, n, err := c.Get(text)
	return n, err
}

// Decode maps token ids back to text.
func (c *Counter) Decode(ids []uint) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	text, err := c.codec.Decode(ids)
	if err != nil {
		return "", fmt.Errorf("tokens: decode: %w", err)
	}

	return text, nil
}

// Remaining returns how many tokens are left in the model's context window
// after prompt. It is negative when the prompt alone overflows the window.
// Models with an unknown window report an error.
func (c *Counter) Remaining(prompt string) (int, error) {
	window := ContextWindow(c.model)
	if window == 0 {
		return 0, fmt.Errorf("tokens: no context window known for %q", c.model)
	}

	n, err := c.Count(prompt)
	if err != nil {
		return 0, err
	}

	return window - n, nil
}

var (
	defaultOnce    sync.Once
	defaultCounter *Counter
	defaultErr     error
)

// Default returns the shared counter for DefaultModel, building it on first use.
func Default() (*Counter, error) {
	defaultOnce.Do(func() {
		defaultCounter, defaultErr = New(DefaultModel)
	})
	return defaultCounter, defaultErr
}

// Get tokenizes text with DefaultModel's encoding.
func Get(text string) ([]uint, int, error) {
	c, err := Default()
	if err != nil {
		return nil, 0, err
	}
	return c.Get(text)
}
