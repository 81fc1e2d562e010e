package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/germanamz/azllm/pkg/modeladapter"
	"github.com/germanamz/azllm/pkg/modeladapter/usage"
	"github.com/germanamz/azllm/pkg/tokens"
)

// Engine binds a completion client and a token counter to one deployment.
// It is read-only after New and safe for concurrent use as long as its
// Completer is.
type Engine struct {
	cfg       Config
	completer modeladapter.Completer
	counter   *tokens.Counter
	log       *slog.Logger
}

// Option customizes New.
type Option func(*Engine)

// WithCompleter replaces the provider-built completer, e.g. with a mock.
func WithCompleter(c modeladapter.Completer) Option {
	return func(e *Engine) { e.completer = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New validates cfg, builds the completer for cfg.Kind and the token counter
// for cfg.Model. Missing credentials fail here rather than on first use.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, o := range opts {
		o(e)
	}

	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	counter, err := tokens.New(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.counter = counter

	if e.completer == nil {
		c, err := buildCompleter(cfg)
		if err != nil {
			return nil, fmt.Errorf("engine: provider %q: %w", cfg.Kind, err)
		}
		e.completer = c
	}

	e.log.Debug("engine ready",
		"kind", cfg.Kind,
		"deployment", cfg.DeploymentName,
		"model", cfg.Model,
		"encoding", counter.Encoding(),
	)

	return e, nil
}

// Config returns the validated configuration the engine was built from.
func (e *Engine) Config() Config { return e.cfg }

// Completer returns the completion client.
func (e *Engine) Completer() modeladapter.Completer { return e.completer }

// Tokens returns the token counter for the configured model.
func (e *Engine) Tokens() *tokens.Counter { return e.counter }

// Usage returns the tokens consumed by every completion made through the
// engine's completer so far. The bool is false when the completer does not
// track usage.
func (e *Engine) Usage() (usage.TokenCount, bool) {
	r, ok := e.completer.(modeladapter.UsageReporter)
	if !ok {
		return usage.TokenCount{}, false
	}
	return r.UsageTracker().Total(), true
}

// CountTokens tokenizes text with the configured model's encoding and
// returns the ids with their count.
func (e *Engine) CountTokens(text string) ([]uint, int, error) {
	return e.counter.Get(text)
}

// Complete sends prompt through the completer and logs the call.
func (e *Engine) Complete(ctx context.Context, prompt string) (modeladapter.Completion, error) {
	promptTokens, err := e.counter.Count(prompt)
	if err != nil {
		return modeladapter.Completion{}, fmt.Errorf("engine: %w", err)
	}

	e.log.InfoContext(ctx, "completion started",
		"deployment", e.cfg.DeploymentName,
		"prompt_tokens", promptTokens,
	)

	start := time.Now()
	out, err := e.completer.Complete(ctx, prompt)
	duration := time.Since(start)

	if err != nil {
		e.log.ErrorContext(ctx, "completion finished with error",
			"deployment", e.cfg.DeploymentName,
			"duration", duration,
			"error", err,
		)
		return out, err
	}

	attrs := []any{
		"deployment", e.cfg.DeploymentName,
		"duration", duration,
		"finish_reason", out.FinishReason,
		"completion_tokens", out.Usage.CompletionTokens,
	}
	if total, ok := e.Usage(); ok {
		attrs = append(attrs, "total_tokens", total.Total())
	}
	e.log.InfoContext(ctx, "completion finished", attrs...)

	return out, nil
}
