package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/scrapesynth/internal/model"
)

// Option configures a Cascade or Fallback.
type Option func(*invoker)

// WithAttemptTimeout bounds each model call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(i *invoker) { i.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// invoker holds what Cascade and Fallback share.
type invoker struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

func newInvoker(gen Generator, opts []Option) invoker {
	i := invoker{gen: gen, logger: slog.Default()}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

// attempt makes one call and records it. Whitespace-only text counts as
// empty.
func (i *invoker) attempt(ctx context.Context, modelName, document string) (model.ModelAttempt, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := i.gen.Generate(ctx, modelName, document)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}

	a := model.ModelAttempt{Model: modelName, Elapsed: time.Since(start)}
	if err != nil {
		err = &AttemptError{Model: modelName, Err: err}
		a.Reason = err.Error()
		return a, err
	}
	a.OK = true
	a.Text = text
	return a, nil
}

// Cascade tries models in order until one returns text.
type Cascade struct {
	invoker
	models []string
}

// NewCascade creates a Cascade over models, most preferred first.
func NewCascade(gen Generator, models []string, opts ...Option) (*Cascade, error) {
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	return &Cascade{
		invoker: newInvoker(gen, opts),
		models:  append([]string(nil), models...),
	}, nil
}

// Kind implements Provider.
func (c *Cascade) Kind() Kind {
	return KindPrimary
}

// Models returns the cascade order.
func (c *Cascade) Models() []string {
	return append([]string(nil), c.models...)
}

// Invoke implements Provider. A failed model advances to the next one; when
// all fail the *ExhaustedError carries the last failure. A cancelled context
// stops the cascade early.
func (c *Cascade) Invoke(ctx context.Context, document string) (Result, error) {
	attempts := make([]model.ModelAttempt, 0, len(c.models))
	var lastErr error

	for _, m := range c.models {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		c.logger.Debug("calling model", "provider", KindPrimary, "model", m)
		a, err := c.attempt(ctx, m, document)
		attempts = append(attempts, a)
		if err != nil {
			c.logger.Warn("model failed, trying next", "model", m, "error", err)
			lastErr = err
			continue
		}

		return Result{Text: a.Text, Model: m, Provider: KindPrimary, Attempts: attempts}, nil
	}

	return Result{Attempts: attempts}, &ExhaustedError{Attempts: attempts, LastErr: lastErr}
}

// Fallback calls a single model once.
type Fallback struct {
	invoker
	model string
}

// NewFallback creates a Fallback for modelName.
func NewFallback(gen Generator, modelName string, opts ...Option) *Fallback {
	return &Fallback{invoker: newInvoker(gen, opts), model: modelName}
}

// Kind implements Provider.
func (f *Fallback) Kind() Kind {
	return KindFallback
}

// Invoke implements Provider. Any failure is final.
func (f *Fallback) Invoke(ctx context.Context, document string) (Result, error) {
	f.logger.Debug("calling model", "provider", KindFallback, "model", f.model)
	a, err := f.attempt(ctx, f.model, document)
	attempts := []model.ModelAttempt{a}
	if err != nil {
		return Result{Attempts: attempts}, fmt.Errorf("%w: %w", ErrFallbackProvider, err)
	}
	return Result{Text: a.Text, Model: f.model, Provider: KindFallback, Attempts: attempts}, nil
}
