package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/scrapesynth/internal/model"
)

// PrimaryKeyPrefix marks credentials for the primary provider.
const PrimaryKeyPrefix = "AIza"

// Kind identifies a provider.
type Kind int

const (
	// KindPrimary is the Gemini cascade.
	KindPrimary Kind = iota
	// KindFallback is the single-model OpenAI call.
	KindFallback
)

// String returns the provider name.
func (k Kind) String() string {
	switch k {
	case KindPrimary:
		return "gemini"
	case KindFallback:
		return "openai"
	default:
		return "unknown"
	}
}

// SelectProvider picks the provider for credential.
func SelectProvider(credential string) Kind {
	if strings.HasPrefix(credential, PrimaryKeyPrefix) {
		return KindPrimary
	}
	return KindFallback
}

// Generator produces text from a single model.
type Generator interface {
	Generate(ctx context.Context, modelName, prompt string) (string, error)
}

// Result is a successful invocation.
type Result struct {
	// Text is the first non-empty reply.
	Text string

	// Model is the model that produced Text.
	Model string

	// Provider is the provider that was used.
	Provider Kind

	// Attempts lists every call made, in order; the last one succeeded.
	Attempts []model.ModelAttempt
}

// Provider invokes a model with an instruction document.
type Provider interface {
	Kind() Kind
	Invoke(ctx context.Context, document string) (Result, error)
}

// Options configures NewProvider.
type Options struct {
	// PrimaryModels is the cascade order for the primary provider.
	PrimaryModels []string

	// FallbackModel is the only model of the fallback provider.
	FallbackModel string

	// GeminiBaseURL and OpenAIBaseURL override the SDK endpoints when set.
	GeminiBaseURL string
	OpenAIBaseURL string

	// HTTPClient is used by both SDKs. Nil means the SDK default.
	HTTPClient *http.Client

	// AttemptTimeout bounds each model call. Zero means no limit.
	AttemptTimeout time.Duration

	Logger *slog.Logger
}

// NewProvider builds the provider selected by the credential's shape.
func NewProvider(ctx context.Context, credential string, opts Options) (Provider, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	switch SelectProvider(credential) {
	case KindPrimary:
		gen, err := NewGeminiGenerator(ctx, credential, GeminiOptions{
			BaseURL:    opts.GeminiBaseURL,
			HTTPClient: opts.HTTPClient,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return NewCascade(gen, opts.PrimaryModels,
			WithAttemptTimeout(opts.AttemptTimeout),
			WithLogger(opts.Logger),
		)
	default:
		gen := NewOpenAIGenerator(credential, OpenAIOptions{
			BaseURL:    opts.OpenAIBaseURL,
			HTTPClient: opts.HTTPClient,
		})
		return NewFallback(gen, opts.FallbackModel,
			WithAttemptTimeout(opts.AttemptTimeout),
			WithLogger(opts.Logger),
		), nil
	}
}
