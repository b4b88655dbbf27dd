package llm

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"google.golang.org/genai"

	"github.com/nao1215/scrapesynth/internal/model"
)

// generateAction is the capability a model must list to be usable.
const generateAction = "generateContent"

// ProbePrompt is the prompt sent by Probe.
const ProbePrompt = "Hello"

// GeminiOptions configures NewGeminiGenerator.
type GeminiOptions struct {
	// BaseURL overrides the API endpoint, e.g. for a proxy or tests.
	BaseURL string

	HTTPClient *http.Client
}

// GeminiGenerator calls the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator creates a generator authenticated with apiKey.
func NewGeminiGenerator(ctx context.Context, apiKey string, opts GeminiOptions) (*GeminiGenerator, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: client}, nil
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", apiMessage(err)
	}
	return firstCandidateText(resp), nil
}

// firstCandidateText joins the text parts of the first candidate.
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// apiMessage reduces a Gemini API error to its server message.
func apiMessage(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return err
}

// ModelInfo describes a model available to the credential.
type ModelInfo struct {
	// Name is the model identifier without the "models/" prefix.
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// ListModels returns the models that support content generation.
func (g *GeminiGenerator) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var out []ModelInfo
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, apiMessage(err)
		}
		if m == nil || !slices.Contains(m.SupportedActions, generateAction) {
			continue
		}
		out = append(out, ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}
	return out, nil
}

// Probe sends ProbePrompt to each model in turn and reports every attempt,
// failed or not.
func Probe(ctx context.Context, gen Generator, models []string, opts ...Option) []model.ModelAttempt {
	inv := newInvoker(gen, opts)
	attempts := make([]model.ModelAttempt, 0, len(models))
	for _, m := range models {
		a, _ := inv.attempt(ctx, m, ProbePrompt) //nolint:errcheck // recorded in the attempt
		attempts = append(attempts, a)
	}
	return attempts
}
