package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// FallbackSystemMessage is the system message sent with every fallback call.
const FallbackSystemMessage = "You are a web scraper. Analyze the provided JSON data sources."

// OpenAIOptions configures NewOpenAIGenerator.
type OpenAIOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIGenerator calls the OpenAI chat completions API.
type OpenAIGenerator struct {
	client openai.Client
}

// NewOpenAIGenerator creates a generator authenticated with apiKey. SDK
// retries are disabled; a failure is reported at once.
func NewOpenAIGenerator(apiKey string, opts OpenAIOptions) *OpenAIGenerator {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &OpenAIGenerator{client: openai.NewClient(reqOpts...)}
}

// Generate implements Generator. The prompt is sent as the user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: modelName,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(FallbackSystemMessage),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return "", errors.New(apiErr.Message)
		}
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}
