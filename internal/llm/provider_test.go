package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeGemini serves generateContent for the models in replies and 404 for
// everything else.
func fakeGemini(t *testing.T, replies map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/models") {
			_, _ = io.WriteString(w, `{"models":[`+
				`{"name":"models/gemini-2.5-flash","displayName":"Gemini 2.5 Flash","supportedGenerationMethods":["generateContent","countTokens"]},`+
				`{"name":"models/text-embedding-004","supportedGenerationMethods":["embedContent"]}]}`)
			return
		}

		for name, text := range replies {
			if strings.Contains(r.URL.Path, "/models/"+name+":generateContent") {
				body, _ := json.Marshal(map[string]any{ //nolint:errcheck
					"candidates": []any{map[string]any{
						"content": map[string]any{
							"role":  "model",
							"parts": []any{map[string]any{"text": text}},
						},
					}},
				})
				_, _ = w.Write(body)
				return
			}
		}

		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"model is not found","status":"NOT_FOUND"}}`)
	}))
}

func TestNewProvider_Gemini(t *testing.T) {
	t.Parallel()

	srv := fakeGemini(t, map[string]string{"gemini-1.5-flash-latest": "from gemini"})
	defer srv.Close()

	p, err := NewProvider(context.Background(), "AIzaTestKey", Options{
		PrimaryModels: []string{"gemini-2.5-flash", "gemini-1.5-flash-latest", "gemini-2.0-flash-exp"},
		GeminiBaseURL: srv.URL + "/",
		HTTPClient:    srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind() != KindPrimary {
		t.Fatalf("expected primary provider, got %v", p.Kind())
	}

	res, err := p.Invoke(context.Background(), "doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "from gemini" || res.Model != "gemini-1.5-flash-latest" || len(res.Attempts) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Attempts[0].Reason, "model is not found") {
		t.Errorf("expected server message in reason, got %q", res.Attempts[0].Reason)
	}
}

func TestNewProvider_GeminiExhausted(t *testing.T) {
	t.Parallel()

	srv := fakeGemini(t, nil)
	defer srv.Close()

	p, err := NewProvider(context.Background(), "AIzaTestKey", Options{
		PrimaryModels: []string{"a", "b"},
		GeminiBaseURL: srv.URL + "/",
		HTTPClient:    srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Invoke(context.Background(), "doc")
	if !errors.Is(err, ErrAllModelsExhausted) {
		t.Fatalf("expected ErrAllModelsExhausted, got %v", err)
	}
	if !strings.Contains(err.Error(), "b: model is not found") {
		t.Errorf("expected last model's failure, got %q", err.Error())
	}
}

func TestGeminiGenerator_ListModels(t *testing.T) {
	t.Parallel()

	srv := fakeGemini(t, nil)
	defer srv.Close()

	gen, err := NewGeminiGenerator(context.Background(), "AIzaTestKey", GeminiOptions{
		BaseURL:    srv.URL + "/",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	models, err := gen.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 1 || models[0].Name != "gemini-2.5-flash" || models[0].DisplayName != "Gemini 2.5 Flash" {
		t.Errorf("unexpected models %+v", models)
	}
}

func TestNewProvider_OpenAI(t *testing.T) {
	t.Parallel()

	var gotModel, gotSystem, gotUser, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		gotModel = body.Model
		for _, m := range body.Messages {
			switch m.Role {
			case "system":
				gotSystem = m.Content
			case "user":
				gotUser = m.Content
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"from openai"}}]}`)
	}))
	defer srv.Close()

	p, err := NewProvider(context.Background(), "sk-test", Options{
		FallbackModel: "gpt-4o-mini",
		OpenAIBaseURL: srv.URL + "/v1/",
		HTTPClient:    srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind() != KindFallback {
		t.Fatalf("expected fallback provider, got %v", p.Kind())
	}

	res, err := p.Invoke(context.Background(), "composed document")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "from openai" || res.Model != "gpt-4o-mini" {
		t.Errorf("unexpected result %+v", res)
	}
	if gotModel != "gpt-4o-mini" || gotSystem != FallbackSystemMessage || gotUser != "composed document" {
		t.Errorf("unexpected request model=%q system=%q user=%q", gotModel, gotSystem, gotUser)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("unexpected authorization %q", gotAuth)
	}
}

func TestNewProvider_OpenAIFailure(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","param":null,"code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	p, err := NewProvider(context.Background(), "sk-bad", Options{
		FallbackModel: "gpt-4o-mini",
		OpenAIBaseURL: srv.URL + "/v1/",
		HTTPClient:    srv.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Invoke(context.Background(), "doc")
	if !errors.Is(err, ErrFallbackProvider) {
		t.Fatalf("expected ErrFallbackProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("expected provider message, got %q", err.Error())
	}
	if calls != 1 {
		t.Errorf("expected exactly one request, got %d", calls)
	}
}
