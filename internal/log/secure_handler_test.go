package log

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestSecureHandler_MasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "api_key", key: "api_key", value: "plain-value-1", wantMask: true},
		{name: "mixed case Authorization", key: "Authorization", value: "plain-value-2", wantMask: true},
		{name: "goog header", key: "x-goog-api-key", value: "plain-value-3", wantMask: true},
		{name: "cookie", key: "cookie", value: "session=abc", wantMask: true},
		{name: "bare key", key: "key", value: "plain-value-4", wantMask: true},
		{name: "credential keyword", key: "provider_credential", value: "plain-value-5", wantMask: true},
		{name: "url is kept", key: "url", value: "https://example.com/page", wantMask: false},
		{name: "model is kept", key: "model", value: "gemini-2.5-flash", wantMask: false},
		{name: "primary_key is kept", key: "primary_key", value: "row-7", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := New(&buf, Options{Verbose: true})
			logger.Info("test message", tt.key, tt.value)

			output := buf.String()
			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected %q to be masked: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask in output: %s", output)
				}
				return
			}
			if !strings.Contains(output, tt.value) {
				t.Errorf("expected %q in output: %s", tt.value, output)
			}
		})
	}
}

func TestSecureHandler_MasksSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "google key", value: "AIzaSyA1234567890abcdefghij"},
		{name: "openai key", value: "sk-proj-abcdefghijklmnop"},
		{name: "bearer header", value: "Bearer abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := New(&buf, Options{Verbose: true})
			logger.Info("test", "value", tt.value)

			if strings.Contains(buf.String(), tt.value) {
				t.Errorf("expected value to be masked: %s", buf.String())
			}
		})
	}
}

func TestSecureHandler_ScrubsEmbeddedSecrets(t *testing.T) {
	t.Parallel()

	t.Run("query parameter in url", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := New(&buf, Options{Verbose: true})
		logger.Info("request", "endpoint", "https://api.example.com/v1?alt=json&key=topsecret")

		out := buf.String()
		if strings.Contains(out, "topsecret") {
			t.Errorf("query key leaked: %s", out)
		}
		if !strings.Contains(out, "alt=json") {
			t.Errorf("non-secret query parameters should be kept: %s", out)
		}
	})

	t.Run("key inside error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := New(&buf, Options{Verbose: true})
		err := fmt.Errorf("call failed: %w", errors.New("invalid key AIzaSyZZZZZZZZZZZZZZZZZZ"))
		logger.Warn("model failed", "error", err)

		out := buf.String()
		if strings.Contains(out, "AIzaSyZZZZZZZZZZZZZZZZZZ") {
			t.Errorf("key inside error leaked: %s", out)
		}
		if !strings.Contains(out, "call failed") {
			t.Errorf("error message should be kept: %s", out)
		}
	})

	t.Run("key inside message", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := New(&buf, Options{Verbose: true})
		logger.Info("using sk-abcdefghijklmnopqrst now")

		if strings.Contains(buf.String(), "sk-abcdefghijklmnopqrst") {
			t.Errorf("key inside message leaked: %s", buf.String())
		}
	})
}

func TestSecureHandler_Levels(t *testing.T) {
	t.Parallel()

	t.Run("quiet logger drops info", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(&buf, Options{}).Info("hidden")
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %s", buf.String())
		}
	})

	t.Run("quiet logger keeps warn", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(&buf, Options{}).Warn("shown")
		if !strings.Contains(buf.String(), "shown") {
			t.Errorf("expected warn output, got %s", buf.String())
		}
	})

	t.Run("verbose logger keeps debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		New(&buf, Options{Verbose: true}).Debug("debugging")
		if !strings.Contains(buf.String(), "debugging") {
			t.Errorf("expected debug output, got %s", buf.String())
		}
	})
}

func TestSecureHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Options{Verbose: true, JSON: true})
	logger.With("api_key", "attached-secret").
		WithGroup("req").
		Info("grouped", slog.Group("headers", slog.String("authorization", "grouped-secret")))

	out := buf.String()
	if strings.Contains(out, "attached-secret") || strings.Contains(out, "grouped-secret") {
		t.Errorf("secrets leaked: %s", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON output, got %s", out)
	}
}

func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	h := NewSecureHandler(nil)
	if h.handler == nil {
		t.Error("expected default handler to be used")
	}
}
