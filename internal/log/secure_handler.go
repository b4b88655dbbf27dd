package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-goog-api-key":      true,
	"api_key":             true,
	"apikey":              true,
	"api-key":             true,
	"key":                 true,
	"password":            true,
}

// sensitiveKeywords mark a key as sensitive when they appear anywhere in it.
// The bare "key" is matched exactly above; as a substring it would hit
// "primary_key" or "keyword".
var sensitiveKeywords = []string{
	"credential", "secret", "token", "password", "passwd", "auth",
}

// sensitivePatterns mask a string value regardless of its key.
var sensitivePatterns = []*regexp.Regexp{
	// Google API keys
	regexp.MustCompile(`^AIza[0-9A-Za-z_-]{10,}$`),
	// OpenAI keys
	regexp.MustCompile(`^sk-[0-9A-Za-z_-]{10,}$`),
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
}

// embeddedSecrets are scrubbed in place inside longer strings such as URLs
// and wrapped error messages.
var embeddedSecrets = []*regexp.Regexp{
	regexp.MustCompile(`([?&](?:key|api_key|apikey|access_token)=)[^&\s"']+`),
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{10,}`),
	regexp.MustCompile(`sk-[0-9A-Za-z_-]{10,}`),
}

// SecureHandler wraps an slog.Handler and masks sensitive attribute values
// before they reach the wrapped handler.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's message and attributes and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, scrub(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redact(a))
		return true
	})
	return h.handler.Handle(ctx, clean)
}

// WithAttrs masks attrs before attaching them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redact(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(clean)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func redact(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		attrs := v.Group()
		clean := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			clean[i] = redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		if cleaned := scrub(s); cleaned != s {
			return slog.String(a.Key, cleaned)
		}
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			msg := err.Error()
			if cleaned := scrub(msg); cleaned != msg {
				return slog.String(a.Key, cleaned)
			}
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// scrub replaces credentials embedded in a longer string.
func scrub(s string) string {
	for i, p := range embeddedSecrets {
		if i == 0 {
			s = p.ReplaceAllString(s, "${1}"+MaskValue)
			continue
		}
		s = p.ReplaceAllString(s, MaskValue)
	}
	return s
}

// Options controls logger construction.
type Options struct {
	// Verbose lowers the level from Warn to Debug.
	Verbose bool
	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// New returns a logger writing to w with every record passing through a
// SecureHandler.
func New(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if opts.JSON {
		base = slog.NewJSONHandler(w, ho)
	} else {
		base = slog.NewTextHandler(w, ho)
	}
	return slog.New(NewSecureHandler(base))
}
