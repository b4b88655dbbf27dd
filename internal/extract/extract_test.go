package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nao1215/scrapesynth/internal/model"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>  Sample Page </title><style>.x{color:red}</style></head>
<body>
  <nav>Home | About</nav>
  <h1>Hello</h1>
  <p>First    paragraph
     continues here.</p>
  <script>var secret = 1;</script>
  <noscript>enable js</noscript>
  <iframe src="https://ads.example.com"></iframe>
  <svg><text>vector</text></svg>
  <form><input name="q"></form>
  <img src="/a.png" alt="A">
  <img src="data:image/png;base64,AAAA" alt="inline">
  <img alt="no source">
  <img src="/b.png">
  <footer>Copyright</footer>
</body>
</html>`

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	parsed, err := NewParser(DefaultMaxBodyChars, DefaultMaxImages).Parse(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("title is trimmed", func(t *testing.T) {
		t.Parallel()
		if parsed.Title != "Sample Page" {
			t.Errorf("expected title %q, got %q", "Sample Page", parsed.Title)
		}
	})

	t.Run("body has noise removed and whitespace collapsed", func(t *testing.T) {
		t.Parallel()
		want := "Hello First paragraph continues here."
		if parsed.Body != want {
			t.Errorf("expected body %q, got %q", want, parsed.Body)
		}
		for _, noise := range []string{"Home", "secret", "enable js", "vector", "Copyright", "color:red"} {
			if strings.Contains(parsed.Body, noise) {
				t.Errorf("body should not contain %q", noise)
			}
		}
	})

	t.Run("inline and sourceless images are skipped", func(t *testing.T) {
		t.Parallel()
		want := []model.Image{{Src: "/a.png", Alt: "A"}, {Src: "/b.png", Alt: ""}}
		if len(parsed.Images) != len(want) {
			t.Fatalf("expected %d images, got %d: %+v", len(want), len(parsed.Images), parsed.Images)
		}
		for i := range want {
			if parsed.Images[i] != want[i] {
				t.Errorf("image %d: expected %+v, got %+v", i, want[i], parsed.Images[i])
			}
		}
	})
}

func TestParser_UnicodeWhitespace(t *testing.T) {
	t.Parallel()

	page := "<html><body><p>Price:&nbsp;&nbsp; &nbsp;10\u2003\u2003USD\v\vok</p>\u3000<p>\u00a0end\u2028</p></body></html>"
	parsed, err := NewParser(DefaultMaxBodyChars, DefaultMaxImages).Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "Price: 10 USD ok end"; parsed.Body != want {
		t.Errorf("expected body %q, got %q", want, parsed.Body)
	}
}

func TestCollapseSpace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  a  ", "a"},
		{"a\t\n\r b", "a b"},
		{"a\u00a0\u00a0b", "a b"},
		{"a\u2009\u202fb", "a b"},
		{"caf\u00e9  cr\u00e8me", "caf\u00e9 cr\u00e8me"},
	}
	for _, tt := range tests {
		if got := collapseSpace(tt.in); got != tt.want {
			t.Errorf("collapseSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParser_Caps(t *testing.T) {
	t.Parallel()

	t.Run("body is truncated with marker", func(t *testing.T) {
		t.Parallel()
		page := "<html><body>" + strings.Repeat("é", 50) + "</body></html>"
		parsed, err := NewParser(20, 10).Parse(strings.NewReader(page))
		if err != nil {
			t.Fatal(err)
		}
		if utf8.RuneCountInString(parsed.Body) != 20+len(TruncationMarker) {
			t.Errorf("expected %d characters, got %d", 20+len(TruncationMarker), utf8.RuneCountInString(parsed.Body))
		}
		if !strings.HasSuffix(parsed.Body, TruncationMarker) {
			t.Errorf("expected truncation marker, got %q", parsed.Body)
		}
	})

	t.Run("body at the cap is not marked", func(t *testing.T) {
		t.Parallel()
		page := "<html><body>" + strings.Repeat("a", 20) + "</body></html>"
		parsed, err := NewParser(20, 10).Parse(strings.NewReader(page))
		if err != nil {
			t.Fatal(err)
		}
		if parsed.Body != strings.Repeat("a", 20) {
			t.Errorf("unexpected body %q", parsed.Body)
		}
	})

	t.Run("images are capped in document order", func(t *testing.T) {
		t.Parallel()
		var b strings.Builder
		b.WriteString("<html><body>")
		for i := range 15 {
			fmt.Fprintf(&b, `<img src="/img%d.png">`, i)
		}
		b.WriteString("</body></html>")

		parsed, err := NewParser(100, 10).Parse(strings.NewReader(b.String()))
		if err != nil {
			t.Fatal(err)
		}
		if len(parsed.Images) != 10 {
			t.Fatalf("expected 10 images, got %d", len(parsed.Images))
		}
		if parsed.Images[0].Src != "/img0.png" || parsed.Images[9].Src != "/img9.png" {
			t.Errorf("unexpected image order: %+v", parsed.Images)
		}
	})

	t.Run("missing title is empty", func(t *testing.T) {
		t.Parallel()
		parsed, err := NewParser(100, 10).Parse(strings.NewReader("<p>text</p>"))
		if err != nil {
			t.Fatal(err)
		}
		if parsed.Title != "" {
			t.Errorf("expected empty title, got %q", parsed.Title)
		}
		if parsed.Body != "text" {
			t.Errorf("expected body %q, got %q", "text", parsed.Body)
		}
	})
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(samplePage))
		case "/latin1":
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<html><head><title>Caf\xe9</title></head><body>cr\xe8me</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	ex := NewExtractor(srv.Client(), WithUserAgent("test-browser/1.0"))

	t.Run("live page", func(t *testing.T) {
		t.Parallel()
		rec, err := ex.Extract(context.Background(), model.IdentityAddress(srv.URL+"/page"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Title != "Sample Page" || rec.IsArchived() {
			t.Errorf("unexpected record %+v", rec)
		}
		if rec.OriginalAddress != srv.URL+"/page" {
			t.Errorf("unexpected original address %q", rec.OriginalAddress)
		}
	})

	t.Run("archived page gets marker", func(t *testing.T) {
		t.Parallel()
		resolved := model.ResolvedAddress{
			EffectiveAddress: srv.URL + "/page",
			IsArchived:       true,
			OriginalAddress:  "https://example.com/",
			Year:             2012,
		}
		rec, err := ex.Extract(context.Background(), resolved)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Title != "[ARCHIVED 2012] Sample Page" {
			t.Errorf("unexpected title %q", rec.Title)
		}
		if rec.ArchivedAddress != srv.URL+"/page" || rec.OriginalAddress != "https://example.com/" {
			t.Errorf("unexpected addresses %+v", rec)
		}
	})

	t.Run("non-utf8 charset is decoded", func(t *testing.T) {
		t.Parallel()
		rec, err := ex.Extract(context.Background(), model.IdentityAddress(srv.URL+"/latin1"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Title != "Café" || rec.Body != "crème" {
			t.Errorf("unexpected decoding: title=%q body=%q", rec.Title, rec.Body)
		}
	})

	t.Run("non-2xx is a fetch error naming the address", func(t *testing.T) {
		t.Parallel()
		addr := srv.URL + "/missing"
		_, err := ex.Extract(context.Background(), model.IdentityAddress(addr))
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
		var fe *FetchError
		if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
			t.Errorf("expected FetchError with 404, got %v", err)
		}
		if !strings.Contains(err.Error(), addr) {
			t.Errorf("expected address in message, got %q", err.Error())
		}
	})

	t.Run("transport failure is a network error", func(t *testing.T) {
		t.Parallel()
		addr := "http://127.0.0.1:1/unreachable"
		_, err := ex.Extract(context.Background(), model.IdentityAddress(addr))
		if !errors.Is(err, ErrNetwork) {
			t.Fatalf("expected ErrNetwork, got %v", err)
		}
		if !strings.Contains(err.Error(), addr) {
			t.Errorf("expected address in message, got %q", err.Error())
		}
	})

	t.Run("extraction is repeatable", func(t *testing.T) {
		t.Parallel()
		a, err := ex.Extract(context.Background(), model.IdentityAddress(srv.URL+"/page"))
		if err != nil {
			t.Fatal(err)
		}
		b, err := ex.Extract(context.Background(), model.IdentityAddress(srv.URL+"/page"))
		if err != nil {
			t.Fatal(err)
		}
		if a.Title != b.Title || a.Body != b.Body || len(a.Images) != len(b.Images) {
			t.Errorf("records differ: %+v vs %+v", a, b)
		}
	})
}

func TestFetcher_RequestHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotCache, gotPragma string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCache = r.Header.Get("Cache-Control")
		gotPragma = r.Header.Get("Pragma")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), "test-browser/1.0", 0, nil)
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotUA != "test-browser/1.0" {
		t.Errorf("expected user agent header, got %q", gotUA)
	}
	if gotCache != "no-cache" || gotPragma != "no-cache" {
		t.Errorf("expected caching disabled, got Cache-Control=%q Pragma=%q", gotCache, gotPragma)
	}
}

func TestFetcher_BodySizeLimit(t *testing.T) {
	t.Parallel()

	page := "<html><body>" + strings.Repeat("a", 100) + "</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	t.Run("longer body is cut and logged", func(t *testing.T) {
		t.Parallel()
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		doc, err := NewFetcher(srv.Client(), "ua", 20, logger).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !doc.Truncated || len(doc.Body) != 20 {
			t.Errorf("Truncated = %v, len(Body) = %d; want true, 20", doc.Truncated, len(doc.Body))
		}
		if !strings.Contains(logs.String(), "exceeds body size limit") || !strings.Contains(logs.String(), "limit_bytes=20") {
			t.Errorf("expected a debug line about the limit, got %q", logs.String())
		}
	})

	t.Run("body of exactly the limit is complete", func(t *testing.T) {
		t.Parallel()
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		doc, err := NewFetcher(srv.Client(), "ua", int64(len(page)), logger).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Truncated || string(doc.Body) != page {
			t.Errorf("Truncated = %v, Body = %q", doc.Truncated, doc.Body)
		}
		if strings.Contains(logs.String(), "exceeds body size limit") {
			t.Errorf("unexpected limit log: %q", logs.String())
		}
	})

	t.Run("no limit", func(t *testing.T) {
		t.Parallel()
		doc, err := NewFetcher(srv.Client(), "ua", 0, nil).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Truncated || string(doc.Body) != page {
			t.Errorf("Truncated = %v, len(Body) = %d", doc.Truncated, len(doc.Body))
		}
	})
}
