package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/net/html/charset"
)

// Document is the raw markup retrieved for an address.
type Document struct {
	// Address is the final address after redirects.
	Address string

	// ContentType is the response Content-Type header.
	ContentType string

	// Body is the markup decoded to UTF-8.
	Body []byte

	// Truncated reports that the response was longer than the body size
	// limit and only its first part was read.
	Truncated bool
}

// Fetcher downloads documents over HTTP.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// NewFetcher creates a Fetcher. The client's timeout bounds each fetch.
// A maxBodySize of zero or less disables the limit.
func NewFetcher(client *http.Client, userAgent string, maxBodySize int64, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:      client,
		userAgent:   userAgent,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// Fetch retrieves address. Every call goes to the server: caches are asked
// not to serve stored content.
func (f *Fetcher) Fetch(ctx context.Context, address string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, &NetworkError{Address: address, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	f.logger.Debug("fetching document", "url", address)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Address: address, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck
		return nil, &FetchError{Address: address, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if f.maxBodySize > 0 {
		// One extra byte tells a body of exactly the limit from a longer one.
		body = io.LimitReader(resp.Body, f.maxBodySize+1)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{Address: address, Err: err}
	}

	truncated := f.maxBodySize > 0 && int64(len(raw)) > f.maxBodySize
	if truncated {
		raw = raw[:f.maxBodySize]
		f.logger.Debug("document exceeds body size limit, extraction uses the first part only",
			"url", address,
			"limit_bytes", f.maxBodySize,
		)
	}

	contentType := resp.Header.Get("Content-Type")
	decoded, err := decode(raw, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrParse, address, err)
	}

	return &Document{
		Address:     resp.Request.URL.String(),
		ContentType: contentType,
		Body:        decoded,
		Truncated:   truncated,
	}, nil
}

// decode converts raw to UTF-8 using the declared or sniffed charset.
func decode(raw []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
