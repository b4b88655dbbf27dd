package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nao1215/scrapesynth/internal/model"
)

// Extractor turns a resolved address into an ExtractedRecord.
type Extractor struct {
	fetcher *Fetcher
	parser  *Parser
	logger  *slog.Logger
}

// Option configures an Extractor.
type Option func(*options)

type options struct {
	userAgent    string
	maxBodySize  int64
	maxBodyChars int
	maxImages    int
	logger       *slog.Logger
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithMaxBodySize limits how many bytes are read per document.
func WithMaxBodySize(n int64) Option {
	return func(o *options) { o.maxBodySize = n }
}

// WithMaxBodyChars caps the body text.
func WithMaxBodyChars(n int) Option {
	return func(o *options) { o.maxBodyChars = n }
}

// WithMaxImages caps the image list.
func WithMaxImages(n int) Option {
	return func(o *options) { o.maxImages = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Defaults used when no option overrides them.
const (
	DefaultMaxBodyChars = 10000
	DefaultMaxImages    = 10
	DefaultMaxBodySize  = 5 * 1024 * 1024
)

// NewExtractor creates an Extractor using client for fetches.
func NewExtractor(client *http.Client, opts ...Option) *Extractor {
	o := options{
		maxBodySize:  DefaultMaxBodySize,
		maxBodyChars: DefaultMaxBodyChars,
		maxImages:    DefaultMaxImages,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Extractor{
		fetcher: NewFetcher(client, o.userAgent, o.maxBodySize, o.logger),
		parser:  NewParser(o.maxBodyChars, o.maxImages),
		logger:  o.logger,
	}
}

// Extract fetches and parses the resolved address. For archived resolutions
// the title gets the archival marker and the snapshot address is kept next
// to the original.
//
// Position and SourceID are left for the caller to fill in.
func (e *Extractor) Extract(ctx context.Context, resolved model.ResolvedAddress) (*model.ExtractedRecord, error) {
	doc, err := e.fetcher.Fetch(ctx, resolved.EffectiveAddress)
	if err != nil {
		return nil, err
	}

	parsed, err := e.parser.Parse(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, resolved.EffectiveAddress, err)
	}

	record := &model.ExtractedRecord{
		OriginalAddress: resolved.OriginalAddress,
		Title:           parsed.Title,
		Body:            parsed.Body,
		Images:          parsed.Images,
	}
	if resolved.IsArchived {
		record.ArchivedAddress = resolved.EffectiveAddress
		record.Title = model.ArchivalTitle(resolved.Year, parsed.Title)
	}

	e.logger.Debug("extracted document",
		"url", resolved.OriginalAddress,
		"title", record.Title,
		"body_chars", len(record.Body),
		"images", len(record.Images),
	)

	return record, nil
}
