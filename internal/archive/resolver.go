package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nao1215/scrapesynth/internal/model"
)

// maxResponseSize bounds the availability response. The real payload is a
// few hundred bytes.
const maxResponseSize = 64 * 1024

// availability mirrors the parts of the availability API response we read.
type availability struct {
	ArchivedSnapshots struct {
		Closest *struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Timestamp string `json:"timestamp"`
			Status    string `json:"status"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Resolver maps addresses to snapshot addresses.
type Resolver struct {
	client   *http.Client
	endpoint string
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver querying endpoint with client.
// The client's timeout bounds each lookup.
func NewResolver(client *http.Client, endpoint string, opts ...Option) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	r := &Resolver{
		client:   client,
		endpoint: endpoint,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the snapshot closest to January 1st of year.
// Failures are *LookupError values wrapping ErrNoSnapshotFound or ErrLookup.
// There is no retry.
func (r *Resolver) Resolve(ctx context.Context, address string, year int) (model.ResolvedAddress, error) {
	fail := func(err error) (model.ResolvedAddress, error) {
		return model.ResolvedAddress{}, &LookupError{Address: address, Year: year, Err: err}
	}

	lookupURL, err := r.lookupURL(address, year)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrLookup, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrLookup, err))
	}
	req.Header.Set("Accept", "application/json")

	r.logger.Debug("looking up snapshot", "url", address, "year", year)

	resp, err := r.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrLookup, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("%w: status %d", ErrLookup, resp.StatusCode))
	}

	var body availability
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		return fail(fmt.Errorf("%w: decode response: %w", ErrLookup, err))
	}

	closest := body.ArchivedSnapshots.Closest
	if closest == nil || closest.URL == "" {
		return fail(ErrNoSnapshotFound)
	}

	r.logger.Debug("snapshot found", "url", address, "snapshot", closest.URL, "timestamp", closest.Timestamp)

	return model.ResolvedAddress{
		EffectiveAddress: closest.URL,
		IsArchived:       true,
		OriginalAddress:  address,
		Year:             year,
	}, nil
}

// lookupURL builds "<endpoint>?url=<address>&timestamp=<year>0101".
func (r *Resolver) lookupURL(address string, year int) (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("url", address)
	q.Set("timestamp", strconv.Itoa(year)+"0101")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
