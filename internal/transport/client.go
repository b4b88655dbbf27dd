package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/scrapesynth/internal/config"
)

// maxRedirects is the number of redirects followed before the last response
// is returned as-is.
const maxRedirects = 10

// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
var ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

// Options configures NewClient.
type Options struct {
	// Timeout bounds a whole request including reading the body.
	// Zero means no client-level timeout.
	Timeout time.Duration

	// ProxyAddress routes connections through a SOCKS5 proxy when set.
	ProxyAddress string

	// Sites supplies per-host headers and cookies. May be nil.
	Sites *config.File
}

// NewClient creates an HTTP client for outbound requests.
//
// The proxy address is validated but not contacted; a proxy that is down
// surfaces as a network error on the first request.
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if opts.ProxyAddress != "" {
		if !isValidProxyAddress(opts.ProxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", opts.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		base.Proxy = nil
		base.DialContext = contextDialer(dialer)
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	var rt http.RoundTripper = base
	if opts.Sites != nil {
		rt = &siteHeaderTransport{base: base, sites: opts.Sites}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   opts.Timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// contextDialer adapts a proxy.Dialer to http.Transport.DialContext.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		ch := make(chan dialResult, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			ch <- dialResult{conn, err}
		}()
		select {
		case r := <-ch:
			return r.conn, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// siteHeaderTransport injects the configured headers and cookie for the
// request's host.
type siteHeaderTransport struct {
	base  http.RoundTripper
	sites *config.File
}

// RoundTrip implements http.RoundTripper.
func (t *siteHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sc := t.sites.GetSiteConfig(req.URL.Hostname())
	if sc.Cookie == "" && len(sc.Headers) == 0 {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	if sc.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+sc.Cookie)
		} else {
			clone.Header.Set("Cookie", sc.Cookie)
		}
	}
	for key, value := range sc.Headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
