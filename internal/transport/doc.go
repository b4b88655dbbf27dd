// Package transport builds the HTTP clients used for outbound requests:
// document fetches and archive lookups. Clients can route through an
// optional SOCKS5 proxy and inject per-host headers and cookies from the
// configuration file into every request, redirects included.
//
// EmbeddedTor starts a private Tor daemon so the same clients can route
// through the Tor network without an external installation.
package transport
