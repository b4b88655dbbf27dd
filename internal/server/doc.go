// Package server exposes the synthesis service over HTTP.
//
// Routes:
//
//	POST /api/scrape     run one synthesis
//	GET  /api/runs       list stored runs (when history is enabled)
//	GET  /api/runs/{id}  show one stored run
//	GET  /health         liveness probe
package server
