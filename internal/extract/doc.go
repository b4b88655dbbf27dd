// Package extract retrieves documents and reduces them to normalized records.
//
// A Fetcher downloads the markup with a browser User-Agent and caching
// disabled, decoding non-UTF-8 charsets. A Parser strips noise elements
// (script, style, noscript, iframe, svg, form, footer, nav) and pulls out the
// title, whitespace-collapsed body text capped at a character limit, and up to
// a fixed number of non-inline images. Extractor combines the two.
//
// Extraction is deterministic: the same document and caps always produce the
// same record.
package extract
