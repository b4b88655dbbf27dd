// Package llm sends the composed instruction document to a generative model.
//
// The provider is chosen once, from the credential's shape, by
// SelectProvider: keys with the Google API key prefix go to the primary
// provider (Gemini), everything else to the fallback provider (OpenAI).
// NewProvider turns that choice into a Provider value that the caller passes
// down; nothing below the entry point inspects the credential again.
//
// The primary provider runs a Cascade over an ordered model list and returns
// the first non-empty reply. The fallback provider makes exactly one call.
// Attempts are strictly sequential and never retried.
package llm
