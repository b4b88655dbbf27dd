// Package log builds the application's slog loggers. Every logger it returns
// wraps its handler in a SecureHandler, which masks provider credentials,
// cookies and authorization headers before a record reaches the output,
// including keys embedded in URL query strings and error messages.
//
//	logger := log.New(os.Stderr, log.Options{Verbose: true})
//	logger.Debug("calling model", "model", "gemini-2.5-flash", "api_key", key)
//	// api_key=***REDACTED***
package log
