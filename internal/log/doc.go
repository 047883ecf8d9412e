// Package log builds the slog loggers used by refcrawl.
//
// Handler wraps any slog.Handler and rewrites attributes before they are
// written:
//   - values of credential-like keys (Authorization, Cookie, token, ...)
//     and credential-like values (Bearer and Basic schemes, JWTs) are
//     replaced with MaskValue
//   - long string values, such as page bodies, are cut to a preview
//
// Custom request headers come from configuration files and may carry
// credentials, so they are masked even in verbose mode.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("open page", "url", pageURL, "content", body)
package log
