// Package log provides logging helpers for digigraph, built on top of
// the standard slog package.
//
// The crawl pipeline routinely carries raw wiki HTML through its call
// sites, and a careless log attribute can dump a whole page into one
// log line. The TruncatingHandler caps attribute values at a fixed
// length so debug logging stays readable even when page content leaks
// into an attribute.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//	slog.SetDefault(logger)
//
//	logger.Debug("page fetched",
//	    "site", "/Agumon",
//	    "body", html, // truncated to MaxAttrLen with a marker
//	)
package log
