// Package log builds the slog loggers used by nyaacache.
//
// Every logger is wrapped in a SecureHandler, which masks values under
// secret-looking keys (password, token, cookie, ...) and strips the
// user:password part of URLs. Proxy addresses may carry credentials, and
// debug logs are meant to be pasted into bug reports.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("using proxy", "proxy", "socks5://alice:pw@127.0.0.1:1080")
//	// proxy=socks5://127.0.0.1:1080
package log
