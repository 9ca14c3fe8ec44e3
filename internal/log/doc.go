// Package log builds slog loggers that redact secrets.
//
// Accessibility trees routinely contain what a user typed: text field
// values, search boxes, sometimes the contents of a secure field exposed by
// a misbehaving application. SecureHandler masks log attributes whose key
// names look secret-bearing (password, token, credential, secure, ...) and
// values that look like credentials (JWTs, bearer headers, long opaque keys),
// so verbose logs can be shared without leaking them.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
// Attribute values are matched whole; a password inside a longer message
// string is not detected.
package log
