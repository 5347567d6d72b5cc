// Package logging provides structured logging for printhive-core.
//
// It wraps log/slog so every component shares the same output shape:
// JSON for production, text for development, default service/version
// fields, and level-based filtering configured via config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets, tokens, or passwords.
package logging
