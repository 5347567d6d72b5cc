// Package config loads and validates the printhive-core configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// PRINTHIVE_* environment variable overrides. The loaded Config is
// read-only after Load returns.
package config
