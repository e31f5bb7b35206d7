// Package config loads, normalizes, and validates reelfetch configuration data.
//
// It supplies repository defaults (24 hour cache freshness, a queue of 10, a
// quota of 5 requests per minute, a 50 MB delivery ceiling), expands user
// paths including tilde shortcuts, reads TOML files, and honours environment
// fallbacks such as REELFETCH_BOT_TOKEN.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
