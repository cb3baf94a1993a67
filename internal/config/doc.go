// Package config loads, normalizes, and validates filesort configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. The Config type centralizes every knob the organizer, the
// captioning client, and the CLI need, so source/destination directories and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
