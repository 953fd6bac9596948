// Package config loads, normalizes, and validates foldersort configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FOLDERSORT_LOG_LEVEL and the object storage credentials. Classification
// rules live here too: an empty [rules] section means the built-in course
// keyword and extension tables apply.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, normalized extensions and clear validation errors.
package config
