// Package api serves the HTTP interface and defines its wire-format types.
//
// # Endpoints
//
// POST /sort accepts a multipart upload in the "file" field. The zip is
// extracted into a fresh job directory, sorted, packaged and streamed back as
// Sorted_<name>.zip. The job directory is removed once the response is sent.
//
// POST /api/classify resolves filenames to category and type folders without
// touching the filesystem.
//
// GET /api/runs and GET /api/runs/{id} read run history. GET /api/health
// reports liveness.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for browser consumers. Timestamps use RFC3339
// with milliseconds. Errors are always {"error": "..."}; the status code comes
// from the services error markers.
package api
