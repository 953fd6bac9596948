// Package services defines the error markers and context helpers shared by the
// sorting workflow, the CLI and the HTTP API.
//
// Key responsibilities:
//   - Sentinel markers plus the Wrap helper so callers can classify failures
//     with errors.Is regardless of which component produced them.
//   - HTTPStatus, which maps a marked error to the response code the API
//     should return.
//   - Context helpers that stamp run IDs, phases and request IDs for logging.
package services
