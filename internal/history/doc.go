// Package history persists a record of every sort run in a SQLite database
// under the state directory so past runs and their failures can be reviewed
// from the CLI and the HTTP API.
package history
