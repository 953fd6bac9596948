// Package workflow composes the sorting pieces into complete runs.
//
// A directory run locks the root, builds the classification tree, executes it
// and records the outcome in run history. An archive run extracts an uploaded
// zip into an isolated job directory, sorts the extracted folder, packages the
// result as a new zip and optionally publishes it to object storage. Both
// produce a Result carrying the run id, the execution report and timings.
package workflow
