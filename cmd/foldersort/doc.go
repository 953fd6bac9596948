// Package main hosts the foldersort CLI entrypoint and command graph.
//
// Commands resolve configuration once through commandContext, then hand off
// to the internal packages: classify and plan are read-only previews, sort
// and archive run the workflow and record history, serve exposes the HTTP
// upload API, and doctor reports environment readiness.
//
// Keep this package thin. New behavior belongs in internal packages first and
// is surfaced here as a command or flag.
package main
