// Package preflight provides readiness checks for the directories and
// services foldersort depends on.
//
// These checks run in two contexts:
//   - "foldersort serve" calls RunAll before binding the API and refuses to
//     start when a required check fails.
//   - "foldersort doctor" prints every result, and "foldersort sort" checks
//     the target root with CheckDirectoryAccess before locking it.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
