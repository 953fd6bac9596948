// Package staging manages per-run job directories under the work directory
// and the advisory locks that keep two runs from sorting the same root at
// once.
package staging
