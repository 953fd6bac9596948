// Package classify maps a filename to the category and type folders it should
// be sorted into.
//
// Classification only looks at the name: an ordered list of keyword rules picks
// the category (first declared keyword found in the lowercased name wins) and
// an extension table picks the type. Unmatched names fall back to the
// configured default category and unclassified type. Rule sets are immutable
// once constructed, so a single Classifier can be shared by concurrent runs.
package classify
