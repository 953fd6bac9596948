// Package sorter plans and applies a folder sort for one root directory.
//
// Sorting happens in two strictly sequential phases. Build lists the root,
// classifies every regular file and records the result in an in-memory
// tree.Tree without touching the filesystem. Execute walks that tree once,
// creates category and type folders idempotently, and moves each file from the
// root into root/category/type. Per-file and per-branch failures never abort a
// run; they are collected into the Report so callers can show everything that
// went wrong after the fact.
package sorter
