// Package archive unpacks uploaded zip archives into a job directory and
// packages sorted directories back into zip files.
//
// Extraction is defensive: entry names are confined to the destination,
// symlinks are never created, and entry count and total uncompressed size are
// capped so a hostile archive cannot exhaust the disk.
package archive
