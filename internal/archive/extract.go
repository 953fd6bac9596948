package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

var (
	// ErrUnsafePath marks an entry whose name would escape the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")
	// ErrTooManyEntries marks an archive over the entry limit.
	ErrTooManyEntries = errors.New("archive has too many entries")
	// ErrTooLarge marks an archive whose contents exceed the size limit.
	ErrTooLarge = errors.New("archive contents exceed size limit")
)

// Limits caps what Extract will write. Zero values disable a limit.
type Limits struct {
	MaxEntries           int
	MaxUncompressedBytes int64
}

// ExtractStats counts what Extract wrote and skipped.
type ExtractStats struct {
	Files   int   `json:"files"`
	Dirs    int   `json:"dirs"`
	Skipped int   `json:"skipped"`
	Bytes   int64 `json:"bytes"`
}

// Extract unpacks zipPath into dest, preserving the directory layout. dest
// must already exist. Entries that would land outside dest fail the whole
// extraction; symlinks and other special entries are skipped.
func Extract(ctx context.Context, zipPath, dest string, limits Limits) (ExtractStats, error) {
	var stats ExtractStats

	reader, err := zip.OpenReader(zipPath)
	if err != nil && reader == nil {
		return stats, fmt.Errorf("open archive: %w", err)
	}
	// A reader returned alongside an error only had entry names flagged as
	// non-local; every name is vetted below.
	defer reader.Close()

	if limits.MaxEntries > 0 && len(reader.File) > limits.MaxEntries {
		return stats, fmt.Errorf("%w: %d entries, limit %d", ErrTooManyEntries, len(reader.File), limits.MaxEntries)
	}

	dest, err = filepath.Abs(dest)
	if err != nil {
		return stats, fmt.Errorf("resolve destination: %w", err)
	}

	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		target, skip, err := entryTarget(dest, f.Name)
		if err != nil {
			return stats, err
		}
		if skip {
			stats.Skipped++
			continue
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return stats, fmt.Errorf("create directory %s: %w", f.Name, err)
			}
			stats.Dirs++
		case mode.IsRegular():
			var budget int64 = -1
			if limits.MaxUncompressedBytes > 0 {
				budget = limits.MaxUncompressedBytes - stats.Bytes
			}
			n, err := extractFile(f, target, budget)
			stats.Bytes += n
			if err != nil {
				return stats, err
			}
			stats.Files++
		default:
			stats.Skipped++
		}
	}
	return stats, nil
}

// entryTarget maps an entry name onto dest. skip is true for entries that
// carry no content worth keeping, such as macOS resource fork folders.
func entryTarget(dest, name string) (string, bool, error) {
	cleaned := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(cleaned, "/") || filepath.VolumeName(cleaned) != "" {
		return "", false, fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	cleaned = path.Clean(cleaned)
	if cleaned == "." {
		return "", true, nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false, fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	if cleaned == "__MACOSX" || strings.HasPrefix(cleaned, "__MACOSX/") {
		return "", true, nil
	}

	target := filepath.Join(dest, filepath.FromSlash(cleaned))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false, fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return target, false, nil
}

// extractFile writes one entry. budget < 0 means unlimited.
func extractFile(f *zip.File, target string, budget int64) (int64, error) {
	if budget >= 0 && int64(f.UncompressedSize64) > budget {
		return 0, fmt.Errorf("%w: entry %s", ErrTooLarge, f.Name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("create directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", f.Name, err)
	}

	var src io.Reader = rc
	if budget >= 0 {
		// The header size can lie; read at most one byte past the budget.
		src = io.LimitReader(rc, budget+1)
	}
	n, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	if copyErr != nil {
		return n, fmt.Errorf("write %s: %w", f.Name, copyErr)
	}
	if closeErr != nil {
		return n, fmt.Errorf("close %s: %w", f.Name, closeErr)
	}
	if budget >= 0 && n > budget {
		return n, fmt.Errorf("%w: entry %s", ErrTooLarge, f.Name)
	}
	return n, nil
}

// ResolveRoot returns the directory that should be sorted after extracting
// into dir. Archives that wrap everything in one top-level folder are sorted
// from inside that folder.
func ResolveRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}
