// Package fileutil moves and copies files without ever overwriting an
// existing destination.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"
)

var (
	// ErrDestinationExists marks a move or copy refused because dst is taken.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrSourceMissing marks a move whose source vanished before it ran.
	ErrSourceMissing = errors.New("source file missing")
)

// MoveFile renames src to dst, refusing to replace an existing dst. When src
// and dst live on different filesystems it falls back to a verified copy
// followed by removing src.
func MoveFile(src, dst string) error {
	err := renameNoReplace(src, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDestinationExists) {
		return err
	}
	if errors.Is(err, syscall.EXDEV) {
		if err := CopyFileVerified(src, dst); err != nil {
			return err
		}
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("remove source after copy: %w", err)
		}
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		if _, statErr := os.Lstat(src); errors.Is(statErr, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
	}
	return err
}

// renameChecked is the portable fallback: it checks dst first, which leaves a
// small window where a concurrent writer could still be replaced.
func renameChecked(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}

// CopyFileVerified streams src to a newly created dst, keeping the source
// permission bits, then re-reads dst and checks its size and SHA256 against
// what was read from src. dst must not exist. Removes dst on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if err := verifyCopy(dst, written, srcHasher.Sum(nil)); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// verifyCopy reads path back from disk and compares it to the expected size
// and digest.
func verifyCopy(path string, wantSize int64, wantSum []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reopen copy: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return fmt.Errorf("read back copy: %w", err)
	}
	if n != wantSize {
		return fmt.Errorf("copy size mismatch: expected %d bytes, found %d bytes", wantSize, n)
	}
	if !bytes.Equal(h.Sum(nil), wantSum) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}
