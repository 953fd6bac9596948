package sorter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"foldersort/internal/logging"
	"foldersort/internal/services"
	"foldersort/internal/tree"
)

// BuildError reports that the root directory could not be listed. No tree is
// produced and nothing on disk has changed.
type BuildError struct {
	Root string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build tree for %s: %v", e.Root, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Plan classifies names and returns the resulting built tree. It performs no
// I/O; names are taken to be regular files directly inside the root, and any
// name that is not a plain file name is rejected with a *tree.InsertError.
func (s *Sorter) Plan(names []string) (*tree.Tree, error) {
	t := tree.New()
	if s.pinDefault {
		if err := t.Pin(s.classifier.Rules().DefaultCategory()); err != nil {
			return nil, err
		}
	}
	for _, name := range names {
		if !isPlainName(name) {
			return nil, &tree.InsertError{Parent: "root", Name: name, Reason: "not a plain file name"}
		}
		category, fileType := s.classifier.Classify(name)
		if _, err := t.Insert(category, fileType, name); err != nil {
			return nil, err
		}
	}
	if err := t.MarkBuilt(); err != nil {
		return nil, err
	}
	return t, nil
}

func isPlainName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return filepath.Base(name) == name && !strings.ContainsRune(name, '/')
}

// Build lists root and plans every regular file found directly inside it.
// Subdirectories, symlinks and other special entries are skipped and never
// descended into. A listing failure is returned as *BuildError.
func (s *Sorter) Build(ctx context.Context, root string) (*tree.Tree, error) {
	ctx = services.WithPhase(ctx, "build")
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldRoot, root))

	if err := ctx.Err(); err != nil {
		return nil, &BuildError{Root: root, Err: err}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		logger.Error("root directory could not be listed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "build_failed"),
			logging.String(logging.FieldErrorHint, "check that the directory exists and is readable"),
		)
		return nil, &BuildError{Root: root, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch {
		case entry.Type().IsRegular():
			names = append(names, entry.Name())
		case entry.IsDir():
			logger.Debug("skipping existing directory", logging.String("entry", entry.Name()))
		default:
			logger.Debug("skipping non-regular entry",
				logging.String("entry", entry.Name()),
				logging.String("mode", entry.Type().String()),
			)
		}
	}

	t, err := s.Plan(names)
	if err != nil {
		return nil, &BuildError{Root: root, Err: err}
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		for _, e := range t.Entries() {
			logger.Debug("classified file",
				logging.String("file", e.File),
				logging.String("destination", filepath.Join(e.Category, e.Type)),
			)
		}
	}
	stats := t.Stats()
	logger.Info("tree built",
		logging.Int("files", stats.Files),
		logging.Int("categories", stats.Categories),
		logging.Int("types", stats.Types),
		logging.Int("skipped_entries", len(entries)-len(names)),
	)
	return t, nil
}
