package sorter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"foldersort/internal/fileutil"
	"foldersort/internal/logging"
	"foldersort/internal/services"
	"foldersort/internal/tree"
)

// Execute materializes t under root: it creates every needed category and
// type folder and moves each planned file out of root into its folder.
// Failures on individual files or folders are recorded in the returned report
// and never stop the run. The error return is reserved for misuse of the tree
// (executing an unbuilt or already executed tree) and for context
// cancellation, which stops the run between moves and still returns the
// partial report.
func (s *Sorter) Execute(ctx context.Context, t *tree.Tree, root string) (*Report, error) {
	if t == nil {
		return nil, tree.ErrNotBuilt
	}
	if err := t.MarkExecuted(); err != nil {
		return nil, err
	}

	ctx = services.WithPhase(ctx, "execute")
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldRoot, root))
	started := time.Now()
	report := &Report{Root: root, Planned: t.Stats().Files}

	if t.IsEmpty() {
		logger.Info("nothing to sort", logging.String(logging.FieldEventType, "execute_empty"))
		report.Duration = time.Since(started)
		return report, nil
	}

	var runErr error
	for _, category := range t.Categories() {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if category.Len() == 0 && !category.Pinned() {
			report.Skipped = append(report.Skipped, category.Name())
			logger.Debug("skipping empty category", logging.String("category", category.Name()))
			continue
		}
		if err := s.executeCategory(ctx, logger, report, category, root); err != nil {
			runErr = err
			break
		}
	}

	if runErr != nil {
		report.Canceled = true
		report.Unmoved = report.Planned - report.Moved
		logger.Warn("sort canceled",
			logging.Int("moved", report.Moved),
			logging.Int("unmoved", report.Unmoved),
			logging.Error(runErr),
			logging.String(logging.FieldEventType, "execute_canceled"),
		)
	}
	report.Duration = time.Since(started)

	logger.Info("sort finished",
		logging.Int("planned", report.Planned),
		logging.Int("moved", report.Moved),
		logging.Int("unmoved", report.Unmoved),
		logging.Int("directories", report.Directories),
		logging.Int("warnings", len(report.Warnings())),
		logging.Int("errors", len(report.Errors())),
		logging.Duration("duration", report.Duration),
	)
	return report, runErr
}

func (s *Sorter) executeCategory(ctx context.Context, logger *slog.Logger, report *Report, category *tree.Node, root string) error {
	categoryDir := filepath.Join(root, category.Name())
	if err := s.ensureDir(categoryDir); err != nil {
		skipped := countFiles(category)
		s.recordDirectoryFailure(logger, report, Failure{
			Category: category.Name(),
			Path:     categoryDir,
			Skipped:  skipped,
			Err:      err,
		})
		return nil
	}
	report.Directories++

	for _, fileType := range category.Children() {
		typeDir := filepath.Join(categoryDir, fileType.Name())
		if err := s.ensureDir(typeDir); err != nil {
			s.recordDirectoryFailure(logger, report, Failure{
				Category: category.Name(),
				Type:     fileType.Name(),
				Path:     typeDir,
				Skipped:  fileType.Len(),
				Err:      err,
			})
			continue
		}
		report.Directories++

		for _, leaf := range fileType.Children() {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.moveOne(logger, report, category.Name(), fileType.Name(), leaf.Name(), root, typeDir)
		}
	}
	return nil
}

func (s *Sorter) moveOne(logger *slog.Logger, report *Report, category, fileType, file, root, typeDir string) {
	src := filepath.Join(root, file)
	dst := filepath.Join(typeDir, file)

	err := fileutil.MoveFile(src, dst)
	if err == nil {
		report.Moved++
		logger.Debug("moved file", logging.String("file", file), logging.String("destination", dst))
		return
	}

	failure := Failure{
		Category: category,
		Type:     fileType,
		File:     file,
		Path:     dst,
		Err:      err,
	}
	switch {
	case errors.Is(err, fileutil.ErrSourceMissing):
		failure.Kind = KindMissingSource
		failure.Severity = SeverityWarning
		logging.WarnWithContext(logger, "file disappeared before it could be moved", "move_source_missing",
			logging.String("file", file),
			logging.String(logging.FieldErrorHint, "another process removed or renamed the file during the run"),
			logging.String(logging.FieldImpact, "file skipped"),
		)
	case errors.Is(err, fileutil.ErrDestinationExists):
		failure.Kind = KindDestinationExists
		failure.Severity = SeverityError
		logger.Error("destination already holds a file with this name",
			logging.String("file", file),
			logging.String("destination", dst),
			logging.String(logging.FieldEventType, "move_collision"),
			logging.String(logging.FieldErrorHint, "rename or remove one of the two files and sort again"),
		)
	default:
		failure.Kind = KindMoveFailed
		failure.Severity = SeverityError
		logger.Error("file move failed",
			logging.String("file", file),
			logging.String("destination", dst),
			logging.Error(err),
			logging.String(logging.FieldEventType, "move_failed"),
		)
	}
	report.Unmoved++
	report.add(failure)
}

func (s *Sorter) recordDirectoryFailure(logger *slog.Logger, report *Report, failure Failure) {
	failure.Kind = KindDirectory
	failure.Severity = SeverityError
	report.Unmoved += failure.Skipped
	report.add(failure)
	logger.Error("folder could not be created",
		logging.String("path", failure.Path),
		logging.Int("files_left_in_place", failure.Skipped),
		logging.Error(failure.Err),
		logging.String(logging.FieldEventType, "directory_failed"),
		logging.String(logging.FieldErrorHint, "check permissions and that no file uses the folder name"),
	)
}

// ensureDir creates dir if needed. An existing directory is accepted as is;
// anything else at that path, including a symlink, is refused so moves never
// leave the root.
func (s *Sorter) ensureDir(dir string) error {
	info, err := os.Lstat(dir)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%s is a symlink", dir)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return err
	}
	if err := os.Mkdir(dir, os.FileMode(s.dirPermission)); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}

func countFiles(category *tree.Node) int {
	n := 0
	for _, fileType := range category.Children() {
		n += fileType.Len()
	}
	return n
}
