package workflow

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"

	"foldersort/internal/history"
	"foldersort/internal/logging"
	"foldersort/internal/services"
	"foldersort/internal/sorter"
	"foldersort/internal/staging"
)

// SortDirectory sorts the files directly inside root in place. Per-file
// failures land in the result's report; the error is non-nil only when the
// run could not start, the root could not be listed, or ctx was canceled.
func (r *Runner) SortDirectory(ctx context.Context, root string) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "resolve root", root, err)
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger).With(logging.String(logging.FieldRoot, abs))

	lock, err := staging.LockRoot(ctx, r.cfg.Paths.StateDir, abs, r.cfg.LockTimeout())
	if err != nil {
		if errors.Is(err, staging.ErrRootBusy) {
			return nil, services.Wrap(services.ErrConflict, "workflow", "lock root", abs, err)
		}
		return nil, services.Wrap(services.ErrTransient, "workflow", "lock root", abs, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("root lock not released", logging.Error(err))
		}
	}()

	logger.Info("sort started", logging.String(logging.FieldEventType, "run_started"))
	result := &Result{
		RunID:     runID,
		Kind:      history.KindDirectory,
		Root:      abs,
		StartedAt: r.now(),
	}
	runErr := r.sortRoot(ctx, result, abs)
	r.finish(ctx, result, runErr)
	return result, runErr
}

// sortRoot runs build and execute for root and stores the report on result.
func (r *Runner) sortRoot(ctx context.Context, result *Result, root string) error {
	t, err := r.sorter.Build(ctx, root)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, fs.ErrNotExist) {
			marker = services.ErrValidation
		}
		return services.Wrap(marker, "workflow", "build", "", err)
	}
	report, err := r.sorter.Execute(ctx, t, root)
	result.Report = report
	if err != nil {
		return services.Wrap(services.ErrTransient, "workflow", "execute", "", err)
	}
	return nil
}

func (r *Runner) finish(ctx context.Context, result *Result, runErr error) {
	result.FinishedAt = r.now()
	result.Status = statusFor(result.Report, runErr)
	if runErr != nil {
		result.Err = runErr.Error()
	}
	r.record(ctx, result)
	r.notify(ctx, result)

	logger := logging.WithContext(ctx, r.logger)
	attrs := []logging.Attr{
		logging.String("status", result.Status),
		logging.Duration("duration", result.Duration()),
		logging.String(logging.FieldEventType, "run_finished"),
	}
	if result.Report != nil {
		attrs = append(attrs,
			logging.Int("moved", result.Report.Moved),
			logging.Int("unmoved", result.Report.Unmoved),
		)
	}
	if runErr != nil {
		attrs = append(attrs, logging.Error(runErr))
		logger.Error("sort failed", logging.Args(attrs...)...)
		return
	}
	logger.Info("sort finished", logging.Args(attrs...)...)
}

// Failed reports whether a report contains error-severity failures.
func Failed(report *sorter.Report) bool {
	return report != nil && len(report.Errors()) > 0
}
