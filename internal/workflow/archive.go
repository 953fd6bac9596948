package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"foldersort/internal/archive"
	"foldersort/internal/history"
	"foldersort/internal/logging"
	"foldersort/internal/services"
	"foldersort/internal/staging"
)

// OutputName is the file name a sorted archive is delivered under.
func OutputName(uploadName string) string {
	return "Sorted_" + archive.StemName(uploadName) + ".zip"
}

// SortArchive extracts the zip at uploadPath into a folder of job named after
// the upload, sorts that folder (or the single folder inside it) and packages
// the result as job's output archive. uploadName is the sanitized name the
// archive was uploaded under. When a publisher is configured the packaged
// archive is uploaded too; a failed upload is logged and does not fail the
// run.
func (r *Runner) SortArchive(ctx context.Context, job *staging.Job, uploadPath, uploadName string) (*Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger).With(logging.String("source", uploadName))
	logger.Info("archive sort started",
		logging.String("job", job.ID),
		logging.String(logging.FieldEventType, "run_started"),
	)

	result := &Result{
		RunID:     runID,
		Kind:      history.KindArchive,
		Root:      job.ExtractDir(),
		Source:    uploadName,
		StartedAt: r.now(),
	}
	runErr := r.sortArchive(ctx, result, job, uploadPath, uploadName)
	r.finish(ctx, result, runErr)
	return result, runErr
}

func (r *Runner) sortArchive(ctx context.Context, result *Result, job *staging.Job, uploadPath, uploadName string) error {
	logger := logging.WithContext(ctx, r.logger)

	target := filepath.Join(job.ExtractDir(), archive.StemName(uploadName))
	if err := os.Mkdir(target, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "workflow", "extract", "create target", err)
	}
	result.Root = target

	stats, err := archive.Extract(services.WithPhase(ctx, "extract"), uploadPath, target, archive.Limits{
		MaxEntries:           r.cfg.Archive.MaxEntries,
		MaxUncompressedBytes: r.cfg.MaxUncompressedBytes(),
	})
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			marker = services.ErrTransient
		}
		return services.Wrap(marker, "workflow", "extract", uploadName, err)
	}
	logger.Info("archive extracted",
		logging.Int("files", stats.Files),
		logging.Int("skipped", stats.Skipped),
		logging.Int64("bytes", stats.Bytes),
	)

	root, err := archive.ResolveRoot(target)
	if err != nil {
		return services.Wrap(services.ErrTransient, "workflow", "resolve root", "", err)
	}
	if root != target {
		logger.Info("sorting single top-level folder", logging.String(logging.FieldRoot, root))
	}
	result.Root = root

	if err := r.sortRoot(ctx, result, root); err != nil {
		return err
	}

	output := job.OutputPath(OutputName(uploadName))
	count, err := archive.Package(services.WithPhase(ctx, "package"), root, output)
	if err != nil {
		return services.Wrap(services.ErrTransient, "workflow", "package", "", err)
	}
	result.Output = output
	logger.Info("sorted archive packaged", logging.String("output", output), logging.Int("files", count))

	if r.publisher.Enabled() {
		artifact, err := r.publisher.Publish(services.WithPhase(ctx, "publish"), result.RunID, output)
		if err != nil {
			logging.WarnWithContext(logger, "sorted archive not published", "publish_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check publish settings and bucket access"),
				logging.String(logging.FieldImpact, "archive only available from this response"),
			)
		} else {
			result.Artifact = &artifact
			logger.Info("sorted archive published",
				logging.String("bucket", artifact.Bucket),
				logging.String("key", artifact.Key),
			)
		}
	}
	return nil
}
