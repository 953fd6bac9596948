package workflow

import (
	"time"

	"foldersort/internal/history"
	"foldersort/internal/notifications"
	"foldersort/internal/publish"
	"foldersort/internal/sorter"
)

// Result is the outcome of one run.
type Result struct {
	RunID      string            `json:"run_id"`
	Kind       string            `json:"kind"`
	Root       string            `json:"root"`
	Source     string            `json:"source,omitempty"`
	Status     string            `json:"status"`
	Report     *sorter.Report    `json:"report,omitempty"`
	Output     string            `json:"output,omitempty"`
	Artifact   *publish.Artifact `json:"artifact,omitempty"`
	Err        string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// statusFor derives the history status from a report and the run error.
func statusFor(report *sorter.Report, err error) string {
	switch {
	case report != nil && report.Canceled:
		return history.StatusCanceled
	case err != nil || report == nil:
		return history.StatusFailed
	case len(report.Errors()) > 0:
		return history.StatusPartial
	default:
		return history.StatusSucceeded
	}
}

func (r *Result) historyRun() history.Run {
	run := history.Run{
		ID:           r.RunID,
		Kind:         r.Kind,
		Root:         r.Root,
		Source:       r.Source,
		Status:       r.Status,
		ErrorMessage: r.Err,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
	if r.Artifact != nil {
		run.ArtifactKey = r.Artifact.Key
	}
	if rep := r.Report; rep != nil {
		run.Planned = rep.Planned
		run.Moved = rep.Moved
		run.Unmoved = rep.Unmoved
		run.Directories = rep.Directories
		for _, f := range rep.Failures {
			run.Failures = append(run.Failures, history.Failure{
				Kind:     string(f.Kind),
				Severity: string(f.Severity),
				Category: f.Category,
				Type:     f.Type,
				File:     f.File,
				Path:     f.Path,
				Skipped:  f.Skipped,
				Message:  f.Message,
			})
		}
	}
	return run
}

func (r *Result) summary() notifications.Summary {
	s := notifications.Summary{
		RunID:    r.RunID,
		Kind:     r.Kind,
		Root:     r.Root,
		Source:   r.Source,
		Status:   r.Status,
		Duration: r.Duration(),
		Err:      r.Err,
	}
	if rep := r.Report; rep != nil {
		s.Planned = rep.Planned
		s.Moved = rep.Moved
		s.Failures = len(rep.Failures)
	}
	return s
}
