package api

import (
	"time"

	"foldersort/internal/history"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ClassifyRequest is the body of POST /api/classify.
type ClassifyRequest struct {
	Filenames []string `json:"filenames"`
}

// Classification is one filename with its resolved folders.
type Classification struct {
	Filename string `json:"filename"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

// ClassifyResponse lists classifications in request order.
type ClassifyResponse struct {
	Results []Classification `json:"results"`
}

// Run is a history entry in a transport-friendly format.
type Run struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Root         string    `json:"root"`
	Source       string    `json:"source,omitempty"`
	Status       string    `json:"status"`
	Planned      int       `json:"planned"`
	Moved        int       `json:"moved"`
	Unmoved      int       `json:"unmoved"`
	Directories  int       `json:"directories"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	ArtifactKey  string    `json:"artifactKey,omitempty"`
	StartedAt    string    `json:"startedAt"`
	FinishedAt   string    `json:"finishedAt"`
	DurationMS   int64     `json:"durationMs"`
	FailureCount int       `json:"failureCount"`
	Failures     []Failure `json:"failures,omitempty"`
}

// Failure is one recorded per-file or per-folder problem.
type Failure struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Category string `json:"category,omitempty"`
	Type     string `json:"type,omitempty"`
	File     string `json:"file,omitempty"`
	Path     string `json:"path,omitempty"`
	Skipped  int    `json:"skipped,omitempty"`
	Message  string `json:"message"`
}

// RunListResponse is the body of GET /api/runs.
type RunListResponse struct {
	Runs []Run `json:"runs"`
}

// RunResponse is the body of GET /api/runs/{id}.
type RunResponse struct {
	Run Run `json:"run"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	History bool   `json:"history"`
	Publish bool   `json:"publish"`
}

// FromHistoryRun converts a stored run.
func FromHistoryRun(run history.Run) Run {
	out := Run{
		ID:           run.ID,
		Kind:         run.Kind,
		Root:         run.Root,
		Source:       run.Source,
		Status:       run.Status,
		Planned:      run.Planned,
		Moved:        run.Moved,
		Unmoved:      run.Unmoved,
		Directories:  run.Directories,
		ErrorMessage: run.ErrorMessage,
		ArtifactKey:  run.ArtifactKey,
		StartedAt:    formatTime(run.StartedAt),
		FinishedAt:   formatTime(run.FinishedAt),
		DurationMS:   run.Duration().Milliseconds(),
		FailureCount: run.FailureCount,
	}
	for _, f := range run.Failures {
		out.Failures = append(out.Failures, Failure(f))
	}
	if out.FailureCount < len(out.Failures) {
		out.FailureCount = len(out.Failures)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
