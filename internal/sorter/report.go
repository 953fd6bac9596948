package sorter

import (
	"fmt"
	"time"
)

// FailureKind identifies what went wrong during execution.
type FailureKind string

const (
	// KindDirectory means a category or type folder could not be created.
	// Every file planned under that folder was left in place.
	KindDirectory FailureKind = "directory"
	// KindMissingSource means the file was gone by the time it was moved.
	KindMissingSource FailureKind = "missing_source"
	// KindDestinationExists means a file with the same name already sits in
	// the destination folder.
	KindDestinationExists FailureKind = "destination_exists"
	// KindMoveFailed covers every other move failure.
	KindMoveFailed FailureKind = "move_failed"
)

// Severity separates benign skips from real failures.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Failure is one recorded problem. For directory failures File is empty and
// Skipped counts the files that stayed in the root because of it.
type Failure struct {
	Kind     FailureKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Category string      `json:"category"`
	Type     string      `json:"type,omitempty"`
	File     string      `json:"file,omitempty"`
	Path     string      `json:"path"`
	Skipped  int         `json:"skipped,omitempty"`
	Message  string      `json:"message"`
	Err      error       `json:"-"`
}

func (f Failure) Error() string {
	if f.File != "" {
		return fmt.Sprintf("%s: %s: %s", f.Kind, f.File, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.Kind, f.Path, f.Message)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes one execution.
type Report struct {
	Root        string        `json:"root"`
	Planned     int           `json:"planned"`
	Moved       int           `json:"moved"`
	Unmoved     int           `json:"unmoved"`
	Directories int           `json:"directories"`
	Skipped     []string      `json:"skipped_categories,omitempty"`
	Failures    []Failure     `json:"failures,omitempty"`
	Canceled    bool          `json:"canceled,omitempty"`
	Duration    time.Duration `json:"duration"`
}

func (r *Report) add(f Failure) {
	if f.Err != nil && f.Message == "" {
		f.Message = f.Err.Error()
	}
	r.Failures = append(r.Failures, f)
}

// Warnings returns the failures recorded as warnings.
func (r *Report) Warnings() []Failure {
	return r.filter(SeverityWarning)
}

// Errors returns the failures recorded as errors.
func (r *Report) Errors() []Failure {
	return r.filter(SeverityError)
}

func (r *Report) filter(severity Severity) []Failure {
	var out []Failure
	for _, f := range r.Failures {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}

// OK reports whether every planned file was moved.
func (r *Report) OK() bool {
	return !r.Canceled && len(r.Failures) == 0
}
