package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	extractDirName = "extracted"
	outputDirName  = "output"
)

// Job is one isolated working directory. Uploads, extracted contents and the
// packaged result all live inside it so concurrent jobs never share paths.
type Job struct {
	ID  string
	Dir string
}

// NewJob creates work_dir/<id> with its extract and output subdirectories.
func NewJob(workDir string) (*Job, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, fmt.Errorf("new job: work directory not configured")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("new job: ensure work directory: %w", err)
	}

	id := uuid.NewString()
	job := &Job{ID: id, Dir: filepath.Join(workDir, id)}
	if err := os.Mkdir(job.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("new job: create %s: %w", job.Dir, err)
	}
	for _, sub := range []string{extractDirName, outputDirName} {
		if err := os.Mkdir(filepath.Join(job.Dir, sub), 0o755); err != nil {
			_ = os.RemoveAll(job.Dir)
			return nil, fmt.Errorf("new job: create %s: %w", sub, err)
		}
	}
	return job, nil
}

// UploadPath is where an uploaded file called name is stored.
func (j *Job) UploadPath(name string) string {
	return filepath.Join(j.Dir, name)
}

// ExtractDir receives the unpacked upload.
func (j *Job) ExtractDir() string {
	return filepath.Join(j.Dir, extractDirName)
}

// OutputPath is where a result file called name is written.
func (j *Job) OutputPath(name string) string {
	return filepath.Join(j.Dir, outputDirName, name)
}

// Cleanup removes the job directory and everything in it.
func (j *Job) Cleanup() error {
	if j == nil || j.Dir == "" {
		return nil
	}
	return os.RemoveAll(j.Dir)
}

// IsJobDir reports whether name looks like a directory created by NewJob.
func IsJobDir(name string) bool {
	_, err := uuid.Parse(name)
	return err == nil
}
