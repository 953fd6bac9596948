package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"foldersort/internal/logging"
)

func TestNewJobLayoutAndCleanup(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "work")
	job, err := NewJob(workDir)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if !IsJobDir(job.ID) {
		t.Fatalf("job id %q is not recognized as a job dir", job.ID)
	}
	for _, dir := range []string{job.ExtractDir(), filepath.Dir(job.OutputPath("x.zip"))} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", dir, err)
		}
	}
	if filepath.Dir(job.UploadPath("in.zip")) != job.Dir {
		t.Fatalf("upload path outside job dir: %s", job.UploadPath("in.zip"))
	}

	other, err := NewJob(workDir)
	if err != nil {
		t.Fatalf("second NewJob: %v", err)
	}
	if other.Dir == job.Dir {
		t.Fatal("jobs must not share a directory")
	}

	if err := job.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(job.Dir); !os.IsNotExist(err) {
		t.Fatalf("job dir should be gone, err=%v", err)
	}
}

func TestNewJobRequiresWorkDir(t *testing.T) {
	if _, err := NewJob("  "); err == nil {
		t.Fatal("expected error for empty work dir")
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOnlyOldJobDirectories(t *testing.T) {
	workDir := t.TempDir()

	oldJob, err := NewJob(workDir)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	recentJob, err := NewJob(workDir)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	foreign := filepath.Join(workDir, "keep-me")
	if err := os.Mkdir(foreign, 0o755); err != nil {
		t.Fatalf("create foreign dir: %v", err)
	}

	oldTime := time.Now().Add(-2 * time.Hour)
	for _, dir := range []string{oldJob.Dir, foreign} {
		if err := os.Chtimes(dir, oldTime, oldTime); err != nil {
			t.Fatalf("set old time: %v", err)
		}
	}

	result := CleanStale(context.Background(), workDir, time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != oldJob.Dir {
		t.Fatalf("expected only %s removed, got %v", oldJob.Dir, result.Removed)
	}
	if _, err := os.Stat(recentJob.Dir); err != nil {
		t.Error("recent job directory should still exist")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("directories not created by NewJob must be left alone")
	}
}

func TestListDirectories(t *testing.T) {
	dirs, err := ListDirectories("/nonexistent/path/12345")
	if err != nil || dirs != nil {
		t.Fatalf("expected nil result for missing dir, got %v %v", dirs, err)
	}

	workDir := t.TempDir()
	job, err := NewJob(workDir)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := os.WriteFile(job.UploadPath("in.zip"), []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirs, err = ListDirectories(workDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 1 || dirs[0].Name != job.ID || dirs[0].Size != 5 {
		t.Fatalf("unexpected listing: %+v", dirs)
	}
}

func TestLockRootExcludesSecondHolder(t *testing.T) {
	stateDir := t.TempDir()
	root := t.TempDir()

	first, err := LockRoot(context.Background(), stateDir, root, 0)
	if err != nil {
		t.Fatalf("LockRoot: %v", err)
	}

	_, err = LockRoot(context.Background(), stateDir, root, 250*time.Millisecond)
	if !errors.Is(err, ErrRootBusy) {
		t.Fatalf("expected ErrRootBusy, got %v", err)
	}

	otherRoot := t.TempDir()
	other, err := LockRoot(context.Background(), stateDir, otherRoot, 0)
	if err != nil {
		t.Fatalf("lock on a different root should succeed: %v", err)
	}
	_ = other.Unlock()

	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	again, err := LockRoot(context.Background(), stateDir, root, 0)
	if err != nil {
		t.Fatalf("relock after unlock: %v", err)
	}
	_ = again.Unlock()
}

func TestLockPathIsStablePerRoot(t *testing.T) {
	a, err := LockPath("/state", "/data/course")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := LockPath("/state", "/data/course/")
	c, _ := LockPath("/state", "/data/other")
	if a != b {
		t.Fatalf("equivalent roots produced different lock paths: %s vs %s", a, b)
	}
	if a == c {
		t.Fatal("distinct roots share a lock path")
	}
}
