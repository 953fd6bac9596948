package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"foldersort/internal/fileutil"
	"foldersort/internal/history"
	"foldersort/internal/testsupport"
	"foldersort/internal/workflow"
)

func TestClassifyCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"classify", "--json", "DSA-Lecture1.pdf", "random.txt"}, env.configPath)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var results []classification
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	want := []classification{
		{File: "DSA-Lecture1.pdf", Category: "Data Structures and Algorithms", Type: "Lecture Notes (PDF)"},
		{File: "random.txt", Category: "Unsorted", Type: "Other"},
	}
	if !slices.Equal(results, want) {
		t.Fatalf("results = %+v, want %+v", results, want)
	}
}

func TestClassifyCommandRequiresName(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"classify"}, env.configPath); err == nil {
		t.Fatal("expected error without filenames")
	}
}

func TestPlanCommandLeavesFilesInPlace(t *testing.T) {
	env := setupCLITestEnv(t)
	root := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFiles(t, root, "DSA-Lecture1.pdf", "random.txt")

	out, _, err := runCLI(t, []string{"plan", root}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Data Structures and Algorithms")
	requireContains(t, out, "2 files into 2 categories")
	requireFile(t, filepath.Join(root, "DSA-Lecture1.pdf"))
	requireFile(t, filepath.Join(root, "random.txt"))
}

func TestPlanCommandEmptyDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	root := filepath.Join(env.baseDir, "empty")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	out, _, err := runCLI(t, []string{"plan", root}, env.configPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Nothing to sort")
}

func TestSortCommandMovesFilesAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	root := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFiles(t, root, "DSA-Lecture1.pdf", "random.txt")

	out, _, err := runCLI(t, []string{"sort", "--json", root}, env.configPath)
	if err != nil {
		t.Fatalf("sort: %v", err)
	}
	var result workflow.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Status != history.StatusSucceeded {
		t.Fatalf("status = %q, want %q", result.Status, history.StatusSucceeded)
	}
	if result.Report == nil || result.Report.Moved != 2 {
		t.Fatalf("report = %+v, want 2 moved", result.Report)
	}
	requireFile(t, filepath.Join(root, "Data Structures and Algorithms", "Lecture Notes (PDF)", "DSA-Lecture1.pdf"))
	requireFile(t, filepath.Join(root, "Unsorted", "Other", "random.txt"))

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].ID != result.RunID {
		t.Fatalf("history = %+v, want run %s", runs, result.RunID)
	}

	out, _, err = runCLI(t, []string{"history", result.RunID}, env.configPath)
	if err != nil {
		t.Fatalf("history run: %v", err)
	}
	requireContains(t, out, result.RunID)
	requireContains(t, out, "succeeded")
}

func TestSortCommandFailsOnCollision(t *testing.T) {
	env := setupCLITestEnv(t)
	root := filepath.Join(env.baseDir, "inbox")
	testsupport.WriteFiles(t, root, "random.txt")
	testsupport.WriteFiles(t, filepath.Join(root, "Unsorted", "Other"), "random.txt")

	out, _, err := runCLI(t, []string{"sort", root}, env.configPath)
	if !errors.Is(err, errRunFailed) {
		t.Fatalf("sort error = %v, want errRunFailed", err)
	}
	requireContains(t, out, "partial")
	requireContains(t, out, "random.txt")
	requireFile(t, filepath.Join(root, "random.txt"))
}

func TestSortCommandMissingRoot(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"sort", filepath.Join(env.baseDir, "missing")}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestArchiveCommandWritesSortedArchive(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "course.zip")
	testsupport.WriteZip(t, input, "course/", "course/dsa-notes.pdf", "course/random.txt")

	out, _, err := runCLI(t, []string{"archive", input}, env.configPath)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	output := filepath.Join(env.baseDir, "Sorted_course.zip")
	requireContains(t, out, output)

	names := testsupport.ZipNames(t, output)
	for _, want := range []string{
		"course/Data Structures and Algorithms/Lecture Notes (PDF)/dsa-notes.pdf",
		"course/Unsorted/Other/random.txt",
	} {
		if !slices.Contains(names, want) {
			t.Fatalf("archive entries %v missing %q", names, want)
		}
	}

	entries, err := os.ReadDir(env.cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected job directory cleaned up, found %d entries", len(entries))
	}
}

func TestArchiveCommandRefusesExistingOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "course.zip")
	testsupport.WriteZip(t, input, "notes.txt")
	output := filepath.Join(env.baseDir, "out.zip")
	testsupport.WriteFiles(t, env.baseDir, "out.zip")

	if _, _, err := runCLI(t, []string{"archive", input, "-o", output}, env.configPath); err == nil {
		t.Fatal("expected error for existing output")
	}
}

func TestArchiveCommandRejectsNonZip(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "notes.txt")
	testsupport.WriteFiles(t, env.baseDir, "notes.txt")
	if _, _, err := runCLI(t, []string{"archive", input}, env.configPath); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestHistoryCommandUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"history", "does-not-exist"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestDoctorCommandReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor", "--bind"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Work directory")
	requireContains(t, out, "API bind address")
	requireContains(t, out, "Staged jobs")
	requireContains(t, out, "[OK]")
}

func TestArchiveCommandMissingInput(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"archive", filepath.Join(env.baseDir, "absent.zip")}, env.configPath)
	if !errors.Is(err, fileutil.ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}
