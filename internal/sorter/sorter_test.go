package sorter_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"foldersort/internal/sorter"
	"foldersort/internal/tree"
)

func TestSortMovesFilesIntoCategoryAndType(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "DSA-Lecture1.pdf"), "lecture")
	writeFile(t, filepath.Join(root, "random.txt"), "random")

	s := sorter.New(nil, nil)
	ctx := context.Background()
	tr, err := s.Build(ctx, root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	report, err := s.Execute(ctx, tr, root)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !report.OK() || report.Moved != 2 || report.Planned != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	assertContent(t, filepath.Join(root, "Data Structures and Algorithms", "Lecture Notes (PDF)", "DSA-Lecture1.pdf"), "lecture")
	assertContent(t, filepath.Join(root, "Unsorted", "Other", "random.txt"), "random")
	assertMissing(t, filepath.Join(root, "DSA-Lecture1.pdf"))
	assertMissing(t, filepath.Join(root, "random.txt"))
	if tr.State() != tree.StateExecuted {
		t.Fatalf("tree state = %s, want executed", tr.State())
	}
}

func TestBuildSkipsNonRegularEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "notes.md"), "x")
	if err := os.Mkdir(filepath.Join(root, "dsa-archive"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "dsa-archive", "inner.pdf"), "x")
	if err := os.Symlink(filepath.Join(root, "notes.md"), filepath.Join(root, "link.md")); err != nil {
		t.Fatal(err)
	}

	tr, err := sorter.New(nil, nil).Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	entries := tr.Entries()
	if len(entries) != 1 || entries[0].File != "notes.md" {
		t.Fatalf("expected only notes.md to be planned, got %+v", entries)
	}
}

func TestBuildReportsUnreadableRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := sorter.New(nil, nil).Build(context.Background(), missing)
	var buildErr *sorter.BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("expected BuildError, got %v", err)
	}
	if buildErr.Root != missing || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected build error: %+v", buildErr)
	}

	file := filepath.Join(t.TempDir(), "plain.txt")
	writeFile(t, file, "x")
	if _, err := sorter.New(nil, nil).Build(context.Background(), file); !errors.As(err, &buildErr) {
		t.Fatalf("expected BuildError for non-directory root, got %v", err)
	}
}

func TestExecuteEmptyRootIsNoop(t *testing.T) {
	root := t.TempDir()
	s := sorter.New(nil, nil)
	tr, err := s.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	report, err := s.Execute(context.Background(), tr, root)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Planned != 0 || report.Directories != 0 {
		t.Fatalf("unexpected report for empty root: %+v", report)
	}
	assertDirEntries(t, root, 0)
}

func TestDefaultCategoryIsLazyUnlessPinned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "DSA-Lecture1.pdf"), "x")
	s := sorter.New(nil, nil)
	tr, err := s.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := s.Execute(context.Background(), tr, root); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	assertMissing(t, filepath.Join(root, "Unsorted"))

	pinnedRoot := t.TempDir()
	pinned := sorter.New(nil, nil, sorter.WithAlwaysCreateDefault(true))
	tr, err = pinned.Build(context.Background(), pinnedRoot)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := pinned.Execute(context.Background(), tr, pinnedRoot); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	info, err := os.Stat(filepath.Join(pinnedRoot, "Unsorted"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected pinned default category folder, err=%v", err)
	}
}

func TestExecuteRecordsMissingSourceAsWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "random.txt"), "x")
	s := sorter.New(nil, nil)
	tr, err := s.Plan([]string{"gone.txt", "random.txt"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	report, err := s.Execute(context.Background(), tr, root)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Moved != 1 || report.Unmoved != 1 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	warnings := report.Warnings()
	if len(warnings) != 1 || warnings[0].Kind != sorter.KindMissingSource || warnings[0].File != "gone.txt" {
		t.Fatalf("expected missing source warning, got %+v", report.Failures)
	}
	if len(report.Errors()) != 0 {
		t.Fatalf("missing source must not be an error: %+v", report.Errors())
	}
	assertContent(t, filepath.Join(root, "Unsorted", "Other", "random.txt"), "x")
}

func TestExecuteNeverOverwritesDestination(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "Unsorted", "Other", "random.txt")
	if err := os.MkdirAll(filepath.Dir(existing), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, existing, "already sorted")
	writeFile(t, filepath.Join(root, "random.txt"), "new copy")

	s := sorter.New(nil, nil)
	tr, err := s.Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	report, err := s.Execute(context.Background(), tr, root)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	errs := report.Errors()
	if len(errs) != 1 || errs[0].Kind != sorter.KindDestinationExists {
		t.Fatalf("expected collision error, got %+v", report.Failures)
	}
	assertContent(t, existing, "already sorted")
	assertContent(t, filepath.Join(root, "random.txt"), "new copy")
}

func TestExecuteDirectoryFailureSkipsBranchOnly(t *testing.T) {
	root := t.TempDir()
	// A plain file squats on the default category folder name.
	writeFile(t, filepath.Join(root, "Unsorted"), "blocker")
	writeFile(t, filepath.Join(root, "random.txt"), "x")
	writeFile(t, filepath.Join(root, "setup.exe"), "x")
	writeFile(t, filepath.Join(root, "DSA-Lecture1.pdf"), "x")

	s := sorter.New(nil, nil)
	tr, err := s.Plan([]string{"random.txt", "setup.exe", "DSA-Lecture1.pdf"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	report, err := s.Execute(context.Background(), tr, root)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	errs := report.Errors()
	if len(errs) != 1 || errs[0].Kind != sorter.KindDirectory || errs[0].Skipped != 2 {
		t.Fatalf("expected one directory failure covering two files, got %+v", report.Failures)
	}
	if report.Moved != 1 || report.Unmoved != 2 {
		t.Fatalf("unexpected counts: %+v", report)
	}
	assertContent(t, filepath.Join(root, "random.txt"), "x")
	assertContent(t, filepath.Join(root, "setup.exe"), "x")
	assertContent(t, filepath.Join(root, "Data Structures and Algorithms", "Lecture Notes (PDF)", "DSA-Lecture1.pdf"), "x")
}

func TestExecuteRejectsMisuse(t *testing.T) {
	s := sorter.New(nil, nil)
	root := t.TempDir()

	if _, err := s.Execute(context.Background(), tree.New(), root); !errors.Is(err, tree.ErrNotBuilt) {
		t.Fatalf("expected ErrNotBuilt, got %v", err)
	}

	tr, err := s.Plan(nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if _, err := s.Execute(context.Background(), tr, root); err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if _, err := s.Execute(context.Background(), tr, root); !errors.Is(err, tree.ErrAlreadyExecuted) {
		t.Fatalf("expected ErrAlreadyExecuted, got %v", err)
	}
}

func TestExecuteStopsOnCanceledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "random.txt"), "x")
	s := sorter.New(nil, nil)
	tr, err := s.Plan([]string{"random.txt"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := s.Execute(ctx, tr, root)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil || !report.Canceled || report.Moved != 0 || report.Unmoved != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	assertContent(t, filepath.Join(root, "random.txt"), "x")
}

func TestSortingTwiceIsStable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ml-intro.py"), "x")
	s := sorter.New(nil, nil)
	for i := 0; i < 2; i++ {
		tr, err := s.Build(context.Background(), root)
		if err != nil {
			t.Fatalf("Build %d: %v", i, err)
		}
		report, err := s.Execute(context.Background(), tr, root)
		if err != nil {
			t.Fatalf("Execute %d: %v", i, err)
		}
		if !report.OK() {
			t.Fatalf("run %d reported failures: %+v", i, report.Failures)
		}
	}
	assertContent(t, filepath.Join(root, "Machine Learning (ML)", "Code", "ml-intro.py"), "x")
	assertDirEntries(t, root, 1)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func assertContent(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if string(data) != want {
		t.Fatalf("%s content = %q, want %q", path, data, want)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to be absent, err=%v", path, err)
	}
}

func assertDirEntries(t *testing.T, dir string, want int) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	if len(entries) != want {
		t.Fatalf("%s has %d entries, want %d", dir, len(entries), want)
	}
}

func TestPlanRejectsNamesOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	writeFile(t, filepath.Join(parent, "outside.txt"), "keep")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	s := sorter.New(nil, nil)

	for _, name := range []string{"../outside.txt", "sub/file.txt", "/etc/passwd", ".", ".."} {
		tr, err := s.Plan([]string{"random.txt", name})
		var insertErr *tree.InsertError
		if !errors.As(err, &insertErr) {
			t.Fatalf("Plan(%q): expected *tree.InsertError, got %v", name, err)
		}
		if tr != nil {
			t.Fatalf("Plan(%q): expected no tree", name)
		}
	}
	assertContent(t, filepath.Join(parent, "outside.txt"), "keep")
}
