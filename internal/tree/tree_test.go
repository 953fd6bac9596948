package tree_test

import (
	"errors"
	"reflect"
	"testing"

	"foldersort/internal/tree"
)

func TestInsertIsIdempotent(t *testing.T) {
	tr := tree.New()
	first, err := tr.Insert("Statistics", "Other", "notes.txt")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second, err := tr.Insert("Statistics", "Other", "notes.txt")
	if err != nil {
		t.Fatalf("Insert again: %v", err)
	}
	if first != second {
		t.Fatal("expected the same leaf node on repeated insert")
	}

	stats := tr.Stats()
	if stats != (tree.Stats{Categories: 1, Types: 1, Files: 1}) {
		t.Fatalf("unexpected stats after duplicate insert: %+v", stats)
	}
	if !first.IsLeaf() || first.Len() != 0 {
		t.Fatalf("expected childless leaf, got kind %s with %d children", first.Kind(), first.Len())
	}
}

func TestInsertSharesIntermediateNodes(t *testing.T) {
	tr := tree.New()
	mustInsert(t, tr, "Code Club", "Code", "a.py")
	mustInsert(t, tr, "Code Club", "Code", "b.py")
	mustInsert(t, tr, "Code Club", "Videos", "intro.mp4")

	categories := tr.Categories()
	if len(categories) != 1 {
		t.Fatalf("expected one category, got %d", len(categories))
	}
	code, ok := categories[0].Child("Code")
	if !ok {
		t.Fatal("missing Code type node")
	}
	if code.Len() != 2 {
		t.Fatalf("expected two files under Code, got %d", code.Len())
	}
	if code.Kind() != tree.KindType || categories[0].Kind() != tree.KindCategory {
		t.Fatalf("unexpected kinds: %s / %s", categories[0].Kind(), code.Kind())
	}
}

func TestTraversalFollowsInsertionOrder(t *testing.T) {
	tr := tree.New()
	mustInsert(t, tr, "Zeta", "Other", "z.txt")
	mustInsert(t, tr, "Alpha", "Code", "a.c")
	mustInsert(t, tr, "Zeta", "Code", "y.c")
	mustInsert(t, tr, "Alpha", "Code", "0.c")

	want := []tree.Entry{
		{Category: "Zeta", Type: "Other", File: "z.txt"},
		{Category: "Zeta", Type: "Code", File: "y.c"},
		{Category: "Alpha", Type: "Code", File: "a.c"},
		{Category: "Alpha", Type: "Code", File: "0.c"},
	}
	for i := 0; i < 3; i++ {
		if got := tr.Entries(); !reflect.DeepEqual(got, want) {
			t.Fatalf("traversal %d: got %+v want %+v", i, got, want)
		}
	}
}

func TestPinCreatesEmptyCategory(t *testing.T) {
	tr := tree.New()
	if err := tr.Pin("Unsorted"); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	mustInsert(t, tr, "Unsorted", "Other", "random.txt")

	categories := tr.Categories()
	if len(categories) != 1 || !categories[0].Pinned() {
		t.Fatalf("expected a single pinned category, got %d", len(categories))
	}
	if tr.Stats().Files != 1 {
		t.Fatalf("expected file inserted under pinned category")
	}
}

func TestInsertRejectsEmptyNames(t *testing.T) {
	tr := tree.New()
	_, err := tr.Insert("Cat", "", "x.txt")
	var insertErr *tree.InsertError
	if !errors.As(err, &insertErr) {
		t.Fatalf("expected InsertError, got %v", err)
	}
}

func TestStateTransitions(t *testing.T) {
	tr := tree.New()
	if tr.State() != tree.StateEmpty {
		t.Fatalf("new tree state = %s", tr.State())
	}
	if err := tr.MarkExecuted(); !errors.Is(err, tree.ErrNotBuilt) {
		t.Fatalf("expected ErrNotBuilt, got %v", err)
	}
	if err := tr.MarkBuilt(); err != nil {
		t.Fatalf("MarkBuilt: %v", err)
	}
	if err := tr.MarkBuilt(); err == nil {
		t.Fatal("expected second MarkBuilt to fail")
	}
	if err := tr.MarkExecuted(); err != nil {
		t.Fatalf("MarkExecuted: %v", err)
	}
	if err := tr.MarkExecuted(); !errors.Is(err, tree.ErrAlreadyExecuted) {
		t.Fatalf("expected ErrAlreadyExecuted, got %v", err)
	}
	if _, err := tr.Insert("a", "b", "c"); !errors.Is(err, tree.ErrAlreadyExecuted) {
		t.Fatalf("expected insert after execute to fail, got %v", err)
	}
}

func mustInsert(t *testing.T, tr *tree.Tree, category, fileType, file string) {
	t.Helper()
	if _, err := tr.Insert(category, fileType, file); err != nil {
		t.Fatalf("Insert(%q, %q, %q): %v", category, fileType, file, err)
	}
}
