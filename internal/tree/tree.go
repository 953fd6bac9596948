// Package tree holds the in-memory plan of a sort run: a fixed-depth
// hierarchy of root, category, type and file nodes built before any
// filesystem change is made.
package tree

import (
	"errors"
	"fmt"
)

// State tracks where a tree is in its build/execute lifecycle.
type State int

const (
	StateEmpty State = iota
	StateBuilt
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBuilt:
		return "built"
	case StateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrNotBuilt is returned when a tree is executed before being built.
	ErrNotBuilt = errors.New("tree has not been built")
	// ErrAlreadyExecuted is returned when a tree is executed a second time.
	ErrAlreadyExecuted = errors.New("tree has already been executed")
)

// Tree is the classification plan for one root directory. It is owned by a
// single run and is not safe for concurrent mutation.
type Tree struct {
	root  *Node
	state State
}

// New returns an empty tree holding only the root sentinel.
func New() *Tree {
	return &Tree{root: newNode("", KindRoot)}
}

// Root returns the root sentinel node.
func (t *Tree) Root() *Node { return t.root }

// State reports the lifecycle state.
func (t *Tree) State() State { return t.state }

// Insert places file under category/type, creating intermediate nodes as
// needed. Inserting an existing path returns the existing leaf unchanged.
func (t *Tree) Insert(category, fileType, file string) (*Node, error) {
	if t.state == StateExecuted {
		return nil, ErrAlreadyExecuted
	}
	categoryNode, _, err := t.root.getOrCreate(category)
	if err != nil {
		return nil, err
	}
	typeNode, _, err := categoryNode.getOrCreate(fileType)
	if err != nil {
		return nil, err
	}
	leaf, _, err := typeNode.getOrCreate(file)
	if err != nil {
		return nil, err
	}
	return leaf, nil
}

// Pin ensures a category node exists and marks it to be materialized even
// when no file lands in it.
func (t *Tree) Pin(category string) error {
	if t.state == StateExecuted {
		return ErrAlreadyExecuted
	}
	node, _, err := t.root.getOrCreate(category)
	if err != nil {
		return err
	}
	node.pinned = true
	return nil
}

// Categories returns the category nodes in insertion order.
func (t *Tree) Categories() []*Node {
	return t.root.Children()
}

// MarkBuilt moves an empty tree into the built state.
func (t *Tree) MarkBuilt() error {
	if t.state != StateEmpty {
		return fmt.Errorf("mark built: tree is %s", t.state)
	}
	t.state = StateBuilt
	return nil
}

// MarkExecuted moves a built tree into the terminal executed state.
func (t *Tree) MarkExecuted() error {
	switch t.state {
	case StateEmpty:
		return ErrNotBuilt
	case StateExecuted:
		return ErrAlreadyExecuted
	}
	t.state = StateExecuted
	return nil
}

// Entry is one file leaf together with its resolved folders.
type Entry struct {
	Category string
	Type     string
	File     string
}

// Walk calls fn for every leaf in traversal order and stops at the first
// error fn returns.
func (t *Tree) Walk(fn func(Entry) error) error {
	for _, category := range t.root.children {
		for _, fileType := range category.children {
			for _, leaf := range fileType.children {
				if err := fn(Entry{Category: category.name, Type: fileType.name, File: leaf.name}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Entries returns every leaf in traversal order.
func (t *Tree) Entries() []Entry {
	var out []Entry
	_ = t.Walk(func(e Entry) error {
		out = append(out, e)
		return nil
	})
	return out
}

// Stats summarizes node counts per level.
type Stats struct {
	Categories int `json:"categories"`
	Types      int `json:"types"`
	Files      int `json:"files"`
}

// Stats counts nodes at each level.
func (t *Tree) Stats() Stats {
	var s Stats
	for _, category := range t.root.children {
		s.Categories++
		for _, fileType := range category.children {
			s.Types++
			s.Files += len(fileType.children)
		}
	}
	return s
}

// IsEmpty reports whether the tree has no category nodes at all.
func (t *Tree) IsEmpty() bool {
	return len(t.root.children) == 0
}
