package tree

import "fmt"

// Kind identifies the level a node occupies in the classification tree.
type Kind int

const (
	KindRoot Kind = iota
	KindCategory
	KindType
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindCategory:
		return "category"
	case KindType:
		return "type"
	case KindLeaf:
		return "file"
	default:
		return "unknown"
	}
}

// child returns the kind expected one level below k.
func (k Kind) child() (Kind, bool) {
	switch k {
	case KindRoot:
		return KindCategory, true
	case KindCategory:
		return KindType, true
	case KindType:
		return KindLeaf, true
	default:
		return 0, false
	}
}

// Node is a named vertex. Children keep insertion order so traversal is
// reproducible; the index map gives constant-time get-or-create.
type Node struct {
	name     string
	kind     Kind
	pinned   bool
	children []*Node
	index    map[string]int
}

func newNode(name string, kind Kind) *Node {
	return &Node{name: name, kind: kind}
}

func (n *Node) Name() string { return n.name }

func (n *Node) Kind() Kind { return n.kind }

// IsLeaf reports whether the node represents an actual file.
func (n *Node) IsLeaf() bool { return n.kind == KindLeaf }

// Pinned reports whether the node must be materialized even without children.
func (n *Node) Pinned() bool { return n.pinned }

// Len returns the number of direct children.
func (n *Node) Len() int { return len(n.children) }

// Children returns the direct children in insertion order. The slice is a
// copy; the nodes are shared.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child looks up a direct child by name.
func (n *Node) Child(name string) (*Node, bool) {
	i, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

// getOrCreate returns the existing child called name or appends a new one of
// the next kind down. Leaves cannot have children.
func (n *Node) getOrCreate(name string) (*Node, bool, error) {
	kind, ok := n.kind.child()
	if !ok {
		return nil, false, &InsertError{Parent: n.name, Name: name, Reason: "file nodes cannot have children"}
	}
	if name == "" {
		return nil, false, &InsertError{Parent: n.name, Name: name, Reason: "name is empty"}
	}
	if existing, found := n.Child(name); found {
		return existing, false, nil
	}
	if n.index == nil {
		n.index = make(map[string]int)
	}
	child := newNode(name, kind)
	n.index[name] = len(n.children)
	n.children = append(n.children, child)
	return child, true, nil
}

// InsertError reports an insertion that would break the tree shape.
type InsertError struct {
	Parent string
	Name   string
	Reason string
}

func (e *InsertError) Error() string {
	return fmt.Sprintf("tree: insert %q under %q: %s", e.Name, e.Parent, e.Reason)
}
