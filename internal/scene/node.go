// Package scene provides the in-memory scene graph that building models are
// attached to. Nodes form a tree; drawable nodes carry a geometry and one or
// more materials, light and helper nodes carry a release hook.
package scene

import (
	"errors"
)

// ErrCycle is returned when adding a node would make it its own ancestor.
var ErrCycle = errors.New("scene: node cannot be added below itself")

// Kind identifies what a node represents.
type Kind int

const (
	KindGroup         Kind = iota // Container without geometry
	KindMesh                      // Drawable geometry
	KindInstancedMesh             // Drawable geometry drawn several times
	KindLight                     // Light source
	KindHelper                    // Debug or editor helper
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "Group"
	case KindMesh:
		return "Mesh"
	case KindInstancedMesh:
		return "InstancedMesh"
	case KindLight:
		return "Light"
	case KindHelper:
		return "Helper"
	default:
		return "Unknown"
	}
}

// Node is one object in the scene tree.
type Node struct {
	Name string
	Kind Kind

	Visible       bool
	FrustumCulled bool

	Geometry      *Geometry
	Materials     []*Material
	InstanceCount int

	// UserData carries loosely-typed metadata copied from the source file.
	UserData map[string]string

	// Release frees light/helper resources. Optional.
	Release func() error

	parent   *Node
	children []*Node
}

// NewGroup creates an empty visible group node.
func NewGroup(name string) *Node {
	return &Node{Name: name, Kind: KindGroup, Visible: true}
}

// NewMesh creates a visible drawable node.
func NewMesh(name string, geo *Geometry, materials ...*Material) *Node {
	return &Node{
		Name:      name,
		Kind:      KindMesh,
		Visible:   true,
		Geometry:  geo,
		Materials: materials,
	}
}

// Parent returns the node's parent, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the node's children.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Add appends child to n, removing it from any previous parent first.
func (n *Node) Add(child *Node) error {
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Remove detaches child from n. It reports whether child was found.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// IsDrawable reports whether the node renders geometry.
func (n *Node) IsDrawable() bool {
	return n.Kind == KindMesh || n.Kind == KindInstancedMesh
}

// Traverse calls fn for n and every descendant, depth first, parents before children.
// The child list is snapshotted per node so fn may detach nodes safely.
func (n *Node) Traverse(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children() {
		c.Traverse(fn)
	}
}

// SetMeta stores a metadata value, allocating UserData on first use.
func (n *Node) SetMeta(key, value string) {
	if n.UserData == nil {
		n.UserData = make(map[string]string)
	}
	n.UserData[key] = value
}
