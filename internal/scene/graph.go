package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Faultbox/bimview/pkg/math"
)

// ErrNotAttached is returned when detaching a node the graph does not hold.
var ErrNotAttached = errors.New("scene: node is not attached")

// Graph is the live scene: a root node whose direct children are the
// attached objects.
type Graph struct {
	mu   sync.Mutex
	root *Node
}

// NewGraph creates an empty scene.
func NewGraph() *Graph {
	return &Graph{root: NewGroup("scene")}
}

// Root returns the scene root.
func (g *Graph) Root() *Node {
	return g.root
}

// Attach adds node as a direct child of the scene root.
func (g *Graph) Attach(node *Node) error {
	if node == nil {
		return errors.New("scene: attach nil node")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.root.Add(node); err != nil {
		return fmt.Errorf("attaching %q: %w", node.Name, err)
	}
	return nil
}

// Detach removes node from the scene root.
func (g *Graph) Detach(node *Node) error {
	if node == nil {
		return errors.New("scene: detach nil node")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.root.Remove(node) {
		return fmt.Errorf("detaching %q: %w", node.Name, ErrNotAttached)
	}
	return nil
}

// Contains reports whether node is directly attached to the scene.
func (g *Graph) Contains(node *Node) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return node != nil && node.parent == g.root
}

// Len returns the number of attached objects.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.root.children)
}

// ComputeBounds returns the box around every drawable under root. ok is false
// if nothing under root has geometry.
func (g *Graph) ComputeBounds(root *Node) (math.Box3, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	box := math.EmptyBox()
	found := false
	root.Traverse(func(n *Node) {
		if !n.IsDrawable() {
			return
		}
		if b, ok := n.Geometry.Bounds(); ok {
			box.Union(b)
			found = true
		}
	})
	return box, found
}
