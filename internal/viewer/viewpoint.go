package viewer

import (
	"fmt"

	"github.com/Faultbox/bimview/pkg/math"
)

// FitViewpoint frames the bound viewpoint on the scene bounds of a model.
func (m *Manager) FitViewpoint(id string) error {
	m.mu.Lock()
	e, ok := m.models[id]
	port, vp := m.port, m.viewpoint
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("fit viewpoint %s: %w", id, ErrModelNotFound)
	}
	if port == nil || vp == nil {
		return fmt.Errorf("fit viewpoint %s: %w", id, ErrNotInitialized)
	}

	box := math.EmptyBox()
	found := false
	for _, n := range e.attached {
		if b, ok := port.ComputeBounds(n); ok {
			box.Union(b)
			found = true
		}
	}
	if !found {
		return nil
	}
	vp.FitToBox(box)
	return nil
}

// VisibleElementCount returns how many visible elements of a model intersect
// the bound viewpoint's frustum. Nodes that opt out of culling always count.
func (m *Manager) VisibleElementCount(id string) (int, error) {
	m.mu.Lock()
	e, ok := m.models[id]
	vp := m.viewpoint
	m.mu.Unlock()

	if !ok {
		return 0, fmt.Errorf("count visible %s: %w", id, ErrModelNotFound)
	}
	if vp == nil {
		return 0, fmt.Errorf("count visible %s: %w", id, ErrNotInitialized)
	}

	frustum := vp.Frustum(m.aspect)
	count := 0
	for _, el := range e.asset.Elements {
		if el == nil {
			continue
		}
		n := el.Node
		if n == nil || !n.Visible || n.Parent() == nil {
			continue
		}
		if !n.FrustumCulled {
			count++
			continue
		}
		if b, ok := n.Geometry.Bounds(); ok && frustum.IntersectsBox(b) {
			count++
		}
	}
	return count, nil
}
