package viewer

import (
	"fmt"

	"github.com/Faultbox/bimview/internal/engine/classify"
	"github.com/Faultbox/bimview/internal/engine/picking"
	"github.com/Faultbox/bimview/pkg/math"
)

// PickResult is the element hit by a ray.
type PickResult struct {
	ElementID uint32    `json:"elementId"`
	Class     string    `json:"class"`
	Name      string    `json:"name,omitempty"`
	GlobalID  string    `json:"globalId,omitempty"`
	Distance  float32   `json:"distance"`
	Point     math.Vec3 `json:"point"`
}

// PickElement returns the nearest visible attached element of a model whose
// bounds the ray hits. Ties go to the element listed first by the engine.
func (m *Manager) PickElement(id string, ray picking.Ray) (PickResult, bool, error) {
	m.mu.Lock()
	e, ok := m.models[id]
	m.mu.Unlock()

	if !ok {
		return PickResult{}, false, fmt.Errorf("pick element %s: %w", id, ErrModelNotFound)
	}

	var (
		best  PickResult
		found bool
	)
	for _, el := range e.asset.Elements {
		if el == nil {
			continue
		}
		n := el.Node
		if n == nil || !n.Visible || n.Parent() == nil || n.Geometry == nil {
			continue
		}
		b, ok := n.Geometry.Bounds()
		if !ok {
			continue
		}
		t, hit := ray.IntersectBox(b)
		if !hit || (found && t >= best.Distance) {
			continue
		}
		best = PickResult{
			ElementID: el.ID,
			Name:      el.Meta.Name,
			GlobalID:  el.Meta.GlobalID,
			Distance:  t,
			Point:     ray.At(t),
		}
		found = true
	}
	if !found {
		return PickResult{}, false, nil
	}

	best.Class, ok = m.classifier.ElementClass(id, best.ElementID)
	if !ok {
		best.Class = classify.UnclassifiedClass
	}
	return best, true, nil
}
