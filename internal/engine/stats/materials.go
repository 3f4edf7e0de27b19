package stats

import (
	"github.com/Faultbox/bimview/internal/scene"
)

// FixMaterialVisibility forces every material visible and double sided,
// makes fully transparent materials opaque, and forces every drawable
// visible. It returns how many materials and drawables needed a change.
func FixMaterialVisibility(roots ...*scene.Node) int {
	fixed := 0
	materials := make(map[*scene.Material]struct{})

	walk(roots, func(n *scene.Node) {
		for _, mat := range n.Materials {
			if mat == nil {
				continue
			}
			if _, ok := materials[mat]; ok {
				continue
			}
			materials[mat] = struct{}{}
			if fixMaterial(mat) {
				fixed++
			}
		}

		if n.IsDrawable() && !n.Visible {
			n.Visible = true
			fixed++
		}
	})

	return fixed
}

func fixMaterial(mat *scene.Material) bool {
	changed := false
	if !mat.Visible {
		mat.Visible = true
		changed = true
	}
	if mat.Side != scene.DoubleSide {
		mat.Side = scene.DoubleSide
		changed = true
	}
	if mat.Transparent && mat.Opacity == 0 {
		mat.Transparent = false
		mat.Opacity = 1
		changed = true
	}
	return changed
}
