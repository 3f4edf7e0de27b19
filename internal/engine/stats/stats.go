// Package stats derives counts, bounds and memory estimates from asset node
// trees, and implements the disposal and material-correction passes run
// over freshly loaded or retiring assets.
package stats

import (
	"github.com/Faultbox/bimview/internal/scene"
	"github.com/Faultbox/bimview/pkg/math"
)

// Statistics summarizes the geometry under one or more roots.
type Statistics struct {
	MeshCount     int        `json:"meshCount"`
	VertexCount   int        `json:"vertexCount"`
	FaceCount     int        `json:"faceCount"`
	FragmentCount int        `json:"fragmentCount"`
	BoundingBox   *math.Box3 `json:"boundingBox,omitempty"`
	MemoryUsageMB float64    `json:"memoryUsageMB,omitempty"`
}

// CalculateBoundingBox returns the box around every drawable that carries
// geometry, or nil if there is none.
func CalculateBoundingBox(roots ...*scene.Node) *math.Box3 {
	box := math.EmptyBox()
	found := false
	walk(roots, func(n *scene.Node) {
		if !n.IsDrawable() || n.Geometry == nil {
			return
		}
		if b, ok := n.Geometry.Bounds(); ok {
			box.Union(b)
			found = true
		}
	})
	if !found {
		return nil
	}
	return &box
}

// CalculateStatistics counts drawables, vertices and faces in one traversal.
// Faces come from the index buffer when present, otherwise vertexCount/3.
func CalculateStatistics(roots ...*scene.Node) Statistics {
	var st Statistics
	// Corners summed across drawables; dividing once keeps the floor exact.
	var corners int
	box := math.EmptyBox()
	found := false

	walk(roots, func(n *scene.Node) {
		if !n.IsDrawable() || n.Geometry == nil {
			return
		}
		st.MeshCount++
		if n.Kind == scene.KindInstancedMesh {
			st.FragmentCount++
		}

		vertices := n.Geometry.VertexCount()
		st.VertexCount += vertices
		if len(n.Geometry.Index) > 0 {
			corners += len(n.Geometry.Index)
		} else {
			corners += vertices
		}

		if b, ok := n.Geometry.Bounds(); ok {
			box.Union(b)
			found = true
		}
	})

	st.FaceCount = corners / 3
	if found {
		st.BoundingBox = &box
	}
	return st
}

// EstimateMemoryUsage sums the byte length of every vertex attribute and
// index buffer. Textures and materials are not counted.
func EstimateMemoryUsage(roots ...*scene.Node) int64 {
	var total int64
	walk(roots, func(n *scene.Node) {
		if !n.IsDrawable() || n.Geometry == nil {
			return
		}
		for _, attr := range n.Geometry.Attributes {
			total += int64(attr.ByteLength())
		}
		total += int64(len(n.Geometry.Index)) * 4
	})
	return total
}

// BytesToMB converts a byte count to mebibytes.
func BytesToMB(b int64) float64 {
	return float64(b) / (1024 * 1024)
}

// walk visits every node under roots once, even if roots overlap.
func walk(roots []*scene.Node, fn func(*scene.Node)) {
	seen := make(map[*scene.Node]struct{})
	for _, root := range roots {
		root.Traverse(func(n *scene.Node) {
			if _, ok := seen[n]; ok {
				return
			}
			seen[n] = struct{}{}
			fn(n)
		})
	}
}
