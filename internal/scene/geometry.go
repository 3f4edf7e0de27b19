package scene

import (
	"github.com/Faultbox/bimview/pkg/math"
)

// Standard attribute names.
const (
	AttrPosition = "position"
	AttrNormal   = "normal"
	AttrUV       = "uv"
)

// Attribute is a flat per-vertex buffer.
type Attribute struct {
	ItemSize int // Components per vertex
	Data     []float32
}

// NewAttribute wraps data with the given item size.
func NewAttribute(itemSize int, data []float32) *Attribute {
	return &Attribute{ItemSize: itemSize, Data: data}
}

// Count returns the number of vertices stored.
func (a *Attribute) Count() int {
	if a == nil || a.ItemSize <= 0 {
		return 0
	}
	return len(a.Data) / a.ItemSize
}

// ByteLength returns the buffer size in bytes.
func (a *Attribute) ByteLength() int {
	if a == nil {
		return 0
	}
	return len(a.Data) * 4
}

// Geometry holds the vertex attributes and optional index buffer of a drawable.
type Geometry struct {
	Attributes map[string]*Attribute
	Index      []uint32

	disposed bool
}

// NewGeometry builds a geometry from packed xyz positions and optional indices.
func NewGeometry(positions []float32, index []uint32) *Geometry {
	return &Geometry{
		Attributes: map[string]*Attribute{
			AttrPosition: NewAttribute(3, positions),
		},
		Index: index,
	}
}

// Position returns the position attribute, or nil.
func (g *Geometry) Position() *Attribute {
	if g == nil {
		return nil
	}
	return g.Attributes[AttrPosition]
}

// VertexCount returns the number of positions.
func (g *Geometry) VertexCount() int {
	return g.Position().Count()
}

// Bounds returns the axis-aligned box of the positions. ok is false when
// there are no positions.
func (g *Geometry) Bounds() (box math.Box3, ok bool) {
	pos := g.Position()
	if pos.Count() == 0 || pos.ItemSize < 3 {
		return math.Box3{}, false
	}

	box = math.EmptyBox()
	for i := 0; i+2 < len(pos.Data); i += pos.ItemSize {
		box.ExpandByPoint(math.Vec3{X: pos.Data[i], Y: pos.Data[i+1], Z: pos.Data[i+2]})
	}
	return box, true
}

// Dispose releases the buffers. Disposing twice is a no-op.
func (g *Geometry) Dispose() {
	if g == nil || g.disposed {
		return
	}
	g.Attributes = nil
	g.Index = nil
	g.disposed = true
}

// Disposed reports whether Dispose has run.
func (g *Geometry) Disposed() bool {
	return g != nil && g.disposed
}
