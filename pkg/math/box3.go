package math

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min Vec3 `json:"min" yaml:"min"`
	Max Vec3 `json:"max" yaml:"max"`
}

// EmptyBox returns an inverted box that any ExpandByPoint call will overwrite.
func EmptyBox() Box3 {
	return Box3{
		Min: Vec3{1e30, 1e30, 1e30},
		Max: Vec3{-1e30, -1e30, -1e30},
	}
}

// IsEmpty reports whether no point has been added to the box.
func (b Box3) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// ExpandByPoint grows the box to contain p.
func (b *Box3) ExpandByPoint(p Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// Union grows the box to contain other. Empty boxes are ignored.
func (b *Box3) Union(other Box3) {
	if other.IsEmpty() {
		return
	}
	b.Min = b.Min.Min(other.Min)
	b.Max = b.Max.Max(other.Max)
}

// Center returns the midpoint of the box.
func (b Box3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent of the box along each axis.
func (b Box3) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}
