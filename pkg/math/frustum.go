package math

// Plane is the set of points p with Normal.Dot(p) + D == 0.
type Plane struct {
	Normal Vec3
	D      float32
}

// Distance returns the signed distance from the plane to p.
func (p Plane) Distance(v Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

func (p Plane) normalized() Plane {
	l := p.Normal.Length()
	if l == 0 {
		return p
	}
	return Plane{Normal: p.Normal.Scale(1 / l), D: p.D / l}
}

// Frustum is a view volume bounded by six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the clip planes of a view-projection matrix.
func FrustumFromMatrix(m Mat4) Frustum {
	row := func(i int) [4]float32 {
		return [4]float32{m[i], m[4+i], m[8+i], m[12+i]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	plane := func(a [4]float32, b [4]float32, sign float32) Plane {
		return Plane{
			Normal: Vec3{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2]},
			D:      a[3] + sign*b[3],
		}.normalized()
	}

	return Frustum{Planes: [6]Plane{
		plane(r3, r0, 1),  // left
		plane(r3, r0, -1), // right
		plane(r3, r1, 1),  // bottom
		plane(r3, r1, -1), // top
		plane(r3, r2, 1),  // near
		plane(r3, r2, -1), // far
	}}
}

// IntersectsBox reports whether any part of b may lie inside the frustum.
func (f Frustum) IntersectsBox(b Box3) bool {
	if b.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		// Positive vertex: the box corner furthest along the plane normal.
		v := b.Min
		if p.Normal.X >= 0 {
			v.X = b.Max.X
		}
		if p.Normal.Y >= 0 {
			v.Y = b.Max.Y
		}
		if p.Normal.Z >= 0 {
			v.Z = b.Max.Z
		}
		if p.Distance(v) < 0 {
			return false
		}
	}
	return true
}
