// Package picking provides ray casting against element bounds.
package picking

import (
	gomath "math"

	"github.com/Faultbox/bimview/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay builds a ray, normalizing dir.
func NewRay(origin, dir math.Vec3) Ray {
	return Ray{Origin: origin, Direction: dir.Normalize()}
}

// ScreenToNDC converts pixel coordinates to normalized device coordinates (-1 to 1).
func ScreenToNDC(screenX, screenY, viewportW, viewportH float32) (ndcX, ndcY float32) {
	if viewportW <= 0 || viewportH <= 0 {
		return 0, 0
	}
	ndcX = 2.0*screenX/viewportW - 1.0
	ndcY = 1.0 - 2.0*screenY/viewportH // Flip Y
	return ndcX, ndcY
}

// FromView casts a ray from eye through the NDC point of a perspective view
// looking at center with a +Y up vector.
func FromView(eye, center math.Vec3, fovY, aspect, ndcX, ndcY float32) Ray {
	forward := center.Sub(eye).Normalize()
	up := math.Vec3{Y: 1}
	right := forward.Cross(up).Normalize()
	if right.Length() == 0 {
		// Looking straight up or down
		right = math.Vec3{X: 1}
	}
	camUp := right.Cross(forward)

	tanHalf := float32(gomath.Tan(float64(fovY) / 2))
	dir := forward.
		Add(right.Scale(ndcX * tanHalf * aspect)).
		Add(camUp.Scale(ndcY * tanHalf))

	return NewRay(eye, dir)
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
// Returns the intersection point (X, Z) and whether the intersection is valid.
func (r Ray) IntersectPlaneY(planeY float32) (x, z float32, ok bool) {
	if gomath.Abs(float64(r.Direction.Y)) < 0.001 {
		return 0, 0, false // Ray parallel to plane
	}

	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return 0, 0, false // Behind ray origin
	}

	p := r.At(t)
	return p.X, p.Z, true
}

// IntersectBox tests ray intersection with an axis-aligned box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectBox(box math.Box3) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}

	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	slabs := [3][4]float32{
		{r.Origin.X, r.Direction.X, box.Min.X, box.Max.X},
		{r.Origin.Y, r.Direction.Y, box.Min.Y, box.Max.Y},
		{r.Origin.Z, r.Direction.Z, box.Min.Z, box.Max.Z},
	}
	for _, s := range slabs {
		origin, dir, lo, hi := s[0], s[1], s[2], s[3]
		if dir == 0 {
			if origin < lo || origin > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - origin) / dir
		t2 := (hi - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}
