// Package camera provides the orbit viewpoint used to frame and cull building models.
package camera

import (
	gomath "math"

	"github.com/Faultbox/bimview/internal/engine/picking"
	"github.com/Faultbox/bimview/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Projection
	FovY float32 // Vertical field of view (radians)
	Near float32
	Far  float32

	// Constraints
	MinDistance float32
	MaxDistance float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:    20.0,
		RotationX:   0.6,
		RotationY:   0.8,
		FovY:        0.785398, // 45 degrees
		Near:        0.1,
		Far:         5000.0,
		MinDistance: 1.0,
		MaxDistance: 5000.0,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Sin(float64(c.RotationY)))
	y := c.Distance * float32(gomath.Sin(float64(c.RotationX)))
	z := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Cos(float64(c.RotationY)))

	return c.Center.Add(math.Vec3{X: x, Y: y, Z: z})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position(), c.Center, math.Vec3{X: 0, Y: 1, Z: 0})
}

// Frustum returns the view volume for a viewport of the given aspect ratio.
func (c *OrbitCamera) Frustum(aspect float32) math.Frustum {
	if aspect <= 0 {
		aspect = 1
	}
	proj := math.Perspective(c.FovY, aspect, c.Near, c.Far)
	return math.FrustumFromMatrix(proj.Mul(c.ViewMatrix()))
}

// ScreenRay casts a world-space ray through a pixel of a viewport.
func (c *OrbitCamera) ScreenRay(screenX, screenY, viewportW, viewportH float32) picking.Ray {
	aspect := float32(1)
	if viewportW > 0 && viewportH > 0 {
		aspect = viewportW / viewportH
	}
	ndcX, ndcY := picking.ScreenToNDC(screenX, screenY, viewportW, viewportH)
	return picking.FromView(c.Position(), c.Center, c.FovY, aspect, ndcX, ndcY)
}

// HandleZoom moves the camera toward or away from the center.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance *= 1 - delta*0.1
	c.clampDistance()
}

// FitToBox centers the camera on box and backs off far enough for the whole
// box to fit in the vertical field of view.
func (c *OrbitCamera) FitToBox(box math.Box3) {
	if box.IsEmpty() {
		return
	}
	c.Center = box.Center()

	radius := box.Size().Length() / 2
	if radius <= 0 {
		radius = 1
	}
	half := float64(c.FovY) / 2
	if half <= 0 {
		half = 0.392699
	}
	c.Distance = radius / float32(gomath.Sin(half))

	if c.MaxDistance < c.Distance*2 {
		c.MaxDistance = c.Distance * 2
	}
	if c.Far < c.Distance+radius*2 {
		c.Far = c.Distance + radius*2
	}
	c.clampDistance()
}

func (c *OrbitCamera) clampDistance() {
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.MaxDistance > 0 && c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}
