package picking

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/bimview/pkg/math"
)

func approx(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func TestScreenToNDC(t *testing.T) {
	tests := []struct {
		x, y         float32
		wantX, wantY float32
	}{
		{0, 0, -1, 1},
		{800, 600, 1, -1},
		{400, 300, 0, 0},
	}
	for _, tt := range tests {
		gx, gy := ScreenToNDC(tt.x, tt.y, 800, 600)
		if !approx(gx, tt.wantX) || !approx(gy, tt.wantY) {
			t.Errorf("ScreenToNDC(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, gx, gy, tt.wantX, tt.wantY)
		}
	}

	if x, y := ScreenToNDC(10, 10, 0, 0); x != 0 || y != 0 {
		t.Errorf("zero viewport = (%v, %v), want (0, 0)", x, y)
	}
}

func TestFromViewCenter(t *testing.T) {
	eye := math.Vec3{X: 0, Y: 0, Z: 10}
	r := FromView(eye, math.Vec3{}, 0.785398, 1.5, 0, 0)

	if r.Origin != eye {
		t.Errorf("Origin = %v, want %v", r.Origin, eye)
	}
	if !approx(r.Direction.Z, -1) || !approx(r.Direction.X, 0) || !approx(r.Direction.Y, 0) {
		t.Errorf("Direction = %v, want (0, 0, -1)", r.Direction)
	}
}

func TestFromViewOffsets(t *testing.T) {
	r := FromView(math.Vec3{Z: 10}, math.Vec3{}, 0.785398, 1, 1, 1)
	if r.Direction.X <= 0 {
		t.Errorf("right edge ray X = %v, want > 0", r.Direction.X)
	}
	if r.Direction.Y <= 0 {
		t.Errorf("top edge ray Y = %v, want > 0", r.Direction.Y)
	}
	if !approx(r.Direction.Length(), 1) {
		t.Errorf("direction length = %v, want 1", r.Direction.Length())
	}

	// Straight down still yields a usable ray
	down := FromView(math.Vec3{Y: 10}, math.Vec3{}, 0.785398, 1, 0, 0)
	if !approx(down.Direction.Y, -1) {
		t.Errorf("down ray = %v", down.Direction)
	}
}

func TestIntersectPlaneY(t *testing.T) {
	r := NewRay(math.Vec3{X: 1, Y: 10, Z: 2}, math.Vec3{Y: -1})
	x, z, ok := r.IntersectPlaneY(0)
	if !ok || !approx(x, 1) || !approx(z, 2) {
		t.Errorf("IntersectPlaneY = (%v, %v, %v)", x, z, ok)
	}

	if _, _, ok := r.IntersectPlaneY(20); ok {
		t.Error("plane behind origin should not intersect")
	}

	flat := NewRay(math.Vec3{}, math.Vec3{X: 1})
	if _, _, ok := flat.IntersectPlaneY(0); ok {
		t.Error("parallel ray should not intersect")
	}
}

func TestIntersectBox(t *testing.T) {
	box := math.Box3{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"front", NewRay(math.Vec3{Z: 5}, math.Vec3{Z: -1}), true, 4},
		{"inside", NewRay(math.Vec3{}, math.Vec3{X: 1}), true, 1},
		{"miss", NewRay(math.Vec3{X: 3, Z: 5}, math.Vec3{Z: -1}), false, 0},
		{"behind", NewRay(math.Vec3{Z: 5}, math.Vec3{Z: 1}), false, 0},
		{"parallel outside", NewRay(math.Vec3{Y: 2, Z: 5}, math.Vec3{Z: -1}), false, 0},
		{"diagonal", NewRay(math.Vec3{X: 5, Y: 5, Z: 5}, math.Vec3{X: -1, Y: -1, Z: -1}), true, 6.9282},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectBox(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && !approx(got, tt.wantT) {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}

	if _, hit := NewRay(math.Vec3{}, math.Vec3{Z: 1}).IntersectBox(math.EmptyBox()); hit {
		t.Error("empty box should never be hit")
	}
}
