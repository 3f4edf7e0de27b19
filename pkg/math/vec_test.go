package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3MinMax(t *testing.T) {
	a := Vec3{1, 5, -2}
	b := Vec3{3, -1, 0}
	if got, want := a.Min(b), (Vec3{1, -1, -2}); got != want {
		t.Errorf("Vec3.Min() = %v, want %v", got, want)
	}
	if got, want := a.Max(b), (Vec3{3, 5, 0}); got != want {
		t.Errorf("Vec3.Max() = %v, want %v", got, want)
	}
}

func TestBox3Expand(t *testing.T) {
	b := EmptyBox()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox should be empty")
	}

	b.ExpandByPoint(Vec3{1, 2, 3})
	if b.IsEmpty() {
		t.Fatal("box with one point should not be empty")
	}
	if b.Size() != (Vec3{}) {
		t.Errorf("single point box size = %v, want zero", b.Size())
	}

	b.ExpandByPoint(Vec3{-1, 4, 0})
	if b.Min != (Vec3{-1, 2, 0}) || b.Max != (Vec3{1, 4, 3}) {
		t.Errorf("unexpected box %+v", b)
	}
	if got, want := b.Center(), (Vec3{0, 3, 1.5}); got != want {
		t.Errorf("Center() = %v, want %v", got, want)
	}
}

func TestBox3UnionIgnoresEmpty(t *testing.T) {
	b := Box3{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	b.Union(EmptyBox())
	if b.Min != (Vec3{0, 0, 0}) || b.Max != (Vec3{1, 1, 1}) {
		t.Errorf("union with empty box changed bounds: %+v", b)
	}
}

func TestFrustumIntersectsBox(t *testing.T) {
	view := LookAt(Vec3{0, 0, 10}, Vec3{}, Vec3{0, 1, 0})
	proj := Perspective(0.785398, 1, 0.1, 100)
	f := FrustumFromMatrix(proj.Mul(view))

	tests := []struct {
		name string
		box  Box3
		want bool
	}{
		{"at origin", Box3{Min: Vec3{-1, -1, -1}, Max: Vec3{1, 1, 1}}, true},
		{"behind camera", Box3{Min: Vec3{-1, -1, 20}, Max: Vec3{1, 1, 22}}, false},
		{"far left", Box3{Min: Vec3{-500, -1, -1}, Max: Vec3{-400, 1, 1}}, false},
		{"beyond far plane", Box3{Min: Vec3{-1, -1, -200}, Max: Vec3{1, 1, -150}}, false},
		{"empty", EmptyBox(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IntersectsBox(tt.box); got != tt.want {
				t.Errorf("IntersectsBox() = %v, want %v", got, tt.want)
			}
		})
	}
}
