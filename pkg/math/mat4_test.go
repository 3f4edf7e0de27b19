package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslateTransform(t *testing.T) {
	got := Translate(5, 10, 15).TransformVec3(Vec3{1, 1, 1})
	want := Vec3{6, 11, 16}
	if got != want {
		t.Errorf("TransformVec3() = %v, want %v", got, want)
	}
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	eye := Vec3{3, 4, 5}
	view := LookAt(eye, Vec3{}, Vec3{0, 1, 0})
	got := view.TransformVec3(eye)
	if math.Abs(float64(got.Length())) > 1e-4 {
		t.Errorf("eye in view space = %v, want origin", got)
	}
}
