package scene

// Side selects which triangle faces a material renders.
type Side int

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// Texture is an image bound to a material slot.
type Texture struct {
	Name string

	disposed bool
}

// Dispose releases the texture. Disposing twice is a no-op.
func (t *Texture) Dispose() {
	if t != nil {
		t.disposed = true
	}
}

// Disposed reports whether Dispose has run.
func (t *Texture) Disposed() bool {
	return t != nil && t.disposed
}

// Material describes how a drawable's surface is shaded.
type Material struct {
	Name        string
	Color       [4]uint8
	Opacity     float32
	Transparent bool
	Visible     bool
	Side        Side

	// Maps holds every texture slot in use (color, normal, emissive...).
	Maps []*Texture

	disposed bool
}

// NewMaterial returns an opaque, visible, front-sided material.
func NewMaterial(name string) *Material {
	return &Material{
		Name:    name,
		Color:   [4]uint8{255, 255, 255, 255},
		Opacity: 1,
		Visible: true,
	}
}

// Dispose releases the material. Textures are released separately.
func (m *Material) Dispose() {
	if m != nil {
		m.disposed = true
	}
}

// Disposed reports whether Dispose has run.
func (m *Material) Disposed() bool {
	return m != nil && m.disposed
}
