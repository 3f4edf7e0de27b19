// Package formats provides parsers for building-model file formats.
// BIMF (Building Information Model Fragments) is a flat container of
// classified elements, each carrying its own triangle geometry and material.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// BIMF format errors.
var (
	ErrInvalidBIMMagic       = errors.New("invalid BIMF magic: expected 'BIMF'")
	ErrUnsupportedBIMVersion = errors.New("unsupported BIMF version")
	ErrTruncatedBIMData      = errors.New("truncated BIMF data")
	ErrInvalidElementCount   = errors.New("invalid BIMF element count")
	ErrInvalidIndex          = errors.New("BIMF index out of range")
	ErrStringTooLong         = errors.New("BIMF string exceeds 65535 bytes")
)

const (
	bimMagic = "BIMF"

	// minElementSize is the smallest possible encoded element (v1.0, no strings, no geometry).
	minElementSize = 4 + 4 + 2*3 + 4 + 4 + 1 + 4 + 1 + 4
)

// BIMVersion represents the BIMF file version.
type BIMVersion struct {
	Major uint8
	Minor uint8
}

// CurrentBIMVersion is the version written by Encode.
var CurrentBIMVersion = BIMVersion{Major: 1, Minor: 1}

// String returns the version as "Major.Minor".
func (v BIMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast returns true if version is >= major.minor.
func (v BIMVersion) AtLeast(major, minor uint8) bool {
	if v.Major > major {
		return true
	}
	return v.Major == major && v.Minor >= minor
}

// BIMMaterialFlags holds material switches.
type BIMMaterialFlags uint8

const (
	MaterialTransparent BIMMaterialFlags = 1 << iota // Alpha blended
	MaterialDoubleSided                              // Render both faces
	MaterialHidden                                   // Material starts invisible
)

// BIMMaterial is the surface description of one element.
type BIMMaterial struct {
	Color   [4]uint8 // RGBA
	Opacity float32  // 0-1
	Flags   BIMMaterialFlags
}

// BIMElement is one classified building element with its geometry.
type BIMElement struct {
	ExpressID     uint32 // Element id unique within the file
	TypeCode      uint32 // Numeric entity type (0 if unknown)
	Category      string // Explicit class tag, e.g. "IFCWALL" (may be empty)
	Name          string // Display name, e.g. "Basic Wall:Interior"
	GlobalID      string // Stable identifier
	InstanceCount uint32 // Number of instances sharing the geometry (v1.1+)

	Material BIMMaterial

	Positions [][3]float32
	Normals   [][3]float32 // Empty or len(Positions)
	Indices   []uint32     // Empty for non-indexed geometry
}

// BIM represents a parsed BIMF file.
type BIM struct {
	Version  BIMVersion
	Name     string
	Elements []BIMElement
}

// ParseBIM parses BIMF data from a byte slice.
func ParseBIM(data []byte) (*BIM, error) {
	if len(data) < 14 {
		return nil, ErrTruncatedBIMData
	}
	if string(data[:4]) != bimMagic {
		return nil, ErrInvalidBIMMagic
	}

	r := &reader{r: bytes.NewReader(data[4:])}

	bim := &BIM{}
	bim.Version.Major = r.u8()
	bim.Version.Minor = r.u8()
	if bim.Version.Major != 1 || bim.Version.Minor > CurrentBIMVersion.Minor {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBIMVersion, bim.Version)
	}

	r.u16() // reserved
	bim.Name = r.str()

	elementCount := r.u32()
	if r.err != nil {
		return nil, ErrTruncatedBIMData
	}
	if uint64(elementCount)*minElementSize > uint64(r.r.Len()) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidElementCount, elementCount)
	}

	bim.Elements = make([]BIMElement, elementCount)
	for i := range bim.Elements {
		if err := parseBIMElement(r, bim.Version, &bim.Elements[i]); err != nil {
			return nil, fmt.Errorf("parsing element %d: %w", i, err)
		}
	}

	return bim, nil
}

func parseBIMElement(r *reader, version BIMVersion, el *BIMElement) error {
	el.ExpressID = r.u32()
	el.TypeCode = r.u32()
	el.Category = r.str()
	el.Name = r.str()
	el.GlobalID = r.str()

	el.InstanceCount = 1
	if version.AtLeast(1, 1) {
		el.InstanceCount = r.u32()
	}

	r.read(&el.Material.Color)
	el.Material.Opacity = r.f32()
	el.Material.Flags = BIMMaterialFlags(r.u8())

	vertexCount := r.u32()
	if r.err != nil {
		return ErrTruncatedBIMData
	}
	if uint64(vertexCount)*12 > uint64(r.r.Len()) {
		return ErrTruncatedBIMData
	}
	el.Positions = r.vec3s(int(vertexCount))

	if r.u8() != 0 {
		el.Normals = r.vec3s(int(vertexCount))
	}

	indexCount := r.u32()
	if r.err != nil {
		return ErrTruncatedBIMData
	}
	if uint64(indexCount)*4 > uint64(r.r.Len()) {
		return ErrTruncatedBIMData
	}
	if indexCount > 0 {
		el.Indices = make([]uint32, indexCount)
		r.read(el.Indices)
	}
	if r.err != nil {
		return ErrTruncatedBIMData
	}

	for _, idx := range el.Indices {
		if idx >= vertexCount {
			return fmt.Errorf("%w: %d >= %d", ErrInvalidIndex, idx, vertexCount)
		}
	}
	return nil
}

// ParseBIMFile parses a BIMF file from disk.
func ParseBIMFile(path string) (*BIM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading BIMF file: %w", err)
	}
	return ParseBIM(data)
}

// Encode serializes the model using CurrentBIMVersion.
func (bim *BIM) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := &writer{w: &buf}

	buf.WriteString(bimMagic)
	w.u8(CurrentBIMVersion.Major)
	w.u8(CurrentBIMVersion.Minor)
	w.u16(0)
	w.str(bim.Name)
	w.u32(uint32(len(bim.Elements)))

	for i := range bim.Elements {
		el := &bim.Elements[i]
		if len(el.Normals) != 0 && len(el.Normals) != len(el.Positions) {
			return nil, fmt.Errorf("element %d: %d normals for %d positions", i, len(el.Normals), len(el.Positions))
		}

		w.u32(el.ExpressID)
		w.u32(el.TypeCode)
		w.str(el.Category)
		w.str(el.Name)
		w.str(el.GlobalID)
		w.u32(el.InstanceCount)
		w.write(el.Material.Color)
		w.f32(el.Material.Opacity)
		w.u8(uint8(el.Material.Flags))

		w.u32(uint32(len(el.Positions)))
		w.write(el.Positions)
		if len(el.Normals) > 0 {
			w.u8(1)
			w.write(el.Normals)
		} else {
			w.u8(0)
		}
		w.u32(uint32(len(el.Indices)))
		w.write(el.Indices)

		if w.err != nil {
			return nil, fmt.Errorf("element %d: %w", i, w.err)
		}
	}

	if w.err != nil {
		return nil, w.err
	}
	return buf.Bytes(), nil
}

// TotalVertexCount returns the number of vertices across all elements.
func (bim *BIM) TotalVertexCount() int {
	total := 0
	for i := range bim.Elements {
		total += len(bim.Elements[i].Positions)
	}
	return total
}

// ElementByExpressID returns the element with the given id, or nil if not found.
func (bim *BIM) ElementByExpressID(id uint32) *BIMElement {
	for i := range bim.Elements {
		if bim.Elements[i].ExpressID == id {
			return &bim.Elements[i]
		}
	}
	return nil
}

// reader wraps a bytes.Reader and remembers the first error.
type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) read(v any) {
	if r.err != nil {
		return
	}
	r.err = binary.Read(r.r, binary.LittleEndian, v)
}

func (r *reader) u8() uint8 {
	var v uint8
	r.read(&v)
	return v
}

func (r *reader) u16() uint16 {
	var v uint16
	r.read(&v)
	return v
}

func (r *reader) u32() uint32 {
	var v uint32
	r.read(&v)
	return v
}

func (r *reader) f32() float32 {
	var v float32
	r.read(&v)
	return v
}

// str reads a u16 length-prefixed string.
func (r *reader) str() string {
	n := r.u16()
	if r.err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.err = err
		return ""
	}
	return string(buf)
}

func (r *reader) vec3s(n int) [][3]float32 {
	if n == 0 || r.err != nil {
		return nil
	}
	out := make([][3]float32, n)
	r.read(out)
	return out
}

// writer mirrors reader for encoding.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) write(v any) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.w, binary.LittleEndian, v)
}

func (w *writer) u8(v uint8)   { w.write(v) }
func (w *writer) u16(v uint16) { w.write(v) }
func (w *writer) u32(v uint32) { w.write(v) }

func (w *writer) f32(v float32) {
	if math.IsNaN(float64(v)) {
		v = 0
	}
	w.write(v)
}

func (w *writer) str(s string) {
	if len(s) > math.MaxUint16 {
		if w.err == nil {
			w.err = ErrStringTooLong
		}
		return
	}
	w.u16(uint16(len(s)))
	if w.err == nil && len(s) > 0 {
		_, w.err = io.WriteString(w.w, s)
	}
}
