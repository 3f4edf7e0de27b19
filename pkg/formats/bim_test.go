package formats

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleBIM() *BIM {
	return &BIM{
		Name: "duplex",
		Elements: []BIMElement{
			{
				ExpressID:     101,
				TypeCode:      2391406946,
				Category:      "IFCWALL",
				Name:          "Basic Wall:Interior",
				GlobalID:      "2O2Fr$t4X7Zf8NOew3FLOH",
				InstanceCount: 1,
				Material:      BIMMaterial{Color: [4]uint8{200, 200, 200, 255}, Opacity: 1},
				Positions:     [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
				Normals:       [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
				Indices:       []uint32{0, 1, 2, 0, 2, 3},
			},
			{
				ExpressID:     202,
				Name:          "Space:Kitchen",
				InstanceCount: 3,
				Material: BIMMaterial{
					Color:   [4]uint8{0, 128, 255, 64},
					Opacity: 0.25,
					Flags:   MaterialTransparent | MaterialDoubleSided,
				},
				Positions: [][3]float32{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}},
			},
		},
	}
}

func TestParseBIM_MagicValidation(t *testing.T) {
	valid, err := (&BIM{Name: "empty"}).Encode()
	if err != nil {
		t.Fatalf("encoding empty model: %v", err)
	}
	bad := append([]byte("XXXX"), valid[4:]...)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"valid magic", valid, nil},
		{"invalid magic", bad, ErrInvalidBIMMagic},
		{"empty data", []byte{}, ErrTruncatedBIMData},
		{"truncated data", []byte{'B', 'I', 'M'}, ErrTruncatedBIMData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBIM(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseBIM_VersionSupport(t *testing.T) {
	tests := []struct {
		name    string
		major   uint8
		minor   uint8
		wantErr bool
	}{
		{"v1.0", 1, 0, false},
		{"v1.1", 1, 1, false},
		{"v1.2 unsupported", 1, 2, true},
		{"v0.9 unsupported", 0, 9, true},
		{"v2.0 unsupported", 2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := makeMinimalBIM(tt.major, tt.minor)
			_, err := ParseBIM(data)
			if (err != nil) != tt.wantErr {
				t.Errorf("version %d.%d: got error=%v, wantErr=%v", tt.major, tt.minor, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedBIMVersion) {
				t.Errorf("expected ErrUnsupportedBIMVersion, got %v", err)
			}
		})
	}
}

func TestParseBIM_V10DefaultsInstanceCount(t *testing.T) {
	data := makeMinimalBIM(1, 0)
	// Patch element count to 1 and append one bare v1.0 element.
	binary.LittleEndian.PutUint32(data[len(data)-4:], 1)
	el := make([]byte, 0, 64)
	el = binary.LittleEndian.AppendUint32(el, 7) // express id
	el = binary.LittleEndian.AppendUint32(el, 0) // type code
	el = append(el, 0, 0, 0, 0, 0, 0)           // three empty strings
	el = append(el, 255, 255, 255, 255)         // color
	el = binary.LittleEndian.AppendUint32(el, 0x3f800000)
	el = append(el, 0)                          // flags
	el = binary.LittleEndian.AppendUint32(el, 0) // vertex count
	el = append(el, 0)                          // no normals
	el = binary.LittleEndian.AppendUint32(el, 0) // index count
	data = append(data, el...)

	bim, err := ParseBIM(data)
	if err != nil {
		t.Fatalf("ParseBIM: %v", err)
	}
	if len(bim.Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(bim.Elements))
	}
	if bim.Elements[0].InstanceCount != 1 {
		t.Errorf("InstanceCount = %d, want 1 for v1.0", bim.Elements[0].InstanceCount)
	}
	if bim.Elements[0].Material.Opacity != 1 {
		t.Errorf("Opacity = %f, want 1", bim.Elements[0].Material.Opacity)
	}
}

func TestParseBIM_ElementCountGuard(t *testing.T) {
	data := makeMinimalBIM(1, 1)
	binary.LittleEndian.PutUint32(data[len(data)-4:], 1_000_000)

	_, err := ParseBIM(data)
	if !errors.Is(err, ErrInvalidElementCount) {
		t.Errorf("expected ErrInvalidElementCount, got %v", err)
	}
}

func TestParseBIM_IndexOutOfRange(t *testing.T) {
	bim := sampleBIM()
	bim.Elements[0].Indices[5] = 99
	data, err := bim.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	_, err = ParseBIM(data)
	if !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestParseBIM_TruncatedElement(t *testing.T) {
	data, err := sampleBIM().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	_, err = ParseBIM(data[:len(data)-10])
	if !errors.Is(err, ErrTruncatedBIMData) {
		t.Errorf("expected ErrTruncatedBIMData, got %v", err)
	}
}

func TestBIMEncodeParse(t *testing.T) {
	src := sampleBIM()
	data, err := src.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := ParseBIM(data)
	if err != nil {
		t.Fatalf("ParseBIM: %v", err)
	}

	if got.Version != CurrentBIMVersion {
		t.Errorf("Version = %s, want %s", got.Version, CurrentBIMVersion)
	}
	if got.Name != "duplex" {
		t.Errorf("Name = %q, want duplex", got.Name)
	}
	if got.TotalVertexCount() != 7 {
		t.Errorf("TotalVertexCount = %d, want 7", got.TotalVertexCount())
	}

	wall := got.ElementByExpressID(101)
	if wall == nil {
		t.Fatal("element 101 not found")
	}
	if wall.Category != "IFCWALL" || wall.TypeCode != 2391406946 {
		t.Errorf("unexpected wall metadata: %+v", wall)
	}
	if len(wall.Indices) != 6 || len(wall.Normals) != 4 {
		t.Errorf("wall geometry: %d indices, %d normals", len(wall.Indices), len(wall.Normals))
	}

	space := got.ElementByExpressID(202)
	if space == nil {
		t.Fatal("element 202 not found")
	}
	if space.InstanceCount != 3 {
		t.Errorf("InstanceCount = %d, want 3", space.InstanceCount)
	}
	if space.Material.Flags&MaterialTransparent == 0 {
		t.Error("expected transparent flag")
	}
	if space.Normals != nil || space.Indices != nil {
		t.Error("expected no normals and no indices")
	}

	if got.ElementByExpressID(999) != nil {
		t.Error("expected nil for unknown express id")
	}
}

func TestBIMEncode_MismatchedNormals(t *testing.T) {
	bim := sampleBIM()
	bim.Elements[0].Normals = bim.Elements[0].Normals[:2]
	if _, err := bim.Encode(); err == nil {
		t.Error("expected error for mismatched normals")
	}
}

func TestParseBIMFile(t *testing.T) {
	data, err := sampleBIM().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "duplex.bimf")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	bim, err := ParseBIMFile(path)
	if err != nil {
		t.Fatalf("ParseBIMFile: %v", err)
	}
	if len(bim.Elements) != 2 {
		t.Errorf("expected 2 elements, got %d", len(bim.Elements))
	}

	if _, err := ParseBIMFile(filepath.Join(t.TempDir(), "missing.bimf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBIMVersion_AtLeast(t *testing.T) {
	tests := []struct {
		version BIMVersion
		major   uint8
		minor   uint8
		want    bool
	}{
		{BIMVersion{1, 1}, 1, 1, true},
		{BIMVersion{1, 1}, 1, 0, true},
		{BIMVersion{1, 0}, 1, 1, false},
		{BIMVersion{2, 0}, 1, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.AtLeast(tt.major, tt.minor); got != tt.want {
				t.Errorf("AtLeast(%d, %d) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

// makeMinimalBIM builds a header with an empty name and zero elements.
func makeMinimalBIM(major, minor uint8) []byte {
	data := make([]byte, 0, 14)
	data = append(data, "BIMF"...)
	data = append(data, major, minor)
	data = append(data, 0, 0) // reserved
	data = append(data, 0, 0) // name length
	data = binary.LittleEndian.AppendUint32(data, 0)
	return data
}
