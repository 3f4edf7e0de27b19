package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/bimview/pkg/formats"
)

func writeModel(t *testing.T, dir string) string {
	t.Helper()
	quad := [][3]float32{{0, 0, 0}, {4, 0, 0}, {4, 3, 0}, {0, 3, 0}}
	bim := &formats.BIM{
		Name: "office",
		Elements: []formats.BIMElement{
			{ExpressID: 1, Category: "IFCWALL", Name: "Wall A", InstanceCount: 1, Material: formats.BIMMaterial{Opacity: 1}, Positions: quad, Indices: []uint32{0, 1, 2, 0, 2, 3}},
			{ExpressID: 2, Category: "IFCWALL", Name: "Wall B", InstanceCount: 1, Material: formats.BIMMaterial{Opacity: 1}, Positions: quad, Indices: []uint32{0, 1, 2, 0, 2, 3}},
			{ExpressID: 3, Name: "IfcDoor:Single", InstanceCount: 2, Material: formats.BIMMaterial{Opacity: 1}, Positions: quad[:3]},
			{ExpressID: 4, TypeCode: 3856911033, Name: "Room 101", InstanceCount: 1, Material: formats.BIMMaterial{Flags: formats.MaterialTransparent}, Positions: quad[:3]},
		},
	}
	data, err := bim.Encode()
	require.NoError(t, err)

	path := filepath.Join(dir, "office.bimf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--log-file", filepath.Join(t.TempDir(), "bimview.log")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInfoCommand(t *testing.T) {
	path := writeModel(t, t.TempDir())

	out, err := run(t, "info", "--metrics", path)
	require.NoError(t, err)

	assert.Contains(t, out, "office.bimf")
	assert.Contains(t, out, "loaded")
	assert.Contains(t, out, "Meshes")
	assert.Contains(t, out, "bimview_loads_total")
}

func TestClassesCommand(t *testing.T) {
	path := writeModel(t, t.TempDir())

	out, err := run(t, "classes", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wall")
	assert.Contains(t, out, "Door")
	assert.Contains(t, out, "Space")
	assert.Contains(t, out, "3 classes (2 visible, 1 hidden), 3 of 4 elements visible")

	out, err = run(t, "classes", "--hide", "Door", "--toggle", "Wall", path)
	require.NoError(t, err)
	assert.Contains(t, out, "3 classes (1 visible, 2 hidden), 1 of 4 elements visible")

	out, err = run(t, "classes", "--show-all", path)
	require.NoError(t, err)
	assert.Contains(t, out, "4 of 4 elements visible")
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir)
	dest := filepath.Join(dir, "out", "copy.bimf")

	out, err := run(t, "export", "-o", dest, path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Exported "))

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	exported, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, src, exported)
}

func TestPickCommand(t *testing.T) {
	path := writeModel(t, t.TempDir())

	out, err := run(t, "pick", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wall A")
	assert.Contains(t, out, "Wall")

	out, err = run(t, "pick", "--x", "0", "--y", "0", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No element at (0, 0)")

	_, err = run(t, "pick", "--width", "0", path)
	assert.Error(t, err)
}

func TestLoadFailureNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.bimf")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a model"), 0o644))

	_, err := run(t, "info", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.bimf")
	assert.ErrorIs(t, err, formats.ErrInvalidBIMMagic)
}

func TestSetupFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir)

	_, err := run(t, "info", "--wasm", filepath.Join(dir, "missing.wasm"), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initialize")
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "info", filepath.Join(t.TempDir(), "nope.bimf"))
	assert.Error(t, err)
}
