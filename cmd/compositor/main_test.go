package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/compositor/internal/document"
)

const testProject = `
width: 64
height: 48
length: 100
components:
  - id: box
    component_type: Image
    data_path: red.png
    start_time: 0
    length: 100
    layer_index: 0
    coordinate: [10, 10]
  - id: caption
    component_type: Text
    text: hi
    start_time: 0
    length: 100
    layer_index: 3
    properties:
      font_size: 8
`

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	base := []string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "--log-level", "error"}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []byte{255, 0, 0, 255})
	}
	f, err := os.Create(filepath.Join(dir, "red.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testProject), 0o644))
	return path
}

func TestRenderCommand(t *testing.T) {
	path := writeProject(t)
	target := filepath.Join(t.TempDir(), "frame.png")

	out, err := executeCommand(t, "render", path, "--at", "0", "-o", target)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Rendered scene.yaml")

	f, err := os.Open(target)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, color.RGBAModel.Convert(img.At(11, 11)))
	assert.Equal(t, color.RGBA{A: 255}, color.RGBAModel.Convert(img.At(60, 45)))
}

func TestRenderCommandRejectsBadPosition(t *testing.T) {
	path := writeProject(t)
	_, err := executeCommand(t, "render", path, "--at", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--at")
}

func TestExportFramesDir(t *testing.T) {
	path := writeProject(t)
	dir := filepath.Join(t.TempDir(), "frames")

	out, err := executeCommand(t, "export", path, "--frames-dir", dir, "--fps", "20", "--no-progress")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Exported 2 frames")

	frames, err := filepath.Glob(filepath.Join(dir, "frame_*.png"))
	require.NoError(t, err)
	assert.Len(t, frames, 2)
	index, err := os.ReadFile(filepath.Join(dir, "frames.txt"))
	require.NoError(t, err)
	assert.Equal(t, "frame_000000.png\t00:00:00.000\nframe_000001.png\t00:00:00.050\n", string(index))
}

func TestInfoCommand(t *testing.T) {
	path := writeProject(t)

	out, err := executeCommand(t, "info", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Canvas:      64x48")
	assert.Contains(t, out, "Fingerprint: ")
	assert.Contains(t, out, "box")
	assert.Contains(t, out, `"hi"`)
	assert.Contains(t, out, "ok")
}

func TestPatchCommand(t *testing.T) {
	path := writeProject(t)
	patchPath := filepath.Join(t.TempDir(), "move.json")
	require.NoError(t, os.WriteFile(patchPath, []byte(`[
		{"op": "test", "path": "/components/0/id", "value": "box"},
		{"op": "replace", "path": "/components/0/coordinate", "value": [30, 5]}
	]`), 0o644))

	out, err := executeCommand(t, "patch", path, patchPath, "--dry-run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "coordinate: [30, 5]")
	doc, err := document.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, [2]int{10, 10}, *doc.Components[0].Coordinate, "dry run leaves the file alone")

	out, err = executeCommand(t, "patch", path, patchPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Applied 2 operations")
	doc, err = document.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, [2]int{30, 5}, *doc.Components[0].Coordinate)
}

func TestPatchCommandFailureKeepsFile(t *testing.T) {
	path := writeProject(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	patchPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(patchPath, []byte(`
- {op: replace, path: /components/0/layer_index, value: 9}
- {op: test, path: /components/1/id, value: nope}
`), 0o644))

	_, err = executeCommand(t, "patch", path, patchPath)
	require.Error(t, err)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestStoryboardCommand(t *testing.T) {
	path := writeProject(t)
	slides := filepath.Dir(path)
	target := filepath.Join(t.TempDir(), "projects", "deck.yaml")

	out, err := executeCommand(t, "storyboard", slides, "-o", target, "--page-duration", "2s", "--fade", "0")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wrote 1 pages")

	doc, err := document.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, 1280, doc.Width)
	assert.Equal(t, uint64(2000), doc.Length)
	require.Len(t, doc.Components, 1)
	assert.Equal(t, filepath.Join("..", "..", filepath.Base(slides), "red.png"), doc.Components[0].DataPath)

	frame := filepath.Join(t.TempDir(), "f.png")
	out, err = executeCommand(t, "render", target, "--at", "1s", "-o", frame)
	require.NoError(t, err, out)
}

func TestNewCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects", "short.json")

	out, err := executeCommand(t, "new", path, "--preset", "9:16", "--length", "2s")
	require.NoError(t, err, out)

	doc, err := document.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 720, doc.Width)
	assert.Equal(t, 1280, doc.Height)
	assert.Equal(t, uint64(2000), doc.Length)

	_, err = executeCommand(t, "new", path)
	assert.Error(t, err)
}

func TestCurvesCommand(t *testing.T) {
	out, err := executeCommand(t, "curves", "--steps", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "ease-in-out")
	assert.Contains(t, out, "0.500")
	assert.GreaterOrEqual(t, strings.Count(out, "1.000"), 6, "every curve ends at 1")
}

func TestRenderTableKeepsHeaderCase(t *testing.T) {
	out := renderTable([]string{"ID", "ease-in"}, [][]string{{"a"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "ease-in")
	assert.NotContains(t, out, "EASE-IN")
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "conf", "compositor.toml")

	out, err := executeCommand(t, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)
	_, err = os.Stat(target)
	require.NoError(t, err)

	_, err = executeCommand(t, "config", "init", "--path", target)
	assert.Error(t, err)
	_, err = executeCommand(t, "config", "init", "--path", target, "--overwrite")
	assert.NoError(t, err)
}

func TestDefaultOutputPath(t *testing.T) {
	got := defaultOutputPath("output", "/tmp/my intro.yaml", ".mp4")
	assert.True(t, strings.HasPrefix(got, filepath.Join("output", "my_intro_")))
	assert.True(t, strings.HasSuffix(got, ".mp4"))
}
