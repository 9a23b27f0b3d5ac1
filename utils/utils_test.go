package utils

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/voxquad/export"
	"github.com/voxelsplace/voxquad/pack"
	"github.com/voxelsplace/voxquad/vox"
)

func writeModel(t *testing.T, dir, name string, w, h, d uint32) string {
	var palette vox.Palette
	palette[2] = vox.ColourFrom6Bit(10, 20, 30)

	g, err := vox.NewVoxelGrid(w, h, d, palette, bytes.Repeat([]byte{2}, int(w*h*d)))
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, vox.SaveFile(path, g))
	return path
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"glb", "json", "stats", "GLB"} {
		_, err := ParseFormat(s)
		require.NoError(t, err)
	}
	_, err := ParseFormat("obj")
	require.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	require.Equal(t, filepath.Join("out", "tree.glb"), OutputPath("in/tree.vox", "out", FormatGLB))
	require.Equal(t, filepath.Join("out", "tree.json"), OutputPath("in/tree.vox.zst", "out", FormatJSON))
	require.Equal(t, filepath.Join("out", "tree.stats.json"), OutputPath("tree.vox.gz", "out", FormatStats))
}

func TestRunVox2GLB(t *testing.T) {
	dir := t.TempDir()
	input := writeModel(t, dir, "cube.vox", 2, 2, 2)
	output := filepath.Join(dir, "cube.glb")

	require.NoError(t, RunVox2GLB(input, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, []byte("glTF"), data[:4])
}

func TestRunVox2JSON(t *testing.T) {
	dir := t.TempDir()
	input := writeModel(t, dir, "slab.vox.zst", 3, 1, 2)
	output := filepath.Join(dir, "slab.json")

	require.NoError(t, RunVox2JSON(input, output))

	data, err := os.ReadFile(output)
	require.NoError(t, err)

	var mesh struct {
		Width uint32 `json:"width"`
		Quads []any  `json:"quads"`
	}
	require.NoError(t, json.Unmarshal(data, &mesh))
	require.EqualValues(t, 3, mesh.Width)
	require.Len(t, mesh.Quads, 2*(3+2+6))
}

func TestRunStats(t *testing.T) {
	dir := t.TempDir()
	input := writeModel(t, dir, "cube.vox.gz", 2, 2, 2)

	stats, err := RunStats(input)
	require.NoError(t, err)
	require.Equal(t, 8, stats.Solid)
	require.Equal(t, 24, stats.Quads)

	_, err = RunStats(filepath.Join(dir, "missing.vox"))
	require.Error(t, err)
}

func TestConvertAll(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeModel(t, dir, "a.vox", 1, 1, 1),
		writeModel(t, dir, "b.vox", 2, 3, 4),
		writeModel(t, dir, "c.vox.zst", 5, 1, 1),
	}
	outDir := filepath.Join(dir, "out")

	outputs, err := ConvertAll(context.Background(), inputs, outDir, FormatStats)
	require.NoError(t, err)
	require.Len(t, outputs, 3)
	require.Equal(t, filepath.Join(outDir, "c.stats.json"), outputs[2])

	var stats export.Stats
	data, err := os.ReadFile(outputs[1])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &stats))
	require.Equal(t, 24, stats.Solid)
}

func TestConvertAllFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.vox")
	require.NoError(t, os.WriteFile(bad, []byte{1, 0, 0}, 0o644))

	inputs := []string{writeModel(t, dir, "ok.vox", 1, 1, 1), bad}
	_, err := ConvertAll(context.Background(), inputs, filepath.Join(dir, "out"), FormatGLB)
	require.Error(t, err)
}

func TestConvertAllCanceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ConvertAll(ctx, []string{writeModel(t, dir, "a.vox", 1, 1, 1)}, dir, FormatJSON)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPackRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeModel(t, dir, "a.vox", 2, 2, 2),
		writeModel(t, dir, "b.vox.zst", 3, 1, 4),
	}
	packFile := filepath.Join(dir, "models.voxpack")
	require.NoError(t, CreatePack(inputs, packFile))

	outDir := filepath.Join(dir, "unpacked")
	require.NoError(t, UnpackToDir(packFile, outDir))

	for _, name := range []string{"a.vox", "b.vox"} {
		g, err := vox.LoadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		require.Equal(t, g.Len(), g.CountSolid())
	}

	glbDir := filepath.Join(dir, "glb")
	require.NoError(t, RunPack2GLB(packFile, glbDir))
	for _, name := range []string{"a.glb", "b.glb"} {
		_, err := os.Stat(filepath.Join(glbDir, name))
		require.NoError(t, err)
	}
}

func TestCreatePackErrors(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, CreatePack(nil, filepath.Join(dir, "x.voxpack")))
	require.Error(t, CreatePack([]string{filepath.Join(dir, "missing.vox")}, filepath.Join(dir, "x.voxpack")))
}

func writePack(t *testing.T, dir string, entries ...pack.Entry) string {
	p := &pack.Pack{Entries: entries}
	data, err := p.Marshal(pack.LayoutRaw, pack.CompNone)
	require.NoError(t, err)

	packFile := filepath.Join(dir, "models.voxpack")
	require.NoError(t, os.WriteFile(packFile, data, 0o644))
	return packFile
}

func TestUnpackRejectsBadNames(t *testing.T) {
	tests := []struct {
		name    string
		entries []pack.Entry
	}{
		{
			name: "escaping name",
			entries: []pack.Entry{
				{Name: "ok.vox", Data: []byte{1}},
				{Name: "../evil.vox", Data: []byte{0}},
			},
		},
		{
			name: "duplicate name",
			entries: []pack.Entry{
				{Name: "ok.vox", Data: []byte{1}},
				{Name: "twice.vox", Data: []byte{2}},
				{Name: "twice.vox", Data: []byte{3}},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			packFile := writePack(t, dir, test.entries...)
			outDir := filepath.Join(dir, "out")

			require.Error(t, UnpackToDir(packFile, outDir))
			require.Error(t, RunPack2GLB(packFile, outDir))

			_, err := os.Stat(outDir)
			require.True(t, os.IsNotExist(err))
			_, err = os.Stat(filepath.Join(dir, "evil.vox"))
			require.True(t, os.IsNotExist(err))
		})
	}
}

func TestRunGenerateNoise(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, RunGenerateNoiseRange(4, 5, 6, 25, 25, 3, dir, 42))

	for _, name := range []string{"0.vox", "1.vox", "2.vox"} {
		g, err := vox.LoadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Equal(t, 30, g.CountSolid())
	}

	again := t.TempDir()
	require.NoError(t, RunGenerateNoiseRange(4, 5, 6, 25, 25, 3, again, 42))
	a, err := os.ReadFile(filepath.Join(dir, "1.vox"))
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(again, "1.vox"))
	require.NoError(t, err)
	require.Equal(t, a, b)

	require.NoError(t, RunGenerateNoise(2, 2, 2, 100, 1, dir))
	g, err := vox.LoadFile(filepath.Join(dir, "0.vox"))
	require.NoError(t, err)
	require.Equal(t, 8, g.CountSolid())
}
