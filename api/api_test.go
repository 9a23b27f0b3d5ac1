package api

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/voxquad/vox"
)

func cube(t *testing.T, w, h, d uint32, v uint8) []byte {
	var palette vox.Palette
	palette[v] = vox.ColourFrom6Bit(63, 0, 0)

	g, err := vox.NewVoxelGrid(w, h, d, palette, bytes.Repeat([]byte{v}, int(w*h*d)))
	require.NoError(t, err)
	return vox.EncodeToBytes(g)
}

func TestVoxToGLB(t *testing.T) {
	out, err := VoxToGLB(cube(t, 2, 2, 2, 0))
	require.NoError(t, err)
	require.Equal(t, []byte("glTF"), out[:4])

	_, err = VoxToGLB([]byte{1, 2, 3})
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestVoxToJSON(t *testing.T) {
	out, err := VoxToJSON(cube(t, 2, 2, 2, 0))
	require.NoError(t, err)

	var mesh struct {
		Quads []struct {
			Colour [3]uint8 `json:"colour"`
		} `json:"quads"`
	}
	require.NoError(t, json.Unmarshal(out, &mesh))
	require.Len(t, mesh.Quads, 24)
	for _, q := range mesh.Quads {
		require.Equal(t, [3]uint8{252, 0, 0}, q.Colour)
	}
}

func TestVoxStats(t *testing.T) {
	stats, err := VoxStats(cube(t, 3, 4, 5, 1))
	require.NoError(t, err)
	require.Equal(t, 60, stats.Solid)
	require.Equal(t, 2*(12+20+15), stats.Quads)
	require.Equal(t, 20, stats.Sides["east"])
}

func TestPolygoniseOverflowingHeader(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint32{1 << 22, 1 << 21, 1 << 21})
	buf.Write(make([]byte, vox.PaletteBytes))

	_, err := PolygoniseWithLimit(buf.Bytes(), math.MaxUint64-1)
	require.True(t, errors.Is(err, vox.ErrModelTooLarge))

	_, err = VoxStats(buf.Bytes())
	require.True(t, errors.Is(err, vox.ErrModelTooLarge))
}

func TestPackUnpackModels(t *testing.T) {
	files := map[string][]byte{
		"a.vox": cube(t, 2, 2, 2, 0),
		"b.vox": cube(t, 1, 3, 2, 5),
		"c.vox": cube(t, 2, 2, 2, 0),
	}

	data, err := PackModels(files)
	require.NoError(t, err)

	got, err := UnpackModels(data)
	require.NoError(t, err)
	require.Equal(t, files, got)

	again, err := PackModels(files)
	require.NoError(t, err)
	require.Equal(t, data, again)
}

func TestPackModelsErrors(t *testing.T) {
	_, err := PackModels(nil)
	require.Error(t, err)

	_, err = PackModels(map[string][]byte{"bad.vox": {0, 0}})
	require.Error(t, err)

	_, err = UnpackModels([]byte("not a pack"))
	require.Error(t, err)
}
