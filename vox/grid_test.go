package vox

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestIndexIsBijective(t *testing.T) {
	g := newTestGrid(t, 3, 4, 5)

	seen := make(map[int]bool, g.Len())
	for x := uint32(0); x < g.Width(); x++ {
		for y := uint32(0); y < g.Height(); y++ {
			for z := uint32(0); z < g.Depth(); z++ {
				i := g.Index(x, y, z)
				require.False(t, seen[i], "index %d reused at (%d,%d,%d)", i, x, y, z)
				require.GreaterOrEqual(t, i, 0)
				require.Less(t, i, g.Len())
				seen[i] = true
			}
		}
	}
	require.Len(t, seen, 60)
}

func TestIndexZFastest(t *testing.T) {
	g := newTestGrid(t, 3, 4, 5)
	require.Equal(t, 0, g.Index(0, 0, 0))
	require.Equal(t, 1, g.Index(0, 0, 1))
	require.Equal(t, 5, g.Index(0, 1, 0))
	require.Equal(t, 20, g.Index(1, 0, 0))
	require.Equal(t, 59, g.Index(2, 3, 4))
}

func TestAtBounds(t *testing.T) {
	g := newTestGrid(t, 2, 3, 4)

	tests := []struct {
		x, y, z uint32
		oob     bool
	}{
		{0, 0, 0, false},
		{1, 2, 3, false},
		{2, 0, 0, true},
		{0, 3, 0, true},
		{0, 0, 4, true},
		{^uint32(0), 0, 0, true},
		{0, ^uint32(0), 0, true},
		{0, 0, ^uint32(0), true},
	}

	for _, test := range tests {
		_, _, err := g.At(test.x, test.y, test.z)
		if test.oob {
			require.True(t, errors.Is(err, ErrOutOfBounds), "(%d,%d,%d)", test.x, test.y, test.z)
			continue
		}
		require.NoError(t, err)
	}
}

func TestAtEmptyAndSolid(t *testing.T) {
	g := newTestGrid(t, 2, 2, 2)
	set(g, 1, 0, 1, 7)

	_, ok, err := g.At(0, 0, 0)
	require.NoError(t, err)
	require.False(t, ok)

	c, ok, err := g.At(1, 0, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, g.Palette()[7], c)

	v, err := g.Cell(1, 0, 1)
	require.NoError(t, err)
	require.Equal(t, uint8(7), v)
	require.Equal(t, 1, g.CountSolid())
}

func TestNewVoxelGridDimensionMismatch(t *testing.T) {
	_, err := NewVoxelGrid(2, 2, 2, Palette{}, make([]uint8, 7))
	require.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestZeroSizedGrid(t *testing.T) {
	g, err := NewVoxelGrid(0, 5, 5, Palette{}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, g.Len())

	_, _, err = g.At(0, 0, 0)
	require.True(t, errors.Is(err, ErrOutOfBounds))
	require.Empty(t, Polygonise(g))
}

func TestGridAccessorsAreReadOnly(t *testing.T) {
	g := newTestGrid(t, 3, 4, 5)
	set(g, 1, 1, 1, 7)
	before := g.Checksum()

	p := g.Palette()
	p[7] = Colour{R: 4, G: 8, B: 12}
	require.NotEqual(t, p[7], g.Palette()[7])

	c, ok, err := g.At(1, 1, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, g.Palette()[7], c)
	require.Equal(t, before, g.Checksum())
	require.Equal(t, Header{Width: 3, Height: 4, Depth: 5}, Header{Width: g.Width(), Height: g.Height(), Depth: g.Depth()})
}

func TestChecksum(t *testing.T) {
	a := newTestGrid(t, 2, 2, 2)
	b := newTestGrid(t, 2, 2, 2)
	require.Equal(t, a.Checksum(), b.Checksum())

	set(b, 0, 0, 0, 1)
	require.NotEqual(t, a.Checksum(), b.Checksum())

	c := newTestGrid(t, 2, 4, 1)
	require.NotEqual(t, a.Checksum(), c.Checksum())
}

func TestGridString(t *testing.T) {
	require.Equal(t, "VoxelModel 3×4×5", newTestGrid(t, 3, 4, 5).String())
}
