package vox

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

var (
	// ErrOutOfBounds is returned by lookups outside the grid dimensions.
	ErrOutOfBounds = errors.New("coordinate out of bounds")

	// ErrDimensionMismatch is returned when index data does not hold
	// exactly width*height*depth cells.
	ErrDimensionMismatch = errors.New("grid data does not match dimensions")
)

// VoxelGrid is a dense, read-only 3D array of palette indices.
// Cells are stored with z varying fastest, then y, then x.
type VoxelGrid struct {
	width   uint32
	height  uint32
	depth   uint32
	palette Palette
	data    []uint8
}

// NewVoxelGrid builds a grid over data, which it takes ownership of.
func NewVoxelGrid(width, height, depth uint32, palette Palette, data []uint8) (*VoxelGrid, error) {
	h := Header{Width: width, Height: height, Depth: depth}
	if uint64(len(data)) != h.Cells() {
		return nil, errors.Wrapf(ErrDimensionMismatch, "%dx%dx%d needs %d cells, got %d",
			width, height, depth, h.Cells(), len(data))
	}
	return &VoxelGrid{
		width:   width,
		height:  height,
		depth:   depth,
		palette: palette,
		data:    data,
	}, nil
}

func (g *VoxelGrid) Width() uint32  { return g.width }
func (g *VoxelGrid) Height() uint32 { return g.height }
func (g *VoxelGrid) Depth() uint32  { return g.depth }

// Palette returns a copy of the grid palette.
func (g *VoxelGrid) Palette() Palette {
	return g.palette
}

// Header returns the grid dimensions.
func (g *VoxelGrid) Header() Header {
	return Header{Width: g.width, Height: g.height, Depth: g.depth}
}

// Len is the number of cells in the grid.
func (g *VoxelGrid) Len() int {
	return len(g.data)
}

// Index maps an in-bounds coordinate to its offset in the flat data.
// Callers validate bounds first; see Contains.
func (g *VoxelGrid) Index(x, y, z uint32) int {
	d := int(g.depth)
	return int(z) + int(y)*d + int(x)*int(g.height)*d
}

// Contains reports whether (x,y,z) lies inside the grid.
func (g *VoxelGrid) Contains(x, y, z uint32) bool {
	return x < g.width && y < g.height && z < g.depth
}

// Cell returns the raw palette index stored at (x,y,z).
func (g *VoxelGrid) Cell(x, y, z uint32) (uint8, error) {
	if !g.Contains(x, y, z) {
		return 0, errors.Wrapf(ErrOutOfBounds, "(%d,%d,%d) in %s", x, y, z, g)
	}
	return g.data[g.Index(x, y, z)], nil
}

// At returns the colour of the voxel at (x,y,z). ok is false when the cell
// is empty.
func (g *VoxelGrid) At(x, y, z uint32) (c Colour, ok bool, err error) {
	v, err := g.Cell(x, y, z)
	if err != nil {
		return Black, false, err
	}
	if !solid(v) {
		return Black, false, nil
	}
	return g.palette[v], true, nil
}

// CountSolid returns the number of non-empty cells.
func (g *VoxelGrid) CountSolid() int {
	n := 0
	for _, v := range g.data {
		if solid(v) {
			n++
		}
	}
	return n
}

// Checksum hashes the dimensions, cells and palette of the grid.
func (g *VoxelGrid) Checksum() uint64 {
	d := xxhash.New()
	_, _ = fmt.Fprintf(d, "%d:%d:%d:", g.width, g.height, g.depth)
	_, _ = d.Write(g.data)
	for _, c := range g.palette {
		_, _ = d.Write([]byte{c.R, c.G, c.B})
	}
	return d.Sum64()
}

func solid(v uint8) bool {
	return v != Empty
}

func (g *VoxelGrid) String() string {
	return fmt.Sprintf("VoxelModel %d×%d×%d", g.width, g.height, g.depth)
}
