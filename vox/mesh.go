package vox

import "github.com/pkg/errors"

// Quad is one visible unit face of a voxel.
type Quad struct {
	Vertices [4]Vertex
	Colour   Colour
	Side     Direction
}

// axisPairs are the sides tested per slice, grouped by the axis the slices
// are cut along (0 = x, 1 = y, 2 = z).
var axisPairs = [3][2]Direction{
	{East, West},
	{Up, Down},
	{North, South},
}

// Polygonise returns a quad for every face of a solid voxel whose
// neighbour on that side is empty or outside the grid. The grid is only
// read.
//
// Quads come out grouped by axis, then by slice along that axis, then by
// side; callers should treat the order as unspecified.
func Polygonise(g *VoxelGrid) []Quad {
	// a zero dimension may sit next to huge ones
	if g.Len() == 0 {
		return nil
	}

	var result []Quad
	dims := [3]uint32{g.width, g.height, g.depth}

	for axis, pair := range axisPairs {
		u, v := (axis+1)%3, (axis+2)%3
		// keep the remaining axes in x, y, z order
		if u > v {
			u, v = v, u
		}

		for p := uint32(0); p < dims[axis]; p++ {
			var first, second []Quad
			for a := uint32(0); a < dims[u]; a++ {
				for b := uint32(0); b < dims[v]; b++ {
					var pos [3]uint32
					pos[axis], pos[u], pos[v] = p, a, b
					x, y, z := pos[0], pos[1], pos[2]

					c, ok, err := g.At(x, y, z)
					if err != nil {
						panic(errors.Wrap(err, "polygonise visited a cell outside the grid"))
					}
					if !ok {
						continue
					}
					if g.faceVisible(x, y, z, pair[0]) {
						first = append(first, Quad{Vertices: pair[0].Quad(x, y, z), Colour: c, Side: pair[0]})
					}
					if g.faceVisible(x, y, z, pair[1]) {
						second = append(second, Quad{Vertices: pair[1].Quad(x, y, z), Colour: c, Side: pair[1]})
					}
				}
			}
			result = append(result, first...)
			result = append(result, second...)
		}
	}
	return result
}

// faceVisible reports whether the neighbour of (x,y,z) on side d is empty.
// Any neighbour coordinate outside [0,dim), including one stepped below
// zero, counts as empty.
func (g *VoxelGrid) faceVisible(x, y, z uint32, d Direction) bool {
	dx, dy, dz := d.Step()
	nx, ny, nz := int64(x)+dx, int64(y)+dy, int64(z)+dz
	if nx < 0 || ny < 0 || nz < 0 {
		return true
	}
	_, ok, err := g.At(uint32(nx), uint32(ny), uint32(nz))
	if errors.Is(err, ErrOutOfBounds) {
		return true
	}
	return !ok
}

// CountBySide tallies quads per side.
func CountBySide(quads []Quad) map[Direction]int {
	out := make(map[Direction]int, len(Directions))
	for _, q := range quads {
		out[q.Side]++
	}
	return out
}
