package vox

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// Vertex is a quad corner in grid space.
type Vertex = mgl32.Vec3

// Direction is the outward side of a voxel face.
type Direction uint8

const (
	Up    Direction = iota // +Y
	Down                   // -Y
	East                   // +X
	West                   // -X
	North                  // +Z
	South                  // -Z
)

// Directions lists every Direction in table order.
var Directions = [...]Direction{Up, Down, East, West, North, South}

type dirSpec struct {
	name    string
	step    [3]int64
	corners [4][3]float32
}

// directions is the only place that knows what a side looks like: the
// neighbour step and the quad corners, offset from the cell's minimum
// corner. Every template winds clockwise seen from outside the cell.
var directions = [...]dirSpec{
	Up: {
		name:    "up",
		step:    [3]int64{0, 1, 0},
		corners: [4][3]float32{{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1}},
	},
	Down: {
		name:    "down",
		step:    [3]int64{0, -1, 0},
		corners: [4][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 0, 0}},
	},
	East: {
		name:    "east",
		step:    [3]int64{1, 0, 0},
		corners: [4][3]float32{{1, 0, 0}, {1, 0, 1}, {1, 1, 1}, {1, 1, 0}},
	},
	West: {
		name:    "west",
		step:    [3]int64{-1, 0, 0},
		corners: [4][3]float32{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}},
	},
	North: {
		name:    "north",
		step:    [3]int64{0, 0, 1},
		corners: [4][3]float32{{0, 0, 1}, {0, 1, 1}, {1, 1, 1}, {1, 0, 1}},
	},
	South: {
		name:    "south",
		step:    [3]int64{0, 0, -1},
		corners: [4][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	},
}

// Step is the signed offset to the neighbouring cell on this side.
func (d Direction) Step() (dx, dy, dz int64) {
	s := directions[d].step
	return s[0], s[1], s[2]
}

// Normal is the outward unit normal of a face on this side.
func (d Direction) Normal() mgl32.Vec3 {
	s := directions[d].step
	return mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
}

// Opposite returns the side facing the other way.
func (d Direction) Opposite() Direction {
	return d ^ 1
}

// Quad returns the four corners of the unit face on this side of the cell
// whose minimum corner is (x,y,z).
func (d Direction) Quad(x, y, z uint32) [4]Vertex {
	origin := mgl32.Vec3{float32(x), float32(y), float32(z)}
	var out [4]Vertex
	for i, c := range directions[d].corners {
		out[i] = origin.Add(mgl32.Vec3(c))
	}
	return out
}

// Valid reports whether d is one of the six sides.
func (d Direction) Valid() bool {
	return int(d) < len(directions)
}

func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directions[d].name
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, errors.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(directions[d].name), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	for i, spec := range directions {
		if spec.name == string(text) {
			*d = Direction(i)
			return nil
		}
	}
	return errors.Errorf("unknown direction %q", text)
}
