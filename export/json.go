package export

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/voxquad/vox"
)

// Stats summarises a model and its mesh.
type Stats struct {
	Width    uint32         `json:"width"`
	Height   uint32         `json:"height"`
	Depth    uint32         `json:"depth"`
	Solid    int            `json:"solid"`
	Quads    int            `json:"quads"`
	Sides    map[string]int `json:"sides"`
	Checksum string         `json:"checksum"`
}

// Summarise computes Stats for g and the quads polygonised from it.
func Summarise(g *vox.VoxelGrid, quads []vox.Quad) Stats {
	sides := make(map[string]int, len(vox.Directions))
	for d, n := range vox.CountBySide(quads) {
		sides[d.String()] = n
	}
	return Stats{
		Width:    g.Width(),
		Height:   g.Height(),
		Depth:    g.Depth(),
		Solid:    g.CountSolid(),
		Quads:    len(quads),
		Sides:    sides,
		Checksum: strconv.FormatUint(g.Checksum(), 16),
	}
}

type jsonQuad struct {
	Side     vox.Direction `json:"side"`
	Colour   [3]uint8      `json:"colour"`
	Vertices [4]vox.Vertex `json:"vertices"`
}

type jsonMesh struct {
	Width  uint32     `json:"width"`
	Height uint32     `json:"height"`
	Depth  uint32     `json:"depth"`
	Quads  []jsonQuad `json:"quads"`
}

// WriteJSON writes the quads of a mesh with the model dimensions as JSON.
func WriteJSON(w io.Writer, dims vox.Header, quads []vox.Quad) error {
	out := jsonMesh{
		Width:  dims.Width,
		Height: dims.Height,
		Depth:  dims.Depth,
		Quads:  make([]jsonQuad, len(quads)),
	}
	for i, q := range quads {
		out.Quads[i] = jsonQuad{
			Side:     q.Side,
			Colour:   [3]uint8{q.Colour.R, q.Colour.G, q.Colour.B},
			Vertices: q.Vertices,
		}
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		return errors.Wrap(err, "encoding json mesh")
	}
	return nil
}

// WriteStats writes s as JSON.
func WriteStats(w io.Writer, s Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(s), "encoding stats")
}
