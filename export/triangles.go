package export

import "github.com/voxelsplace/voxquad/vox"

// ColouredVertex is one vertex of the flat triangle list a renderer uploads.
type ColouredVertex struct {
	Position vox.Vertex
	Colour   [3]uint8
}

// quadTriangles splits a quad into triangles (0,1,2) and (2,3,0), keeping
// the winding of the direction templates.
var quadTriangles = [6]int{0, 1, 2, 2, 3, 0}

// Triangulate expands quads into a triangle list, six vertices per quad,
// each carrying its quad's colour.
func Triangulate(quads []vox.Quad) []ColouredVertex {
	out := make([]ColouredVertex, 0, len(quads)*len(quadTriangles))
	for _, q := range quads {
		colour := [3]uint8{q.Colour.R, q.Colour.G, q.Colour.B}
		for _, i := range quadTriangles {
			out = append(out, ColouredVertex{Position: q.Vertices[i], Colour: colour})
		}
	}
	return out
}
