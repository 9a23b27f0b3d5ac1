package export

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/voxelsplace/voxquad/vox"
)

// Options tune the glTF document built from a mesh.
type Options struct {
	// Name is given to the mesh and its node.
	Name string

	// Centre shifts every position so the model's bounding box is centred
	// on the origin.
	Centre bool
}

// DefaultOptions are used by the file and byte converters.
var DefaultOptions = Options{Name: "VoxelMesh", Centre: true}

// glbTriangles reverses the quad winding: glTF front faces are
// counter-clockwise seen from outside.
var glbTriangles = [6]uint32{0, 2, 1, 0, 3, 2}

// BuildDocument turns quads into a glTF document with one indexed mesh.
// Normals come from each quad's side and colours go to COLOR_0.
func BuildDocument(quads []vox.Quad, dims vox.Header, opts Options) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "voxquad"

	if len(quads) == 0 {
		return doc
	}

	positions := make([][3]float32, 0, len(quads)*4)
	normals := make([][3]float32, 0, len(quads)*4)
	colors := make([][4]float32, 0, len(quads)*4)
	indices := make([]uint32, 0, len(quads)*len(glbTriangles))

	var offset vox.Vertex
	if opts.Centre {
		offset = vox.Vertex{float32(dims.Width) / 2, float32(dims.Height) / 2, float32(dims.Depth) / 2}
	}

	for _, q := range quads {
		base := uint32(len(positions))
		n := q.Side.Normal()
		rgba := q.Colour.RGBA()
		for _, v := range q.Vertices {
			positions = append(positions, [3]float32(v.Sub(offset)))
			normals = append(normals, [3]float32(n))
			colors = append(colors, rgba)
		}
		for _, i := range glbTriangles {
			indices = append(indices, base+i)
		}
	}

	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	colorAccessor := modeler.WriteColor(doc, colors)
	indicesAccessor := modeler.WriteIndices(doc, indices)

	prim := &gltf.Primitive{
		Attributes: gltf.PrimitiveAttributes{
			gltf.POSITION: posAccessor,
			gltf.NORMAL:   normalAccessor,
			gltf.COLOR_0:  colorAccessor,
		},
		Indices:  gltf.Index(indicesAccessor),
		Material: gltf.Index(0),
	}

	// base colour stays at the glTF default of opaque white; COLOR_0 tints it
	pbr := &gltf.PBRMetallicRoughness{
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	doc.Materials = []*gltf.Material{{PBRMetallicRoughness: pbr, AlphaMode: gltf.AlphaOpaque}}

	name := opts.Name
	if name == "" {
		name = DefaultOptions.Name
	}
	doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}

	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

// WriteGLB encodes quads as a binary glTF to w.
func WriteGLB(w io.Writer, quads []vox.Quad, dims vox.Header, opts Options) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(BuildDocument(quads, dims, opts)); err != nil {
		return errors.Wrap(err, "encoding glb")
	}
	return nil
}

// MarshalGLB returns the binary glTF for quads.
func MarshalGLB(quads []vox.Quad, dims vox.Header, opts Options) ([]byte, error) {
	var out bytes.Buffer
	if err := WriteGLB(&out, quads, dims, opts); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// SaveGLB writes the binary glTF for quads to path.
func SaveGLB(path string, quads []vox.Quad, dims vox.Header, opts Options) error {
	return gltf.SaveBinary(BuildDocument(quads, dims, opts), path)
}
