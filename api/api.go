// Package api converts in-memory model files. It backs the HTTP server and
// the WebAssembly build, which both work on byte slices rather than paths.
package api

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
	"github.com/voxelsplace/voxquad/export"
	"github.com/voxelsplace/voxquad/pack"
	"github.com/voxelsplace/voxquad/vox"
)

// Result is a decoded model and its polygonised surface.
type Result struct {
	Grid  *vox.VoxelGrid
	Quads []vox.Quad
}

// Polygonise decodes a model file and meshes it.
func Polygonise(data []byte) (Result, error) {
	return PolygoniseWithLimit(data, vox.DefaultMaxCells)
}

// PolygoniseWithLimit is Polygonise for models of at most maxCells cells.
func PolygoniseWithLimit(data []byte, maxCells uint64) (Result, error) {
	g, err := vox.DecodeWithLimit(bytes.NewReader(data), maxCells)
	if err != nil {
		return Result{}, err
	}
	return Result{Grid: g, Quads: vox.Polygonise(g)}, nil
}

// VoxToGLB takes model file bytes and returns a binary glTF of its surface.
func VoxToGLB(data []byte) ([]byte, error) {
	res, err := Polygonise(data)
	if err != nil {
		return nil, err
	}
	return export.MarshalGLB(res.Quads, res.Grid.Header(), export.DefaultOptions)
}

// VoxToJSON takes model file bytes and returns its quads as JSON.
func VoxToJSON(data []byte) ([]byte, error) {
	res, err := Polygonise(data)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := export.WriteJSON(&out, res.Grid.Header(), res.Quads); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// VoxStats summarises a model file.
func VoxStats(data []byte) (export.Stats, error) {
	res, err := Polygonise(data)
	if err != nil {
		return export.Stats{}, err
	}
	return export.Summarise(res.Grid, res.Quads), nil
}

// PackModels builds a .voxpack from named model files, ordered by name.
// Every file must decode.
func PackModels(files map[string][]byte) ([]byte, error) {
	if len(files) == 0 {
		return nil, errors.New("no files")
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	p := &pack.Pack{}
	for _, name := range names {
		g, err := vox.DecodeBytes(files[name])
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %q", name)
		}
		if err := p.Add(name, g); err != nil {
			return nil, err
		}
	}
	return p.Marshal(pack.LayoutCDC, pack.CompZstd)
}

// UnpackModels returns the model files stored in a .voxpack by name.
func UnpackModels(data []byte) (map[string][]byte, error) {
	p, _, err := pack.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, p.Len())
	for _, e := range p.Entries {
		out[e.Name] = e.Data
	}
	return out, nil
}
