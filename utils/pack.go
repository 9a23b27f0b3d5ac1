package utils

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/voxquad/export"
	"github.com/voxelsplace/voxquad/pack"
	"github.com/voxelsplace/voxquad/vox"
	"golang.org/x/sync/errgroup"
)

// ErrTypePack is attached to errors from reading or writing packs.
const ErrTypePack = "pack_failed"

// CreatePack bundles model files into a .voxpack using the CDC layout and
// zstd compression.
func CreatePack(inputs []string, output string) error {
	return CreatePackWith(inputs, output, pack.LayoutCDC, pack.CompZstd)
}

// CreatePackWith bundles model files into a .voxpack. Inputs are loaded
// concurrently and stored in argument order under their base names.
func CreatePackWith(inputs []string, output string, layout pack.Layout, comp pack.Compression) error {
	if len(inputs) == 0 {
		return errors.New("no model files provided").WithType(ErrTypePack)
	}

	grids := make([]*vox.VoxelGrid, len(inputs))
	var g errgroup.Group
	for i, input := range inputs {
		g.Go(func() error {
			grid, err := vox.LoadFile(input)
			if err != nil {
				return errors.New("loading model failed").
					WithType(ErrTypeLoad).
					WithTag("path", input).
					Wrap(err)
			}
			grids[i] = grid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p := &pack.Pack{}
	for i, grid := range grids {
		if err := p.Add(entryName(inputs[i]), grid); err != nil {
			return errors.New("adding model failed").
				WithType(ErrTypePack).
				WithTag("path", inputs[i]).
				Wrap(err)
		}
	}

	start := time.Now()
	data, err := p.Marshal(layout, comp)
	if err != nil {
		return errors.New("encoding pack failed").WithType(ErrTypePack).Wrap(err)
	}

	logs.WithTag("models", p.Len()).
		WithTag("layout", layout).
		WithTag("compression", comp).
		WithTag("size", len(data)).
		WithTag("duration", time.Since(start)).
		Info("pack created")

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.New("writing pack failed").
			WithType(ErrTypeWrite).
			WithTag("path", output).
			Wrap(err)
	}
	return nil
}

// entryName is the base name of a model file stored uncompressed.
func entryName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".zst")
	return strings.TrimSuffix(name, ".gz")
}

func readPack(path string) (*pack.Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading pack failed").
			WithType(ErrTypeLoad).
			WithTag("path", path).
			Wrap(err)
	}
	p, _, err := pack.Unmarshal(data)
	if err != nil {
		return nil, errors.New("decoding pack failed").
			WithType(ErrTypePack).
			WithTag("path", path).
			Wrap(err)
	}
	return p, nil
}

// safeName rejects entry names that would escape the output directory.
func safeName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return errors.New("invalid entry name").
			WithType(ErrTypePack).
			WithTag("name", name)
	}
	return nil
}

// checkNames validates every entry name and rejects duplicates, so that
// nothing is written for a pack with a bad entry.
func checkNames(entries []pack.Entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if err := safeName(e.Name); err != nil {
			return err
		}
		if _, ok := seen[e.Name]; ok {
			return errors.New("duplicate entry name").
				WithType(ErrTypePack).
				WithTag("name", e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}

// UnpackToDir writes every model of a .voxpack into dir.
func UnpackToDir(packFile, dir string) error {
	p, err := readPack(packFile)
	if err != nil {
		return err
	}
	if err := checkNames(p.Entries); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("creating output directory failed").
			WithType(ErrTypeWrite).
			WithTag("dir", dir).
			Wrap(err)
	}

	var g errgroup.Group
	for _, e := range p.Entries {
		g.Go(func() error {
			path := filepath.Join(dir, e.Name)
			if err := os.WriteFile(path, e.Data, 0o644); err != nil {
				return errors.New("writing model failed").
					WithType(ErrTypeWrite).
					WithTag("path", path).
					Wrap(err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logs.WithTag("pack", packFile).
		WithTag("models", p.Len()).
		Info("pack unpacked")
	return nil
}

// RunPack2GLB converts every model of a .voxpack into a .glb in dir.
func RunPack2GLB(packFile, dir string) error {
	p, err := readPack(packFile)
	if err != nil {
		return err
	}
	if err := checkNames(p.Entries); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("creating output directory failed").
			WithType(ErrTypeWrite).
			WithTag("dir", dir).
			Wrap(err)
	}

	var g errgroup.Group
	for i, e := range p.Entries {
		g.Go(func() error {
			grid, err := p.Model(i)
			if err != nil {
				return errors.New("decoding model failed").
					WithType(ErrTypePack).
					WithTag("name", e.Name).
					Wrap(err)
			}

			opts := export.DefaultOptions
			opts.Name = strings.TrimSuffix(e.Name, ".vox")
			output := OutputPath(e.Name, dir, FormatGLB)
			return create(output, func(f *os.File) error {
				return export.WriteGLB(f, vox.Polygonise(grid), grid.Header(), opts)
			})
		})
	}
	return g.Wait()
}
