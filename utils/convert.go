package utils

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/voxquad/export"
	"github.com/voxelsplace/voxquad/vox"
	"golang.org/x/sync/errgroup"
)

// Error types attached to errors returned by this package.
const (
	ErrTypeLoad   = "load_failed"
	ErrTypeWrite  = "write_failed"
	ErrTypeFormat = "unknown_format"
)

// Format is an output format for converted models.
type Format string

const (
	FormatGLB   Format = "glb"
	FormatJSON  Format = "json"
	FormatStats Format = "stats"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatGLB, FormatJSON, FormatStats:
		return f, nil
	default:
		return "", errors.New("unknown output format").
			WithType(ErrTypeFormat).
			WithTag("format", s)
	}
}

// Ext is the file extension written for the format.
func (f Format) Ext() string {
	switch f {
	case FormatGLB:
		return ".glb"
	case FormatStats:
		return ".stats.json"
	default:
		return ".json"
	}
}

// OutputPath is where ConvertAll writes the converted input: the input base
// name without compression and model extensions, in outDir.
func OutputPath(input, outDir string, f Format) string {
	name := filepath.Base(input)
	for _, ext := range []string{".zst", ".gz", ".vox"} {
		name = strings.TrimSuffix(name, ext)
	}
	return filepath.Join(outDir, name+f.Ext())
}

func load(path string) (*vox.VoxelGrid, []vox.Quad, error) {
	g, err := vox.LoadFile(path)
	if err != nil {
		return nil, nil, errors.New("loading model failed").
			WithType(ErrTypeLoad).
			WithTag("path", path).
			Wrap(err)
	}
	return g, vox.Polygonise(g), nil
}

func create(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New("creating output failed").
			WithType(ErrTypeWrite).
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return errors.New("writing output failed").
			WithType(ErrTypeWrite).
			WithTag("path", path).
			Wrap(err)
	}
	return f.Close()
}

// RunVox2GLB converts a model file into a binary glTF.
func RunVox2GLB(input, output string) error {
	g, quads, err := load(input)
	if err != nil {
		return err
	}
	if err := create(output, func(f *os.File) error {
		return export.WriteGLB(f, quads, g.Header(), export.DefaultOptions)
	}); err != nil {
		return err
	}

	logs.WithTag("input", input).
		WithTag("output", output).
		WithTag("quads", len(quads)).
		Debug("model converted to glb")
	return nil
}

// RunVox2JSON writes the quads of a model file as JSON.
func RunVox2JSON(input, output string) error {
	g, quads, err := load(input)
	if err != nil {
		return err
	}
	if err := create(output, func(f *os.File) error {
		return export.WriteJSON(f, g.Header(), quads)
	}); err != nil {
		return err
	}

	logs.WithTag("input", input).
		WithTag("output", output).
		WithTag("quads", len(quads)).
		Debug("model converted to json")
	return nil
}

// RunStats summarises a model file.
func RunStats(input string) (export.Stats, error) {
	g, quads, err := load(input)
	if err != nil {
		return export.Stats{}, err
	}
	return export.Summarise(g, quads), nil
}

// ConvertFile converts input to output in the given format.
func ConvertFile(input, output string, f Format) error {
	switch f {
	case FormatGLB:
		return RunVox2GLB(input, output)

	case FormatJSON:
		return RunVox2JSON(input, output)

	case FormatStats:
		stats, err := RunStats(input)
		if err != nil {
			return err
		}
		return create(output, func(f *os.File) error {
			return export.WriteStats(f, stats)
		})

	default:
		return errors.New("unknown output format").
			WithType(ErrTypeFormat).
			WithTag("format", f)
	}
}

// ConvertAll converts every input into outDir, one model per worker, and
// returns the written paths in input order. The first failure cancels the
// remaining conversions.
func ConvertAll(ctx context.Context, inputs []string, outDir string, f Format) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.New("creating output directory failed").
			WithType(ErrTypeWrite).
			WithTag("dir", outDir).
			Wrap(err)
	}

	start := time.Now()
	outputs := make([]string, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, input := range inputs {
		output := OutputPath(input, outDir, f)
		outputs[i] = output

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return ConvertFile(input, output, f)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logs.WithTag("count", len(inputs)).
		WithTag("format", f).
		WithTag("duration", time.Since(start)).
		Info("models converted")
	return outputs, nil
}
