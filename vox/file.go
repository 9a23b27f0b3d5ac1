package vox

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// LoadFile decodes the model stored at path. Files ending in .zst or .gz
// are decompressed on the fly.
func LoadFile(path string) (*VoxelGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, closeFn, err := decompressor(path, f)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer closeFn()

	g, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", filepath.Base(path))
	}
	return g, nil
}

// SaveFile encodes g to path, compressing according to the extension the
// same way LoadFile reads it back.
func SaveFile(path string, g *VoxelGrid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var w io.WriteCloser = nopWriteCloser{f}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		if w, err = zstd.NewWriter(f); err != nil {
			f.Close()
			return err
		}
	case ".gz":
		w = gzip.NewWriter(f)
	}

	if err := Encode(w, g); err != nil {
		w.Close()
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func decompressor(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case ".gz":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gr, func() { gr.Close() }, nil
	default:
		return r, func() {}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
