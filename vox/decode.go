package vox

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// DefaultMaxCells bounds the grid size Decode accepts.
const DefaultMaxCells = 1 << 28

// ErrModelTooLarge is returned when a header declares more cells than the
// decoder is allowed to allocate.
var ErrModelTooLarge = errors.New("model too large")

// Decode reads a model: the dimensions header, the index grid and the
// palette, in that order. A stream that ends early fails with an error
// wrapping io.ErrUnexpectedEOF and no grid is returned.
func Decode(r io.Reader) (*VoxelGrid, error) {
	return DecodeWithLimit(r, DefaultMaxCells)
}

// DecodeWithLimit is Decode with a custom cell limit.
func DecodeWithLimit(r io.Reader, maxCells uint64) (*VoxelGrid, error) {
	br := bufio.NewReader(r)

	hdr, err := DecodeHeader(br)
	if err != nil {
		return nil, err
	}
	if hdr.Cells() > maxCells {
		return nil, errors.Wrapf(ErrModelTooLarge, "%dx%dx%d exceeds %d cells",
			hdr.Width, hdr.Height, hdr.Depth, maxCells)
	}

	data := make([]uint8, hdr.Cells())
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, errors.Wrap(unexpected(err), "reading grid")
	}

	var raw [PaletteBytes]byte
	if _, err := io.ReadFull(br, raw[:]); err != nil {
		return nil, errors.Wrap(unexpected(err), "reading palette")
	}
	var palette Palette
	for i := range palette {
		palette[i] = ColourFrom6Bit(raw[i*3], raw[i*3+1], raw[i*3+2])
	}

	return NewVoxelGrid(hdr.Width, hdr.Height, hdr.Depth, palette, data)
}

// DecodeHeader reads only the dimensions prefix.
func DecodeHeader(r io.Reader) (Header, error) {
	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Header{}, errors.Wrap(unexpected(err), "reading header")
	}
	return hdr, nil
}

// unexpected turns a clean EOF into io.ErrUnexpectedEOF: every section of
// the format is mandatory.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
