package vox

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Encode writes g in the format Decode reads. Palette channels are stored
// as 6-bit values, so only multiples of 4 survive a round trip.
func Encode(w io.Writer, g *VoxelGrid) error {
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.LittleEndian, g.Header()); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if _, err := bw.Write(g.data); err != nil {
		return errors.Wrap(err, "writing grid")
	}

	var raw [PaletteBytes]byte
	for i, c := range g.palette {
		raw[i*3], raw[i*3+1], raw[i*3+2] = c.To6Bit()
	}
	if _, err := bw.Write(raw[:]); err != nil {
		return errors.Wrap(err, "writing palette")
	}
	return bw.Flush()
}

// EncodeToBytes returns the encoded model.
func EncodeToBytes(g *VoxelGrid) []byte {
	var buf bytes.Buffer
	buf.Grow(int(g.Header().FileSize()))
	// bytes.Buffer writes never fail.
	_ = Encode(&buf, g)
	return buf.Bytes()
}

// DecodeBytes parses a model held in memory.
func DecodeBytes(data []byte) (*VoxelGrid, error) {
	return Decode(bytes.NewReader(data))
}
