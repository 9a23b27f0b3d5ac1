package vox

import (
	"math"
	"math/bits"
)

// Header is the fixed prefix of a model file: three little-endian u32
// dimensions. It is followed by Cells() index bytes and the palette.
type Header struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// HeaderSize is the encoded size of Header in bytes.
const HeaderSize = 12

// PaletteBytes is the encoded size of a palette: 256 (r,g,b) triples.
const PaletteBytes = PaletteSize * 3

// Cells returns width*height*depth. A product that does not fit in a
// uint64 saturates to math.MaxUint64, so it fails every cell limit.
func (h Header) Cells() uint64 {
	hi, wh := bits.Mul64(uint64(h.Width), uint64(h.Height))
	if hi != 0 {
		return math.MaxUint64
	}
	hi, n := bits.Mul64(wh, uint64(h.Depth))
	if hi != 0 {
		return math.MaxUint64
	}
	return n
}

// FileSize is the number of bytes a complete model with this header
// occupies, saturating like Cells.
func (h Header) FileSize() uint64 {
	sum, carry := bits.Add64(h.Cells(), HeaderSize+PaletteBytes, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}
