package vox

import "fmt"

// PaletteSize is the number of entries in every model palette.
const PaletteSize = 256

// Empty is the grid index that marks a cell with no voxel. It is never
// looked up in the palette.
const Empty uint8 = 255

// Colour is an 8-bit RGB triple.
type Colour struct {
	R uint8
	G uint8
	B uint8
}

// Black is the colour reported for empty cells.
var Black = Colour{}

// Palette maps grid indices to colours.
type Palette [PaletteSize]Colour

// ColourFrom6Bit scales stored 6-bit channel values (0..63) to 8 bits.
// Values above 63 keep only the bits that survive the shift.
func ColourFrom6Bit(r, g, b uint8) Colour {
	return Colour{R: r << 2, G: g << 2, B: b << 2}
}

// To6Bit returns the channel values as stored on disk.
func (c Colour) To6Bit() (r, g, b uint8) {
	return c.R >> 2, c.G >> 2, c.B >> 2
}

// RGBA returns the colour as normalized float channels with full alpha.
func (c Colour) RGBA() [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, 1}
}

// Hex formats the colour as #rrggbb.
func (c Colour) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
