package pixel

import "image/color"

// Models for the panel color types.
var (
	CRGB16Model color.Model = color.ModelFunc(crgb16Model)
	CRGB18Model color.Model = color.ModelFunc(crgb18Model)
)

// CRGB16 represents a 16-bit 5-6-5 RGB color (RGB565).
type CRGB16 struct {
	// CRed, 5, CGreen, 6, CBlue, 5
	V uint16
}

func (c CRGB16) RGBA() (r, g, b, a uint32) {
	// Build a 5- or 6-bit value at the top of the low byte of each component.
	red := (c.V & 0xF800) >> 8
	grn := (c.V & 0x07E0) >> 3
	blu := (c.V & 0x001F) << 3
	// Duplicate the high bits in the low bits.
	red |= red >> 5
	grn |= grn >> 6
	blu |= blu >> 5
	// Duplicate the whole value in the high byte.
	red |= red << 8
	grn |= grn << 8
	blu |= blu << 8
	return uint32(red), uint32(grn), uint32(blu), 0xffff
}

func crgb16Model(c color.Color) color.Color {
	switch c := c.(type) {
	case CRGB16:
		return c
	case CRGB18:
		return CRGB16{uint16(c.R&0xF8)<<8 | uint16(c.G&0xFC)<<3 | uint16(c.B)>>3}
	default:
		r, g, b, _ := c.RGBA()
		r = (r & 0xF800)
		g = (g & 0xFC00) >> 5
		b = (b & 0xF800) >> 11
		return CRGB16{uint16(r | g | b)}
	}
}

// CRGB18 represents a 18-bit 6-6-6 RGB color (RGB666).
//
// Each component uses the 6 most significant bits of its byte, the way the
// controller expects them on the bus.
type CRGB18 struct {
	R, G, B uint8
}

func (c CRGB18) RGBA() (r, g, b, a uint32) {
	return expand6(c.R), expand6(c.G), expand6(c.B), 0xffff
}

// expand6 scales the 6 high bits of v to 16 bits.
func expand6(v uint8) uint32 {
	x := uint32(v & 0xFC)
	x |= x >> 6
	return x | x<<8
}

func crgb18Model(c color.Color) color.Color {
	switch c := c.(type) {
	case CRGB18:
		return CRGB18{c.R & 0xFC, c.G & 0xFC, c.B & 0xFC}
	default:
		r, g, b, _ := c.RGBA()
		return CRGB18{
			R: uint8(r>>8) & 0xFC,
			G: uint8(g>>8) & 0xFC,
			B: uint8(b>>8) & 0xFC,
		}
	}
}
