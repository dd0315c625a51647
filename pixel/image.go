package pixel

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)

	// Bytes are the encoded pixels of the image.
	Bytes() []byte
}

// Buffer holds the pixel values and is a container that is used by all image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Bytes() []byte {
	return p.Pix
}

func (p *Buffer) Clear() {
	clear(p.Pix)
}

func makeBuffer(w, h, bpp int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, w*h*bpp),
		Stride: w * bpp,
	}
}

// CRGB16Image is a 16-bits per pixel 5-6-5-bit RGB image.
type CRGB16Image struct {
	Buffer
	Order binary.ByteOrder
}

// NewCRGB16Image returns a big endian RGB565 image, the order LCD controllers
// receive pixels in.
func NewCRGB16Image(w, h int) *CRGB16Image {
	return &CRGB16Image{
		Buffer: makeBuffer(w, h, 2),
		Order:  binary.BigEndian,
	}
}

func (p *CRGB16Image) ColorModel() color.Model {
	return CRGB16Model
}

func (p *CRGB16Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

func (p *CRGB16Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return CRGB16{p.Order.Uint16(p.Pix[p.PixOffset(x, y):])}
}

func (p *CRGB16Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Order.PutUint16(p.Pix[p.PixOffset(x, y):], crgb16Model(c).(CRGB16).V)
}

func (p *CRGB16Image) Fill(c color.Color) {
	var value [2]byte
	p.Order.PutUint16(value[:], crgb16Model(c).(CRGB16).V)
	for i := 0; i < len(p.Pix); i += 2 {
		copy(p.Pix[i:], value[:])
	}
}

// CRGB18Image is a 24-bits per pixel image holding 6-6-6-bit RGB colors.
type CRGB18Image struct {
	Buffer
}

func NewCRGB18Image(w, h int) *CRGB18Image {
	return &CRGB18Image{
		Buffer: makeBuffer(w, h, 3),
	}
}

func (p *CRGB18Image) ColorModel() color.Model {
	return CRGB18Model
}

func (p *CRGB18Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *CRGB18Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	s := p.Pix[p.PixOffset(x, y):]
	return CRGB18{R: s[0], G: s[1], B: s[2]}
}

func (p *CRGB18Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	v := crgb18Model(c).(CRGB18)
	s := p.Pix[p.PixOffset(x, y):]
	s[0], s[1], s[2] = v.R, v.G, v.B
}

func (p *CRGB18Image) Fill(c color.Color) {
	v := crgb18Model(c).(CRGB18)
	for i := 0; i < len(p.Pix); i += 3 {
		p.Pix[i], p.Pix[i+1], p.Pix[i+2] = v.R, v.G, v.B
	}
}

// New returns an image for the given number of bytes per pixel: 2 for RGB565,
// 3 for RGB666.
func New(w, h, bytesPerPixel int) Image {
	if bytesPerPixel == 3 {
		return NewCRGB18Image(w, h)
	}
	return NewCRGB16Image(w, h)
}

// Interface checks.
var (
	_ Image = (*CRGB16Image)(nil)
	_ Image = (*CRGB18Image)(nil)
)
