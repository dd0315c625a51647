// Package panel contains drivers for LCD panel controllers.
//
// A panel driver turns a small set of operations (reset, init, draw a region,
// mirror, swap axes, invert, power) into controller command sequences sent
// over an [IO] bus. The bus, the GPIO pins and the pixel data are provided by
// the caller; see the conn and pixel packages for implementations.
package panel

import (
	"errors"
	"fmt"
	"os"

	"periph.io/x/conn/v3/gpio"
)

var debug bool

func init() {
	debug = os.Getenv("PANEL_DEBUG") != ""
}

// Errors
var (
	ErrUnsupportedConfig = errors.New("panel: unsupported configuration")
	ErrHardwareInit      = errors.New("panel: hardware initialization failed")
	ErrInvalidRegion     = errors.New("panel: invalid draw region")
	ErrTransport         = errors.New("panel: transport error")
)

// Panel is a LCD panel controller.
type Panel interface {
	// Close releases the resources owned by the driver.
	Close() error

	// Reset the controller, using the reset line if there is one.
	Reset() error

	// Init sends the controller initialization sequence.
	Init() error

	// DrawBitmap writes pixel data to the half-open region (x0,y0)-(x1,y1).
	DrawBitmap(x0, y0, x1, y1 int, data []byte) error

	// InvertColor toggles color inversion.
	InvertColor(invert bool) error

	// Mirror sets the X and Y mirroring.
	Mirror(mirrorX, mirrorY bool) error

	// SwapXY swaps the X and Y axes.
	SwapXY(swap bool) error

	// SetGap sets the addressing offsets.
	SetGap(x, y int) error

	// DisplayOff switches the display off or back on.
	DisplayOff(off bool) error
}

// ColorSpace is the order of the color components on the panel.
type ColorSpace uint8

// Supported color spaces.
const (
	RGB ColorSpace = iota
	BGR
)

func (c ColorSpace) String() string {
	switch c {
	case RGB:
		return "RGB"
	case BGR:
		return "BGR"
	default:
		return fmt.Sprintf("ColorSpace(%d)", uint8(c))
	}
}

// PixelFormat is the pixel encoding the controller expects.
type PixelFormat uint8

// Supported pixel formats.
const (
	RGB565 PixelFormat = iota // 16 bits, 2 bytes per pixel
	RGB666                    // 18 bits, 3 bytes per pixel (6 MSB per byte)
)

func (f PixelFormat) String() string {
	switch f {
	case RGB565:
		return "RGB565"
	case RGB666:
		return "RGB666"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint8(f))
	}
}

// BytesPerPixel is the size of one encoded pixel.
func (f PixelFormat) BytesPerPixel() int {
	if f == RGB666 {
		return 3
	}
	return 2
}

// Orientation is the mirror and swap state of a panel.
type Orientation struct {
	MirrorX bool
	MirrorY bool
	SwapXY  bool
}

func (o Orientation) String() string {
	return fmt.Sprintf("mirror x=%t y=%t swap=%t", o.MirrorX, o.MirrorY, o.SwapXY)
}

// Config is the panel configuration.
type Config struct {
	// Reset pin, nil means the controller is reset with a command.
	Reset gpio.PinOut

	// ResetActiveHigh drives the reset pin high to reset the controller.
	ResetActiveHigh bool

	// ColorSpace of the panel.
	ColorSpace ColorSpace

	// BitsPerPixel is 16 (RGB565), 18 or 24 (RGB666).
	BitsPerPixel int

	// XGap and YGap are added to every column and row address.
	XGap int
	YGap int
}

func (c *Config) pixelFormat() (PixelFormat, error) {
	switch c.BitsPerPixel {
	case 16:
		return RGB565, nil
	case 18, 24:
		return RGB666, nil
	default:
		return 0, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedConfig, c.BitsPerPixel)
	}
}
