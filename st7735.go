package panel

import (
	"fmt"
	"image"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Native addressable area.
const (
	st7735Width  = 128
	st7735Height = 160
)

// Registers (from st7735.pdf).
const (
	st7735SWRESET = 0x01
	st7735SLPOUT  = 0x11
	st7735NORON   = 0x13
	st7735INVOFF  = 0x20
	st7735INVON   = 0x21
	st7735DISPOFF = 0x28
	st7735DISPON  = 0x29
	st7735CASET   = 0x2A
	st7735RASET   = 0x2B
	st7735RAMWR   = 0x2C
	st7735MADCTL  = 0x36
	st7735COLMOD  = 0x3A
	st7735FRMCTR1 = 0xB1
	st7735FRMCTR2 = 0xB2
	st7735FRMCTR3 = 0xB3
	st7735INVCTR  = 0xB4
	st7735PWCTR1  = 0xC0
	st7735PWCTR2  = 0xC1
	st7735PWCTR3  = 0xC2
	st7735PWCTR4  = 0xC3
	st7735PWCTR5  = 0xC4
	st7735VMCTR1  = 0xC5
	st7735GMCTRP1 = 0xE0
	st7735GMCTRN1 = 0xE1
)

// Memory Data Access Control (MADCTL) bit fields.
const (
	_                           byte = 1 << iota // D0: reserved
	_                                            // D1: reserved
	st7735DisplayDataLatchOrder                  // D2: MH
	st7735RGBOrder                               // D3: RGB/BGR
	st7735LineAddressOrder                       // D4: ML
	st7735PageColumnOrder                        // D5: MV
	st7735ColumnAddressOrder                     // D6: MX
	st7735PageAddressOrder                       // D7: MY
)

// Interface Pixel Format (COLMOD) values.
const (
	st7735ColorMode16 = 0x55
	st7735ColorMode18 = 0x66
)

// Minimum settle times (from st7735.pdf).
const (
	st7735ResetPulse     = 10 * time.Millisecond
	st7735ResetRecovery  = 120 * time.Millisecond
	st7735InitReset      = 150 * time.Millisecond
	st7735SleepOutDelay  = 255 * time.Millisecond
	st7735NormalOnDelay  = 10 * time.Millisecond
	st7735DisplayOnDelay = 100 * time.Millisecond
)

type st7735Command struct {
	cmd    byte
	params []byte
	delay  time.Duration
}

// ST7735 is a Sitronix ST7735 panel driver.
//
// The driver is not safe for concurrent use. The IO is borrowed and must
// outlive the driver, the reset pin is owned until Close.
type ST7735 struct {
	io         IO
	reset      gpio.PinOut
	resetLevel gpio.Level
	xGap       int
	yGap       int
	format     PixelFormat
	colorSpace ColorSpace
	mirrorX    bool
	mirrorY    bool
	swapXY     bool
	sleep      func(time.Duration)
}

var _ Panel = (*ST7735)(nil)

// NewST7735 returns a driver for the ST7735 connected to io.
//
// If config has a reset pin, it is driven to its inactive level. No commands
// are sent; call Reset and Init before drawing.
func NewST7735(io IO, config *Config) (*ST7735, error) {
	if io == nil || config == nil {
		return nil, fmt.Errorf("%w: bus and config are required", ErrUnsupportedConfig)
	}
	if config.ColorSpace != RGB && config.ColorSpace != BGR {
		return nil, fmt.Errorf("%w: color space %s", ErrUnsupportedConfig, config.ColorSpace)
	}
	format, err := config.pixelFormat()
	if err != nil {
		return nil, err
	}

	d := &ST7735{
		io:         io,
		reset:      config.Reset,
		resetLevel: gpio.Level(config.ResetActiveHigh),
		xGap:       config.XGap,
		yGap:       config.YGap,
		format:     format,
		colorSpace: config.ColorSpace,
		sleep:      time.Sleep,
	}

	if d.reset != nil {
		if err = d.reset.Out(!d.resetLevel); err != nil {
			return nil, fmt.Errorf("%w: reset pin %s: %w", ErrHardwareInit, d.reset, err)
		}
	} else if debug {
		log.Println("st7735: no reset pin, using software reset")
	}

	if debug {
		log.Printf("st7735: new panel %s", d)
	}
	return d, nil
}

func (d *ST7735) String() string {
	size := d.Size()
	return fmt.Sprintf("ST7735 %dx%d %s %s", size.X, size.Y, d.format, d.colorSpace)
}

// PixelFormat is the encoding DrawBitmap expects.
func (d *ST7735) PixelFormat() PixelFormat {
	return d.format
}

// ColorSpace is the configured color order.
func (d *ST7735) ColorSpace() ColorSpace {
	return d.colorSpace
}

// Orientation is the last requested mirror and swap state.
func (d *ST7735) Orientation() Orientation {
	return Orientation{
		MirrorX: d.mirrorX,
		MirrorY: d.mirrorY,
		SwapXY:  d.swapXY,
	}
}

// Size is the native panel size, with the axes swapped if SwapXY is active.
func (d *ST7735) Size() image.Point {
	if d.swapXY {
		return image.Pt(st7735Height, st7735Width)
	}
	return image.Pt(st7735Width, st7735Height)
}

// Close releases the reset pin.
func (d *ST7735) Close() error {
	if d.reset == nil {
		return nil
	}
	pin := d.reset
	d.reset = nil
	if err := pin.Halt(); err != nil {
		return fmt.Errorf("st7735: release reset pin %s: %w", pin, err)
	}
	return nil
}

// Reset pulses the reset pin, or sends a software reset if there is none.
func (d *ST7735) Reset() error {
	if d.reset == nil {
		return d.run(st7735Command{st7735SWRESET, nil, st7735ResetRecovery})
	}

	if err := d.reset.Out(d.resetLevel); err != nil {
		return fmt.Errorf("%w: reset pin %s: %w", ErrHardwareInit, d.reset, err)
	}
	d.sleep(st7735ResetPulse)
	if err := d.reset.Out(!d.resetLevel); err != nil {
		return fmt.Errorf("%w: reset pin %s: %w", ErrHardwareInit, d.reset, err)
	}
	d.sleep(st7735ResetPulse)
	return nil
}

// Init sends the initialization sequence.
//
// If a command fails the controller is left in an undefined state; Reset and
// Init again.
func (d *ST7735) Init() error {
	return d.run(d.initSequence()...)
}

func (d *ST7735) initSequence() []st7735Command {
	return []st7735Command{
		{st7735SWRESET, nil, st7735InitReset},
		{st7735SLPOUT, nil, st7735SleepOutDelay},
		{st7735FRMCTR1, []byte{0x01, 0x2C, 0x2D}, 0},                   // Frame rate: normal mode
		{st7735FRMCTR2, []byte{0x01, 0x2C, 0x2D}, 0},                   // Frame rate: idle mode
		{st7735FRMCTR3, []byte{0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D}, 0}, // Frame rate: partial mode (dot, line inversion)
		{st7735INVCTR, []byte{0x07}, 0},                                // No inversion
		{st7735PWCTR1, []byte{0xA2, 0x02, 0x84}, 0},                    // -4.6V, auto mode
		{st7735PWCTR2, []byte{0xC5}, 0},                                // VGH25 2.4C, VGSEL -10, VGH 3*AVDD
		{st7735PWCTR3, []byte{0x0A, 0x00}, 0},                          // Opamp current small, boost frequency
		{st7735PWCTR4, []byte{0x8A, 0x2A}, 0},                          // BCLK/2, opamp current small & medium low
		{st7735PWCTR5, []byte{0x8A, 0xEE}, 0},
		{st7735VMCTR1, []byte{0x0E}, 0},
		{st7735INVOFF, nil, 0},
		{st7735MADCTL, []byte{d.madctl()}, 0},
		{st7735COLMOD, []byte{d.colorMode()}, 0},
		{st7735CASET, addressRange(d.xGap, st7735Width-1+d.xGap), 0},
		{st7735RASET, addressRange(d.yGap, st7735Height-1+d.yGap), 0},
		{st7735GMCTRP1, []byte{0x02, 0x1C, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2D, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10}, 0},
		{st7735GMCTRN1, []byte{0x03, 0x1D, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10}, 0},
		{st7735NORON, nil, st7735NormalOnDelay},
		{st7735DISPON, nil, st7735DisplayOnDelay},
	}
}

// DrawBitmap writes data to the half-open region (x0,y0)-(x1,y1).
//
// The data must be encoded in the panel's pixel format; it is sent as-is.
func (d *ST7735) DrawBitmap(x0, y0, x1, y1 int, data []byte) error {
	if x0 < 0 || y0 < 0 || x0 >= x1 || y0 >= y1 {
		return fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrInvalidRegion, x0, y0, x1, y1)
	}
	if size := (x1 - x0) * (y1 - y0) * d.format.BytesPerPixel(); len(data) != size {
		return fmt.Errorf("%w: got %d bytes of %s data, need %d", ErrInvalidRegion, len(data), d.format, size)
	}

	x0 += d.xGap
	x1 += d.xGap
	y0 += d.yGap
	y1 += d.yGap
	if x0 < 0 || y0 < 0 || x1 > 0x10000 || y1 > 0x10000 {
		return fmt.Errorf("%w: address (%d,%d)-(%d,%d) out of range", ErrInvalidRegion, x0, y0, x1, y1)
	}

	if debug {
		log.Printf("st7735: window (%d,%d)-(%d,%d), %d bytes", x0, y0, x1-1, y1-1, len(data))
	}
	if err := d.run(
		st7735Command{st7735CASET, addressRange(x0, x1-1), 0}, // Column address
		st7735Command{st7735RASET, addressRange(y0, y1-1), 0}, // Row address
	); err != nil {
		return err
	}
	if err := d.io.WritePixels(st7735RAMWR, data); err != nil {
		return fmt.Errorf("%w: memory write: %w", ErrTransport, err)
	}
	return nil
}

// SetOrientation sets the mirror and swap flags; flags not requested are cleared.
func (d *ST7735) SetOrientation(mirrorX, mirrorY, swapXY bool) error {
	d.mirrorX = mirrorX
	d.mirrorY = mirrorY
	d.swapXY = swapXY
	return d.sendOrientation()
}

// Mirror sets the X and Y mirroring, keeping the axes swap.
func (d *ST7735) Mirror(mirrorX, mirrorY bool) error {
	d.mirrorX = mirrorX
	d.mirrorY = mirrorY
	return d.sendOrientation()
}

// SwapXY sets the axes swap, keeping the mirroring.
func (d *ST7735) SwapXY(swap bool) error {
	d.swapXY = swap
	return d.sendOrientation()
}

// SetGap sets the offsets used by the next DrawBitmap or Init.
func (d *ST7735) SetGap(x, y int) error {
	d.xGap = x
	d.yGap = y
	return nil
}

// DisplayOff switches the display off, or on if off is false.
func (d *ST7735) DisplayOff(off bool) error {
	var command = byte(st7735DISPON)
	if off {
		command = byte(st7735DISPOFF)
	}
	return d.command(command)
}

// InvertColor toggles the display inversion.
func (d *ST7735) InvertColor(invert bool) error {
	var command = byte(st7735INVOFF)
	if invert {
		command = byte(st7735INVON)
	}
	return d.command(command)
}

func (d *ST7735) sendOrientation() error {
	madctl := d.madctl()
	if debug {
		log.Printf("st7735: madctl %s -> %#02x", d.Orientation(), madctl)
	}
	return d.command(st7735MADCTL, madctl)
}

// madctl is the full MADCTL register value for the current state.
func (d *ST7735) madctl() byte {
	var madctl byte
	if d.colorSpace == BGR {
		madctl |= st7735RGBOrder
	}
	if d.mirrorX {
		madctl |= st7735ColumnAddressOrder
	}
	if d.mirrorY {
		madctl |= st7735PageAddressOrder
	}
	if d.swapXY {
		madctl |= st7735PageColumnOrder
	}
	return madctl
}

func (d *ST7735) colorMode() byte {
	if d.format == RGB666 {
		return st7735ColorMode18
	}
	return st7735ColorMode16
}

func (d *ST7735) command(cmd byte, params ...byte) error {
	if err := d.io.Command(cmd, params...); err != nil {
		return fmt.Errorf("%w: command 0x%02X: %w", ErrTransport, cmd, err)
	}
	return nil
}

func (d *ST7735) run(commands ...st7735Command) error {
	for _, c := range commands {
		if err := d.command(c.cmd, c.params...); err != nil {
			return err
		}
		if c.delay > 0 {
			d.sleep(c.delay)
		}
	}
	return nil
}

// addressRange encodes a CASET/RASET start and end address.
func addressRange(start, end int) []byte {
	return []byte{byte(start >> 8), byte(start), byte(end >> 8), byte(end)}
}
