package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/conn"
	"github.com/BeatGlow/panel/pixel"
)

func main() {
	cfg := defaultConfig()
	configFlag := flag.String("config", "", "YAML configuration file")
	flag.StringVar(&cfg.Bus, "bus", cfg.Bus, "Bus type (spi or i2c)")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "SPI port or I²C bus name (default: first available)")
	flag.UintVar(&cfg.Address, "i2c-addr", cfg.Address, "I²C device address")
	flag.StringVar(&cfg.Frequency, "freq", cfg.Frequency, "SPI clock frequency")
	flag.IntVar(&cfg.Mode, "mode", cfg.Mode, "SPI mode")
	flag.StringVar(&cfg.DC, "dc", cfg.DC, "Data/Command GPIO pin (DC)")
	flag.StringVar(&cfg.CS, "cs", cfg.CS, "Chip select GPIO pin, empty if driven by the SPI port")
	flag.StringVar(&cfg.Reset, "reset", cfg.Reset, "Reset GPIO pin, empty for software reset")
	flag.BoolVar(&cfg.ResetActiveHigh, "reset-high", cfg.ResetActiveHigh, "Reset pin is active high")
	flag.StringVar(&cfg.ColorSpace, "color", cfg.ColorSpace, "Panel color order (rgb or bgr)")
	flag.IntVar(&cfg.BitsPerPixel, "bpp", cfg.BitsPerPixel, "Bits per pixel (16 or 18)")
	flag.IntVar(&cfg.XGap, "x-gap", cfg.XGap, "Column offset")
	flag.IntVar(&cfg.YGap, "y-gap", cfg.YGap, "Row offset")
	flag.BoolVar(&cfg.MirrorX, "mirror-x", cfg.MirrorX, "Mirror the X axis")
	flag.BoolVar(&cfg.MirrorY, "mirror-y", cfg.MirrorY, "Mirror the Y axis")
	flag.BoolVar(&cfg.SwapXY, "swap", cfg.SwapXY, "Swap the X and Y axes")
	flag.BoolVar(&cfg.Invert, "invert", cfg.Invert, "Invert colors")
	flag.StringVar(&cfg.Text, "text", cfg.Text, "Text on the test card")
	flag.Parse()

	if *configFlag != "" {
		if err := loadConfig(*configFlag, cfg); err != nil {
			fatal(err)
		}
		// Flags given on the command line win over the file.
		flag.Parse()
	}

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	var (
		io  panel.IO
		err error
	)
	switch bus := strings.ToLower(cfg.Bus); bus {
	case "spi":
		frequency, err := cfg.frequency()
		if err != nil {
			fatal(err)
		}
		port, err := spireg.Open(cfg.Port)
		if err != nil {
			fatal(err)
		}
		defer port.Close()
		io, err = conn.OpenSPI(port, &conn.SPIConfig{
			Frequency: frequency,
			Mode:      spi.Mode(cfg.Mode),
			DC:        pinByName(cfg.DC),
			CS:        pinByName(cfg.CS),
		})
		if err != nil {
			fatal(err)
		}
	case "i2c":
		i2cBus, err := i2creg.Open(cfg.Port)
		if err != nil {
			fatal(err)
		}
		defer i2cBus.Close()
		if io, err = conn.OpenI2C(i2cBus, uint16(cfg.Address)); err != nil {
			fatal(err)
		}
	default:
		fatal(fmt.Errorf("unsupported bus type %q", bus))
	}
	fmt.Printf("using connection: %s\n", io)

	colorSpace, err := cfg.colorSpace()
	if err != nil {
		fatal(err)
	}
	d, err := panel.NewST7735(io, &panel.Config{
		Reset:           pinByName(cfg.Reset),
		ResetActiveHigh: cfg.ResetActiveHigh,
		ColorSpace:      colorSpace,
		BitsPerPixel:    cfg.BitsPerPixel,
		XGap:            cfg.XGap,
		YGap:            cfg.YGap,
	})
	if err != nil {
		fatal(err)
	}
	defer d.Close()

	if err = d.Reset(); err != nil {
		fatal(err)
	}
	if err = d.Init(); err != nil {
		fatal(err)
	}
	if err = d.SetOrientation(cfg.MirrorX, cfg.MirrorY, cfg.SwapXY); err != nil {
		fatal(err)
	}
	if err = d.InvertColor(cfg.Invert); err != nil {
		fatal(err)
	}
	fmt.Printf("using driver: %s (%s)\n", d, d.Orientation())

	size := d.Size()
	card := pixel.New(size.X, size.Y, d.PixelFormat().BytesPerPixel())
	if err = testCard(card, cfg.Text); err != nil {
		fatal(err)
	}
	if err = d.DrawBitmap(0, 0, size.X, size.Y, card.Bytes()); err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("hit control-c to stop...")
	if err = bounce(ctx, d, size); err != nil {
		fatal(err)
	}
	if err = d.DisplayOff(true); err != nil {
		fatal(err)
	}
}

// pinByName returns nil for an empty name, so the pin is optional.
func pinByName(name string) gpio.PinOut {
	if name == "" {
		return nil
	}
	if pin := gpioreg.ByName(name); pin != nil {
		return pin
	}
	fatal(fmt.Errorf("invalid GPIO pin %q", name))
	return nil
}

var testCardColors = []color.RGBA{
	{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	{R: 0xff, G: 0xff, A: 0xff},
	{G: 0xff, B: 0xff, A: 0xff},
	{G: 0xff, A: 0xff},
	{R: 0xff, B: 0xff, A: 0xff},
	{R: 0xff, A: 0xff},
	{B: 0xff, A: 0xff},
	{A: 0xff},
}

// testCard draws color bars, a gradient and a line of text.
func testCard(dst pixel.Image, text string) error {
	r := dst.Bounds()

	bars := image.NewRGBA(image.Rect(0, 0, len(testCardColors), 1))
	for x, c := range testCardColors {
		bars.SetRGBA(x, 0, c)
	}
	barsRect := image.Rect(0, 0, r.Dx(), r.Dy()/2)
	draw.NearestNeighbor.Scale(dst, barsRect, bars, bars.Bounds(), draw.Src, nil)

	for y := barsRect.Max.Y; y < r.Max.Y; y++ {
		for x := 0; x < r.Max.X; x++ {
			dst.Set(x, y, color.RGBA{
				R: uint8(x * 0xff / r.Dx()),
				G: uint8((y - barsRect.Max.Y) * 0xff / (r.Dy() - barsRect.Max.Y)),
				B: 0x80,
				A: 0xff,
			})
		}
	}

	if text == "" {
		return nil
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    float64(r.Dy()) / 10,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
	}
	var (
		baseline = r.Dy() * 3 / 4
		metrics  = face.Metrics()
		width    = drawer.MeasureString(text).Ceil()
		label    = image.Rect(0, baseline-metrics.Ascent.Ceil(), r.Dx(), baseline+metrics.Descent.Ceil())
	)
	draw.Draw(dst, label, image.Black, image.Point{}, draw.Src)
	drawer.Dot = fixed.P((r.Dx()-width)/2, baseline)
	drawer.DrawString(text)
	return nil
}

// bounce moves a small square around the panel, drawing only that region.
func bounce(ctx context.Context, d *panel.ST7735, size image.Point) error {
	const side = 16
	var (
		ticker = time.NewTicker(50 * time.Millisecond)
		box    = pixel.New(side, side, d.PixelFormat().BytesPerPixel())
		pos    = image.Pt(0, 0)
		dir    = image.Pt(2, 3)
		frame  int
	)
	defer ticker.Stop()

	for {
		box.Fill(testCardColors[frame%len(testCardColors)])
		if err := d.DrawBitmap(pos.X, pos.Y, pos.X+side, pos.Y+side, box.Bytes()); err != nil {
			return err
		}

		next := pos.Add(dir)
		if next.X < 0 || next.X+side > size.X {
			dir.X = -dir.X
		}
		if next.Y < 0 || next.Y+side > size.Y {
			dir.Y = -dir.Y
		}
		pos = pos.Add(dir)
		frame++

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
