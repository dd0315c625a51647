// Package conn implements the command/data buses LCD panel controllers are
// connected to.
package conn

import (
	"errors"
	"fmt"
	"log"
	"os"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

var debug bool

func init() {
	debug = os.Getenv("PANEL_DEBUG") != ""
}

// Errors
var (
	ErrDCPin = errors.New("conn: data/command (DC) GPIO pin is invalid")
	ErrSpeed = errors.New("conn: invalid SPI speed")
)

// MaxSPIFrequency is the highest bus speed accepted by OpenSPI.
const MaxSPIFrequency = 80 * physic.MegaHertz

// SPIConfig describes the SPI bus configuration.
type SPIConfig struct {
	// Frequency of the bus clock.
	Frequency physic.Frequency

	// Mode is the SPI mode (clock polarity and phase).
	Mode spi.Mode

	// DataLow drives DC low for data and high for commands.
	DataLow bool

	// BatchSize is the largest single transfer, it is lowered to what the
	// port supports.
	BatchSize int

	// DC is the data/command pin.
	DC gpio.PinOut

	// CS is an optional chip select pin driven by software.
	CS gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Frequency: 15 * physic.MegaHertz,
	Mode:      spi.Mode0,
	BatchSize: 4096,
}

// SPI is a 4-wire SPI bus, with the data/command selection on a GPIO pin.
type SPI struct {
	c         spi.Conn
	dc        gpio.PinOut
	dcLevel   gpio.Level
	dcValid   bool
	cs        gpio.PinOut
	dataLow   bool
	batchSize int
}

// OpenSPI connects to the SPI port.
func OpenSPI(p spi.Port, config *SPIConfig) (*SPI, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	if config.DC == nil || config.DC == gpio.INVALID {
		return nil, ErrDCPin
	}
	if config.Frequency == 0 {
		config.Frequency = DefaultSPIConfig.Frequency
	}
	if config.Frequency < 0 || config.Frequency > MaxSPIFrequency {
		return nil, fmt.Errorf("%w: %s, maximum is %s", ErrSpeed, config.Frequency, MaxSPIFrequency)
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSPIConfig.BatchSize
	}

	c, err := p.Connect(config.Frequency, config.Mode, 8)
	if err != nil {
		return nil, fmt.Errorf("conn: connect to %s: %w", p, err)
	}

	batchSize := config.BatchSize
	if l, ok := c.(conn.Limits); ok {
		if size := l.MaxTxSize(); size > 0 && size < batchSize {
			batchSize = size
		}
	}

	s := &SPI{
		c:         c,
		dc:        config.DC,
		cs:        config.CS,
		dataLow:   config.DataLow,
		batchSize: batchSize,
	}
	if err = s.updateCS(gpio.High); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *SPI) String() string {
	return fmt.Sprintf("SPI bus %s", c.c)
}

// Command sends a command byte with optional parameters.
func (c *SPI) Command(cmd byte, params ...byte) error {
	return c.send(cmd, params)
}

// WritePixels sends a command byte followed by the pixel data.
func (c *SPI) WritePixels(cmd byte, data []byte) error {
	return c.send(cmd, data)
}

func (c *SPI) send(cmd byte, data []byte) (err error) {
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	defer func() {
		if csErr := c.updateCS(gpio.High); err == nil {
			err = csErr
		}
	}()

	if err = c.updateDC(gpio.Level(c.dataLow)); err != nil {
		return
	}
	if err = c.c.Tx([]byte{cmd}, nil); err != nil {
		return
	}
	if len(data) == 0 {
		return
	}
	if err = c.updateDC(gpio.Level(!c.dataLow)); err != nil {
		return
	}
	return c.writeChunked(data)
}

func (c *SPI) updateDC(level gpio.Level) error {
	if c.dcValid && c.dcLevel == level {
		return nil
	}
	if err := c.dc.Out(level); err != nil {
		return err
	}
	c.dcLevel = level
	c.dcValid = true
	return nil
}

func (c *SPI) updateCS(level gpio.Level) error {
	if c.cs == nil {
		return nil
	}
	return c.cs.Out(level)
}

func (c *SPI) writeChunked(data []byte) error {
	if len(data) <= c.batchSize {
		return c.c.Tx(data, nil)
	}

	if debug {
		log.Printf("conn: write %d bytes of data in %d chunks", len(data), (len(data)+c.batchSize-1)/c.batchSize)
	}
	for len(data) > 0 {
		n := min(len(data), c.batchSize)
		if err := c.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
