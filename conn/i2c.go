package conn

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// I²C control bytes.
const (
	i2cCommand = 0x00
	i2cData    = 0x40
)

// DefaultI2CBatchSize is the largest pixel data transfer sent in one
// transaction.
const DefaultI2CBatchSize = 1024

// I2C is an I²C bus, with the data/command selection in a control byte.
type I2C struct {
	dev       *i2c.Dev
	batchSize int
}

// OpenI2C returns the device at the 7-bit address addr.
func OpenI2C(bus i2c.Bus, addr uint16) (*I2C, error) {
	if addr == 0 || addr > 0x7f {
		return nil, fmt.Errorf("conn: invalid I²C address %#02x", addr)
	}
	return &I2C{
		dev:       &i2c.Dev{Bus: bus, Addr: addr},
		batchSize: DefaultI2CBatchSize,
	}, nil
}

func (c *I2C) String() string {
	return fmt.Sprintf("I²C bus %s", c.dev)
}

// Command sends a command byte with optional parameters.
func (c *I2C) Command(cmd byte, params ...byte) error {
	return c.dev.Tx(append([]byte{i2cCommand, cmd}, params...), nil)
}

// WritePixels sends a command byte followed by the pixel data, split in
// transactions of at most DefaultI2CBatchSize bytes.
func (c *I2C) WritePixels(cmd byte, data []byte) error {
	if err := c.dev.Tx([]byte{i2cCommand, cmd}, nil); err != nil {
		return err
	}
	buf := make([]byte, 0, 1+min(len(data), c.batchSize))
	for len(data) > 0 {
		n := min(len(data), c.batchSize)
		buf = append(append(buf[:0], i2cData), data[:n]...)
		if err := c.dev.Tx(buf, nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
