package panel

// IO is the command/data bus a panel is connected to.
//
// The conn package provides SPI and I²C implementations.
type IO interface {
	// Command sends a command byte with optional parameters.
	Command(cmd byte, params ...byte) error

	// WritePixels sends a command byte followed by a bulk pixel transfer.
	WritePixels(cmd byte, data []byte) error
}
