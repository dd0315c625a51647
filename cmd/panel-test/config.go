package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/panel"
)

// config is the panel-test configuration, read from YAML and overridden by
// flags.
type config struct {
	// Bus is "spi" or "i2c".
	Bus string `yaml:"bus"`

	// Port is the SPI port or I²C bus name, empty for the first available.
	Port string `yaml:"port"`

	// Address is the I²C device address.
	Address uint `yaml:"address"`

	// Frequency is the SPI clock, such as "15MHz".
	Frequency string `yaml:"frequency"`

	// Mode is the SPI mode (0-3).
	Mode int `yaml:"mode"`

	// GPIO pin names.
	DC    string `yaml:"dc"`
	CS    string `yaml:"cs"`
	Reset string `yaml:"reset"`

	ResetActiveHigh bool `yaml:"reset_active_high"`

	// ColorSpace is "rgb" or "bgr".
	ColorSpace   string `yaml:"color_space"`
	BitsPerPixel int    `yaml:"bits_per_pixel"`
	XGap         int    `yaml:"x_gap"`
	YGap         int    `yaml:"y_gap"`

	MirrorX bool `yaml:"mirror_x"`
	MirrorY bool `yaml:"mirror_y"`
	SwapXY  bool `yaml:"swap_xy"`
	Invert  bool `yaml:"invert"`

	// Text is printed on the test card.
	Text string `yaml:"text"`
}

func defaultConfig() *config {
	return &config{
		Bus:          "spi",
		Address:      0x3c,
		Frequency:    "15MHz",
		DC:           "GPIO24",
		Reset:        "GPIO25",
		ColorSpace:   "rgb",
		BitsPerPixel: 16,
		Text:         "ST7735",
	}
}

func loadConfig(name string, cfg *config) error {
	b, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("config %s: %w", name, err)
	}
	return nil
}

func (cfg *config) frequency() (physic.Frequency, error) {
	var f physic.Frequency
	if cfg.Frequency == "" {
		return 0, nil
	}
	if err := f.Set(cfg.Frequency); err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", cfg.Frequency, err)
	}
	return f, nil
}

func (cfg *config) colorSpace() (panel.ColorSpace, error) {
	switch cfg.ColorSpace {
	case "", "rgb", "RGB":
		return panel.RGB, nil
	case "bgr", "BGR":
		return panel.BGR, nil
	default:
		return 0, fmt.Errorf("invalid color space %q", cfg.ColorSpace)
	}
}
