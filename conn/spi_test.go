package conn

import (
	"bytes"
	"errors"
	"testing"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

type testTx struct {
	dc   gpio.Level
	cs   gpio.Level
	data []byte
}

// testSPI is a spi.Port and spi.Conn recording every write with the DC and
// CS levels at the time of the write.
type testSPI struct {
	dc        *gpiotest.Pin
	cs        *gpiotest.Pin
	maxTxSize int
	err       error

	freq physic.Frequency
	mode spi.Mode
	bits int
	txs  []testTx
}

func (s *testSPI) String() string { return "testSPI" }

func (s *testSPI) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	s.freq, s.mode, s.bits = f, mode, bits
	if s.maxTxSize > 0 {
		return &testLimitedSPI{s}, nil
	}
	return s, nil
}

func (s *testSPI) Tx(w, r []byte) error {
	if s.err != nil {
		return s.err
	}
	tx := testTx{dc: s.dc.Read(), data: append([]byte(nil), w...)}
	if s.cs != nil {
		tx.cs = s.cs.Read()
	}
	s.txs = append(s.txs, tx)
	return nil
}

func (s *testSPI) Duplex() conn.Duplex { return conn.Half }

func (s *testSPI) TxPackets(p []spi.Packet) error {
	for _, packet := range p {
		if err := s.Tx(packet.W, packet.R); err != nil {
			return err
		}
	}
	return nil
}

type testLimitedSPI struct {
	*testSPI
}

func (s *testLimitedSPI) MaxTxSize() int { return s.maxTxSize }

func TestOpenSPI(t *testing.T) {
	t.Run("defaults", func(it *testing.T) {
		port := &testSPI{dc: &gpiotest.Pin{N: "DC"}}
		c, err := OpenSPI(port, &SPIConfig{DC: port.dc})
		if err != nil {
			it.Fatal(err)
		}
		if port.freq != DefaultSPIConfig.Frequency {
			it.Errorf("expected frequency %s, got %s", DefaultSPIConfig.Frequency, port.freq)
		}
		if port.bits != 8 {
			it.Errorf("expected 8 bits per word, got %d", port.bits)
		}
		if c.batchSize != DefaultSPIConfig.BatchSize {
			it.Errorf("expected batch size %d, got %d", DefaultSPIConfig.BatchSize, c.batchSize)
		}
	})

	t.Run("port limit", func(it *testing.T) {
		port := &testSPI{dc: &gpiotest.Pin{N: "DC"}, maxTxSize: 64}
		c, err := OpenSPI(port, &SPIConfig{DC: port.dc, Mode: spi.Mode3, Frequency: 32 * physic.MegaHertz})
		if err != nil {
			it.Fatal(err)
		}
		if c.batchSize != 64 {
			it.Errorf("expected batch size 64, got %d", c.batchSize)
		}
		if port.mode != spi.Mode3 {
			it.Errorf("expected mode %v, got %v", spi.Mode3, port.mode)
		}
	})

	t.Run("no DC pin", func(it *testing.T) {
		if _, err := OpenSPI(&testSPI{}, nil); !errors.Is(err, ErrDCPin) {
			it.Errorf("expected %v, got %v", ErrDCPin, err)
		}
		if _, err := OpenSPI(&testSPI{}, &SPIConfig{DC: gpio.INVALID}); !errors.Is(err, ErrDCPin) {
			it.Errorf("expected %v, got %v", ErrDCPin, err)
		}
	})

	t.Run("too fast", func(it *testing.T) {
		port := &testSPI{dc: &gpiotest.Pin{N: "DC"}}
		if _, err := OpenSPI(port, &SPIConfig{DC: port.dc, Frequency: 100 * physic.MegaHertz}); !errors.Is(err, ErrSpeed) {
			it.Errorf("expected %v, got %v", ErrSpeed, err)
		}
	})
}

func TestSPICommand(t *testing.T) {
	port := &testSPI{
		dc: &gpiotest.Pin{N: "DC", L: gpio.High},
		cs: &gpiotest.Pin{N: "CS"},
	}
	c, err := OpenSPI(port, &SPIConfig{DC: port.dc, CS: port.cs})
	if err != nil {
		t.Fatal(err)
	}

	if err = c.Command(0x36, 0x08); err != nil {
		t.Fatal(err)
	}
	if err = c.Command(0x29); err != nil {
		t.Fatal(err)
	}

	want := []testTx{
		{dc: gpio.Low, cs: gpio.Low, data: []byte{0x36}},
		{dc: gpio.High, cs: gpio.Low, data: []byte{0x08}},
		{dc: gpio.Low, cs: gpio.Low, data: []byte{0x29}},
	}
	if len(port.txs) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(port.txs))
	}
	for i, tx := range port.txs {
		if tx.dc != want[i].dc || tx.cs != want[i].cs || !bytes.Equal(tx.data, want[i].data) {
			t.Errorf("write %d: expected %+v, got %+v", i, want[i], tx)
		}
	}
	if port.cs.Read() != gpio.High {
		t.Error("expected CS released after the transfer")
	}
}

func TestSPIDataLow(t *testing.T) {
	port := &testSPI{dc: &gpiotest.Pin{N: "DC"}}
	c, err := OpenSPI(port, &SPIConfig{DC: port.dc, DataLow: true})
	if err != nil {
		t.Fatal(err)
	}
	if err = c.Command(0x3A, 0x55); err != nil {
		t.Fatal(err)
	}
	if port.txs[0].dc != gpio.High || port.txs[1].dc != gpio.Low {
		t.Errorf("expected inverted DC levels, got %+v", port.txs)
	}
}

func TestSPIWritePixelsChunked(t *testing.T) {
	port := &testSPI{dc: &gpiotest.Pin{N: "DC"}}
	c, err := OpenSPI(port, &SPIConfig{DC: port.dc, BatchSize: 100})
	if err != nil {
		t.Fatal(err)
	}

	data := make([]byte, 250)
	for i := range data {
		data[i] = byte(i)
	}
	if err = c.WritePixels(0x2C, data); err != nil {
		t.Fatal(err)
	}

	sizes := []int{1, 100, 100, 50}
	if len(port.txs) != len(sizes) {
		t.Fatalf("expected %d writes, got %d", len(sizes), len(port.txs))
	}
	var got []byte
	for i, tx := range port.txs {
		if len(tx.data) != sizes[i] {
			t.Errorf("write %d: expected %d bytes, got %d", i, sizes[i], len(tx.data))
		}
		if i > 0 {
			got = append(got, tx.data...)
		}
	}
	if !bytes.Equal(got, data) {
		t.Error("pixel data was not sent verbatim")
	}
}

func TestSPIError(t *testing.T) {
	failure := errors.New("spi: transfer failed")
	port := &testSPI{
		dc:  &gpiotest.Pin{N: "DC"},
		cs:  &gpiotest.Pin{N: "CS"},
		err: failure,
	}
	c, err := OpenSPI(port, &SPIConfig{DC: port.dc, CS: port.cs})
	if err != nil {
		t.Fatal(err)
	}
	if err = c.Command(0x01); !errors.Is(err, failure) {
		t.Errorf("expected %v, got %v", failure, err)
	}
	if port.cs.Read() != gpio.High {
		t.Error("expected CS released after a failed transfer")
	}
}
