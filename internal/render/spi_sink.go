package render

import (
	"errors"
	"fmt"
	"image"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// ST7735-family memory commands. The panel itself must already be initialized.
const (
	cmdColumnAddress = 0x2A
	cmdRowAddress    = 0x2B
	cmdMemoryWrite   = 0x2C

	defaultSPIChunk = 4096
)

// SPISink writes frames into the RAM of an SPI panel controller: set the
// column/row window, then stream big-endian RGB565 pixels.
type SPISink struct {
	Conn spi.Conn
	DC   gpio.PinOut
	// Offsets of the visible area inside controller RAM; some 128x128 modules
	// are mounted a few pixels in.
	XOffset int
	YOffset int
	Logger  interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}

	buf []byte
}

func NewSPISink(c spi.Conn, dc gpio.PinOut) *SPISink {
	return &SPISink{Conn: c, DC: dc}
}

func (s *SPISink) Transmit(pix []uint16, rect image.Rectangle) error {
	if s.Conn == nil || s.DC == nil {
		return errors.New("spi sink not configured")
	}
	n := rect.Dx() * rect.Dy()
	if n <= 0 {
		return nil
	}
	if len(pix) < n {
		return fmt.Errorf("short frame: %d pixels for %dx%d", len(pix), rect.Dx(), rect.Dy())
	}

	x0, x1 := rect.Min.X+s.XOffset, rect.Max.X-1+s.XOffset
	y0, y1 := rect.Min.Y+s.YOffset, rect.Max.Y-1+s.YOffset
	if err := s.command(cmdColumnAddress, window(x0, x1)...); err != nil {
		return err
	}
	if err := s.command(cmdRowAddress, window(y0, y1)...); err != nil {
		return err
	}
	if err := s.command(cmdMemoryWrite); err != nil {
		return err
	}

	if cap(s.buf) < 2*n {
		s.buf = make([]byte, 2*n)
	}
	buf := s.buf[:2*n]
	for i, p := range pix[:n] {
		buf[2*i] = byte(p >> 8)
		buf[2*i+1] = byte(p)
	}
	if err := s.data(buf); err != nil {
		return fmt.Errorf("pixel write: %w", err)
	}
	return nil
}

func (s *SPISink) command(cmd byte, args ...byte) error {
	if err := s.DC.Out(gpio.Low); err != nil {
		return fmt.Errorf("dc low: %w", err)
	}
	if err := s.Conn.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("command 0x%02X: %w", cmd, err)
	}
	if len(args) == 0 {
		return nil
	}
	return s.data(args)
}

func (s *SPISink) data(b []byte) error {
	if err := s.DC.Out(gpio.High); err != nil {
		return fmt.Errorf("dc high: %w", err)
	}
	chunk := defaultSPIChunk
	if l, ok := s.Conn.(conn.Limits); ok && l.MaxTxSize() > 0 {
		chunk = l.MaxTxSize()
	}
	for len(b) > 0 {
		end := chunk
		if end > len(b) {
			end = len(b)
		}
		if err := s.Conn.Tx(b[:end], nil); err != nil {
			return err
		}
		b = b[end:]
	}
	return nil
}

func window(start, end int) []byte {
	return []byte{byte(start >> 8), byte(start), byte(end >> 8), byte(end)}
}
