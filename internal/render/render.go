package render

import (
	"errors"
	"image"
	"sync"
)

// Sink moves a finished frame to the physical display.
//
// pix holds rect.Dx()*rect.Dy() RGB565 pixels, row-major. The sink must not
// keep pix after Transmit returns.
type Sink interface {
	Transmit(pix []uint16, rect image.Rectangle) error
}

type NoopSink struct{}

func (NoopSink) Transmit(pix []uint16, rect image.Rectangle) error { return nil }

// MemorySink keeps a copy of the last frame it was handed.
type MemorySink struct {
	mu    sync.Mutex
	last  []uint16
	rect  image.Rectangle
	count int
	fail  error
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Transmit(pix []uint16, rect image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	if len(pix) < rect.Dx()*rect.Dy() {
		return errors.New("short frame")
	}
	s.last = append(s.last[:0], pix...)
	s.rect = rect
	s.count++
	return nil
}

// FailWith makes every following Transmit return err. Pass nil to recover.
func (s *MemorySink) FailWith(err error) {
	s.mu.Lock()
	s.fail = err
	s.mu.Unlock()
}

func (s *MemorySink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Last returns a copy of the last transmitted frame and its rectangle.
func (s *MemorySink) Last() ([]uint16, image.Rectangle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint16, len(s.last))
	copy(out, s.last)
	return out, s.rect
}
