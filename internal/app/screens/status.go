package screens

import (
	"fmt"
	"sync"

	"github.com/rook-computer/statuslcd/internal/render"
)

// Text origin of the three status lines.
const (
	lineX  = 2
	line1Y = 2
	line2Y = 14
	line3Y = 26
)

// Message is the three lines shown on the status screen. Empty lines are skipped.
type Message struct {
	Line1 string
	Line2 string
	Line3 string
}

func (m Message) Lines() []string { return []string{m.Line1, m.Line2, m.Line3} }

// BootMessage is shown once the panel is up, before the network starts.
func BootMessage() Message {
	return Message{Line1: "booting...", Line2: "display ok", Line3: "network init..."}
}

// StatusScreen redraws the whole framebuffer for each message and pushes it to
// the sink. Only one Show runs at a time; a second caller blocks until the
// first transmit has returned.
type StatusScreen struct {
	Foreground render.Color
	Background render.Color
	Logger     interface {
		Infof(string, string, ...interface{})
		Errorf(string, string, ...interface{})
	}

	mu   sync.Mutex
	fb   *render.Framebuffer
	sink render.Sink
	last Message
}

func NewStatusScreen(fb *render.Framebuffer, sink render.Sink) *StatusScreen {
	return &StatusScreen{Foreground: render.White, Background: render.Black, fb: fb, sink: sink}
}

func (s *StatusScreen) Show(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fb.Clear(s.Background)
	for i, line := range msg.Lines() {
		if line == "" {
			continue
		}
		render.DrawText(s.fb, lineX, lineY(i), line, s.Foreground, s.Background)
	}
	s.last = msg
	if err := s.sink.Transmit(s.fb.Pix(), s.fb.Bounds()); err != nil {
		if s.Logger != nil {
			s.Logger.Errorf("screen", "transmit failed: %v", err)
		}
		return fmt.Errorf("transmit status screen: %w", err)
	}
	return nil
}

// Flush clears the panel to c and transmits it.
func (s *StatusScreen) Flush(c render.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fb.Clear(c)
	s.last = Message{}
	if err := s.sink.Transmit(s.fb.Pix(), s.fb.Bounds()); err != nil {
		return fmt.Errorf("transmit flush: %w", err)
	}
	return nil
}

// Snapshot copies the framebuffer as of the last completed draw.
func (s *StatusScreen) Snapshot() *render.Framebuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fb.Clone()
}

func (s *StatusScreen) Last() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func lineY(i int) int {
	switch i {
	case 0:
		return line1Y
	case 1:
		return line2Y
	default:
		return line3Y
	}
}
