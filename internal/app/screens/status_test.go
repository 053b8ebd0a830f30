package screens

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rook-computer/statuslcd/internal/render"
)

func newScreen(t *testing.T, sink render.Sink) *StatusScreen {
	t.Helper()
	fb, err := render.NewFramebuffer(128, 128)
	if err != nil {
		t.Fatalf("NewFramebuffer err=%v", err)
	}
	return NewStatusScreen(fb, sink)
}

func expectedFrame(t *testing.T, msg Message) []uint16 {
	t.Helper()
	fb, err := render.NewFramebuffer(128, 128)
	if err != nil {
		t.Fatalf("NewFramebuffer err=%v", err)
	}
	fb.Clear(render.Black)
	render.DrawText(fb, 2, 2, msg.Line1, render.White, render.Black)
	render.DrawText(fb, 2, 14, msg.Line2, render.White, render.Black)
	render.DrawText(fb, 2, 26, msg.Line3, render.White, render.Black)
	return fb.Pix()
}

func TestShowDrawsThreeLines(t *testing.T) {
	sink := render.NewMemorySink()
	screen := newScreen(t, sink)

	msg := Message{Line1: "network:", Line2: "starting...", Line3: "wifinet"}
	if err := screen.Show(msg); err != nil {
		t.Fatalf("Show err=%v", err)
	}

	got, rect := sink.Last()
	if rect != image.Rect(0, 0, 128, 128) {
		t.Fatalf("expected full-extent transmit, got %v", rect)
	}
	want := expectedFrame(t, msg)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pixel %d = %#04x, want %#04x", i, got[i], want[i])
		}
	}
	if screen.Last() != msg {
		t.Fatalf("Last()=%+v, want %+v", screen.Last(), msg)
	}
}

func TestShowReplacesPreviousContent(t *testing.T) {
	sink := render.NewMemorySink()
	screen := newScreen(t, sink)
	_ = screen.Show(Message{Line1: "WWWWWWWWWWWWWWWWWWWW", Line2: "WWWW", Line3: "WWWW"})
	if err := screen.Show(Message{Line2: "x"}); err != nil {
		t.Fatalf("Show err=%v", err)
	}
	got, _ := sink.Last()
	want := expectedFrame(t, Message{Line2: "x"})
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stale pixel %d after redraw", i)
		}
	}
	if sink.Count() != 2 {
		t.Fatalf("expected 2 transmits, got %d", sink.Count())
	}
}

func TestShowColors(t *testing.T) {
	sink := render.NewMemorySink()
	screen := newScreen(t, sink)
	screen.Foreground = render.RGB(255, 0, 0)
	screen.Background = render.RGB(0, 0, 255)
	if err := screen.Show(Message{}); err != nil {
		t.Fatalf("Show err=%v", err)
	}
	got, _ := sink.Last()
	for i, p := range got {
		if render.Color(p) != screen.Background {
			t.Fatalf("pixel %d = %#04x, want background", i, p)
		}
	}
}

func TestShowReturnsSinkError(t *testing.T) {
	sink := render.NewMemorySink()
	boom := errors.New("spi timeout")
	sink.FailWith(boom)
	screen := newScreen(t, sink)
	if err := screen.Show(BootMessage()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped sink error, got %v", err)
	}
}

func TestFlush(t *testing.T) {
	sink := render.NewMemorySink()
	screen := newScreen(t, sink)
	_ = screen.Show(BootMessage())
	if err := screen.Flush(render.Black); err != nil {
		t.Fatalf("Flush err=%v", err)
	}
	got, _ := sink.Last()
	for i, p := range got {
		if p != 0 {
			t.Fatalf("pixel %d not black after flush", i)
		}
	}
	if screen.Last() != (Message{}) {
		t.Fatalf("flush should reset last message")
	}
}

// blockingSink holds each Transmit until released and tracks overlap.
type blockingSink struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	entered  chan struct{}
	release  chan struct{}
}

func (s *blockingSink) Transmit(pix []uint16, rect image.Rectangle) error {
	n := s.inFlight.Add(1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	s.entered <- struct{}{}
	<-s.release
	s.inFlight.Add(-1)
	return nil
}

func TestShowAtMostOneInFlight(t *testing.T) {
	sink := &blockingSink{entered: make(chan struct{}, 4), release: make(chan struct{})}
	screen := newScreen(t, sink)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = screen.Show(Message{Line1: "x"})
		}()
	}

	for i := 0; i < 3; i++ {
		select {
		case <-sink.entered:
		case <-time.After(time.Second):
			t.Fatalf("transmit %d never started", i)
		}
		// Give any other Show a chance to enter while this one is held.
		time.Sleep(10 * time.Millisecond)
		if got := sink.inFlight.Load(); got != 1 {
			t.Fatalf("expected 1 transmit in flight, got %d", got)
		}
		sink.release <- struct{}{}
	}
	wg.Wait()
	if sink.maxSeen.Load() != 1 {
		t.Fatalf("observed %d concurrent transmits", sink.maxSeen.Load())
	}
}
