package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rook-computer/statuslcd/internal/app/screens"
	"github.com/rook-computer/statuslcd/internal/config"
	"github.com/rook-computer/statuslcd/internal/connectivity"
	"github.com/rook-computer/statuslcd/internal/render"
	"github.com/rook-computer/statuslcd/internal/state"
)

// fakeNetwork answers the first Connect with an address.
type fakeNetwork struct {
	mu       sync.Mutex
	events   chan<- connectivity.Event
	connects int
	addr     string
}

func (n *fakeNetwork) Start(ctx context.Context, events chan<- connectivity.Event) error {
	n.mu.Lock()
	n.events = events
	n.mu.Unlock()
	events <- connectivity.Started()
	return nil
}

func (n *fakeNetwork) Connect(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connects++
	if n.connects == 1 && n.addr != "" {
		ev := connectivity.AddressAcquired(n.addr)
		go func() { n.events <- ev }()
	}
	return nil
}

type fakePower struct{ calls []string }

func (p *fakePower) On(context.Context) error  { p.calls = append(p.calls, "on"); return nil }
func (p *fakePower) Off(context.Context) error { p.calls = append(p.calls, "off"); return nil }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestAppStartReachesConnected(t *testing.T) {
	sink := render.NewMemorySink()
	network := &fakeNetwork{addr: "192.168.4.2"}
	app, err := New(config.Default(), sink, network)
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	power := &fakePower{}
	app.Power = power
	app.ReadyPoll, app.NotReadyPoll = time.Millisecond, time.Millisecond

	var mu sync.Mutex
	var observed []state.ConnectionState
	app.Observe(func(s state.ConnectionState, _ screens.Message) {
		mu.Lock()
		observed = append(observed, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	// flush, boot, starting, connected
	waitFor(t, "four transmits", func() bool { return sink.Count() == 4 })
	if !app.IsReady() {
		t.Fatalf("expected ready once connected")
	}
	if got := app.ConnectionState(); got != state.Connected("192.168.4.2") {
		t.Fatalf("unexpected state %v", got)
	}
	if got := app.Message(); got != connectivity.ConnectedMessage("192.168.4.2") {
		t.Fatalf("unexpected message %+v", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Start did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 2 || observed[0] != state.Connecting() {
		t.Fatalf("unexpected observed transitions %v", observed)
	}
	if strings.Join(power.calls, ",") != "on,off" {
		t.Fatalf("power hold not balanced: %v", power.calls)
	}
}

func TestAppStartFailsWhenPanelFails(t *testing.T) {
	sink := render.NewMemorySink()
	boom := errors.New("spi write failed")
	sink.FailWith(boom)
	app, err := New(config.Default(), sink, &fakeNetwork{})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	if err := app.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected panel error, got %v", err)
	}
}

func TestAppStopsWhenRedrawFails(t *testing.T) {
	// flush and boot screen succeed, the first connectivity redraw fails
	sink := &failAfterSink{okCount: 2, err: errors.New("bus stuck")}
	app, err := New(config.Default(), sink, &fakeNetwork{})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.Start(ctx); err == nil || !strings.Contains(err.Error(), "bus stuck") {
		t.Fatalf("expected redraw failure, got %v", err)
	}
}

type failAfterSink struct {
	mu      sync.Mutex
	okCount int
	n       int
	err     error
}

func (s *failAfterSink) Transmit(pix []uint16, rect image.Rectangle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if s.n > s.okCount {
		return s.err
	}
	return nil
}

func TestNewRejectsBadDisplay(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Width = 0
	if _, err := New(cfg, render.NoopSink{}, &fakeNetwork{}); err == nil {
		t.Fatalf("expected error for zero width")
	}
	cfg = config.Default()
	cfg.Display.Foreground = "red"
	if _, err := New(cfg, render.NoopSink{}, &fakeNetwork{}); err == nil {
		t.Fatalf("expected error for bad color")
	}
}

func TestExitStopsApp(t *testing.T) {
	app, err := New(config.Default(), render.NewMemorySink(), &fakeNetwork{})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	want := errors.New("exit key")
	app.Exit(want)
	app.Exit(errors.New("second exit ignored"))
	if err := app.Start(context.Background()); !errors.Is(err, want) {
		t.Fatalf("expected exit error, got %v", err)
	}
}

func TestFileLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileLogger(&buf)
	l.Infof("net", "address %s", "10.0.0.2")
	l.Errorf("screen", "transmit failed")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasSuffix(lines[0], " [INFO] net: address 10.0.0.2") {
		t.Fatalf("unexpected info line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], " [ERROR] screen: transmit failed") {
		t.Fatalf("unexpected error line %q", lines[1])
	}
	if _, err := time.Parse(time.RFC3339, strings.SplitN(lines[0], " ", 2)[0]); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}
}
