package system

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rook-computer/statuslcd/internal/connectivity"
)

// ScriptStation drives the Wi-Fi interface through wifi.sh and netinfo.sh and
// reports what happens as connectivity events.
type ScriptStation struct {
	Runner   Runner
	SSID     string
	Password string
	MinAuth  string

	// PollInterval is how often the address is checked while joining,
	// LinkInterval how often it is re-checked once connected.
	PollInterval time.Duration
	LinkInterval time.Duration
	JoinTimeout  time.Duration
	Logger       logger

	mu      sync.Mutex
	events  chan<- connectivity.Event
	cancel  context.CancelFunc
	started bool
}

func NewScriptStation(r Runner, ssid, password, minAuth string) *ScriptStation {
	return &ScriptStation{
		Runner:       r,
		SSID:         ssid,
		Password:     password,
		MinAuth:      minAuth,
		PollInterval: 500 * time.Millisecond,
		LinkInterval: 2 * time.Second,
		JoinTimeout:  30 * time.Second,
	}
}

// Start records where events go and reports the interface as started.
func (s *ScriptStation) Start(ctx context.Context, events chan<- connectivity.Event) error {
	if events == nil {
		return errors.New("station: nil event channel")
	}
	s.mu.Lock()
	s.events = events
	s.started = true
	s.mu.Unlock()
	emit(ctx, events, connectivity.Started())
	return nil
}

// Connect abandons any attempt in progress and starts a new one in the
// background. Only precondition failures are returned.
func (s *ScriptStation) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return errors.New("station: connect before start")
	}
	if s.SSID == "" {
		return errors.New("station: no network name configured")
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.fillIntervals()
	attemptCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.attempt(attemptCtx, s.events)
	return nil
}

// Stop cancels the current attempt or link watch.
func (s *ScriptStation) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

func (s *ScriptStation) fillIntervals() {
	if s.PollInterval <= 0 {
		s.PollInterval = 500 * time.Millisecond
	}
	if s.LinkInterval <= 0 {
		s.LinkInterval = 2 * time.Second
	}
	if s.JoinTimeout <= 0 {
		s.JoinTimeout = 30 * time.Second
	}
}

func (s *ScriptStation) attempt(ctx context.Context, events chan<- connectivity.Event) {
	if err := JoinWiFi(ctx, s.Runner, s.SSID, s.Password, s.MinAuth); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logf(true, "join %s: %v", s.SSID, err)
		reason := ExitCode(err)
		if reason == 0 {
			reason = connectivity.ReasonConnectionFail
		}
		emit(ctx, events, connectivity.Disconnect(reason))
		return
	}

	addr, ok := s.waitForAddress(ctx)
	if !ok {
		if ctx.Err() == nil {
			s.logf(true, "no address on %s after %s", s.SSID, s.JoinTimeout)
			emit(ctx, events, connectivity.Disconnect(connectivity.ReasonConnectionFail))
		}
		return
	}
	s.logf(false, "address %s on %s", addr, s.SSID)
	emit(ctx, events, connectivity.AddressAcquired(addr))
	s.watchLink(ctx, events, addr)
}

func (s *ScriptStation) waitForAddress(ctx context.Context) (string, bool) {
	deadline := time.NewTimer(s.JoinTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()
	for {
		if addr, err := WiFiIPv4(ctx, s.Runner); err == nil && addr != "" {
			return addr, true
		}
		select {
		case <-ctx.Done():
			return "", false
		case <-deadline.C:
			return "", false
		case <-ticker.C:
		}
	}
}

// watchLink reports a lost or changed address until ctx is done.
func (s *ScriptStation) watchLink(ctx context.Context, events chan<- connectivity.Event, addr string) {
	ticker := time.NewTicker(s.LinkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cur, err := WiFiIPv4(ctx, s.Runner)
		if ctx.Err() != nil {
			return
		}
		switch {
		case err != nil || cur == "":
			s.logf(true, "link lost on %s", s.SSID)
			emit(ctx, events, connectivity.Disconnect(connectivity.ReasonBeaconTimeout))
			return
		case cur != addr:
			addr = cur
			emit(ctx, events, connectivity.AddressAcquired(addr))
		}
	}
}

func (s *ScriptStation) logf(isErr bool, format string, args ...interface{}) {
	if s.Logger == nil {
		return
	}
	if isErr {
		s.Logger.Errorf("net", format, args...)
		return
	}
	s.Logger.Infof("net", format, args...)
}

func emit(ctx context.Context, events chan<- connectivity.Event, ev connectivity.Event) {
	if ctx.Err() != nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}
