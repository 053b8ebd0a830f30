package connectivity

import (
	"context"
	"fmt"

	"github.com/rook-computer/statuslcd/internal/app/screens"
	"github.com/rook-computer/statuslcd/internal/state"
)

type Shower interface {
	Show(msg screens.Message) error
}

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// Machine turns network events into connection state and status screens.
// Handle and Run must be driven from a single goroutine; Store and Readiness
// may be read from anywhere.
type Machine struct {
	Store       *state.Store
	Readiness   *state.Readiness
	Screen      Shower
	Station     Station
	NetworkName string
	Logger      Logger
	// Observer, if set, is called after every applied transition.
	Observer func(state.ConnectionState, screens.Message)
}

func NewMachine(store *state.Store, ready *state.Readiness, screen Shower, station Station, networkName string) *Machine {
	return &Machine{Store: store, Readiness: ready, Screen: screen, Station: station, NetworkName: networkName, Logger: noopLogger{}}
}

// Run applies events until ctx is done, the channel is closed, or a redraw fails.
func (m *Machine) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := m.Handle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// Handle applies one event. The only error it returns is a failed redraw.
func (m *Machine) Handle(ctx context.Context, ev Event) error {
	cur := m.Store.Snapshot()

	var (
		next      state.ConnectionState
		msg       screens.Message
		reconnect bool
	)
	switch ev.Kind {
	case EventStarted:
		if cur.Kind != state.IDLE {
			m.logger().Infof("net", "started while %s, restarting", cur)
		}
		next, msg, reconnect = state.Connecting(), StartingMessage(m.NetworkName), true
	case EventDisconnected:
		if cur.Kind == state.IDLE {
			m.logger().Infof("net", "ignoring %s while idle", ev)
			return nil
		}
		next, msg, reconnect = state.Disconnected(ev.Reason), DisconnectedMessage(ev.Reason), true
	case EventAddressAcquired:
		if cur.Kind == state.IDLE {
			m.logger().Infof("net", "ignoring %s while idle", ev)
			return nil
		}
		next, msg = state.Connected(ev.Address), ConnectedMessage(ev.Address)
	default:
		m.logger().Errorf("net", "unknown event %s", ev)
		return nil
	}

	m.Store.Set(next)
	if m.Readiness != nil {
		if next.Kind == state.CONNECTED {
			m.Readiness.Set()
		} else {
			m.Readiness.Clear()
		}
	}
	m.logger().Infof("net", "%s -> %s on %s", cur, next, ev)

	if reconnect && m.Station != nil {
		if err := m.Station.Connect(ctx); err != nil {
			// The station reports the outcome as a later event; nothing to undo here.
			m.logger().Errorf("net", "connect failed: %v", err)
		}
	}

	if err := m.Screen.Show(msg); err != nil {
		return fmt.Errorf("show %s: %w", next, err)
	}
	if m.Observer != nil {
		m.Observer(next, msg)
	}
	return nil
}

func (m *Machine) logger() Logger {
	if m.Logger == nil {
		return noopLogger{}
	}
	return m.Logger
}
