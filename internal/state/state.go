package state

import (
	"fmt"
	"sync"
)

type Kind int

const (
	IDLE Kind = iota
	CONNECTING
	DISCONNECTED
	CONNECTED
)

func (k Kind) String() string {
	switch k {
	case IDLE:
		return "idle"
	case CONNECTING:
		return "connecting"
	case DISCONNECTED:
		return "disconnected"
	case CONNECTED:
		return "connected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ConnectionState is the connectivity machine's current state. Reason is only
// meaningful for DISCONNECTED, Address only for CONNECTED.
type ConnectionState struct {
	Kind    Kind
	Reason  int
	Address string
}

func Idle() ConnectionState       { return ConnectionState{Kind: IDLE} }
func Connecting() ConnectionState { return ConnectionState{Kind: CONNECTING} }

func Disconnected(reason int) ConnectionState {
	return ConnectionState{Kind: DISCONNECTED, Reason: reason}
}

func Connected(address string) ConnectionState {
	return ConnectionState{Kind: CONNECTED, Address: address}
}

func (s ConnectionState) String() string {
	switch s.Kind {
	case DISCONNECTED:
		return fmt.Sprintf("disconnected(%d)", s.Reason)
	case CONNECTED:
		return fmt.Sprintf("connected(%s)", s.Address)
	default:
		return s.Kind.String()
	}
}

type Store struct {
	mu    sync.RWMutex
	state ConnectionState
}

func NewStore() *Store {
	return &Store{state: Idle()}
}

func (store *Store) Snapshot() ConnectionState {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

func (store *Store) Set(next ConnectionState) {
	store.mu.Lock()
	store.state = next
	store.mu.Unlock()
}
