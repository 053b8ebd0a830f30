package connectivity

import (
	"context"
	"fmt"
)

type EventKind int

const (
	EventStarted EventKind = iota
	EventDisconnected
	EventAddressAcquired
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventDisconnected:
		return "disconnected"
	case EventAddressAcquired:
		return "address-acquired"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one notification from the network stack.
type Event struct {
	Kind    EventKind
	Reason  int
	Address string
}

func Started() Event                    { return Event{Kind: EventStarted} }
func Disconnect(reason int) Event       { return Event{Kind: EventDisconnected, Reason: reason} }
func AddressAcquired(addr string) Event { return Event{Kind: EventAddressAcquired, Address: addr} }

func (e Event) String() string {
	switch e.Kind {
	case EventDisconnected:
		return fmt.Sprintf("disconnected(%d)", e.Reason)
	case EventAddressAcquired:
		return fmt.Sprintf("address-acquired(%s)", e.Address)
	default:
		return e.Kind.String()
	}
}

// Reason codes reported with EventDisconnected by the Linux stations.
const (
	ReasonBeaconTimeout  = 200
	ReasonNoAPFound      = 201
	ReasonAuthFail       = 202
	ReasonAssocFail      = 203
	ReasonHandshakeFail  = 204
	ReasonConnectionFail = 205
)

// Station is the network collaborator the machine asks to (re)connect.
// Connect must return without waiting for association; the outcome arrives
// later as an Event.
type Station interface {
	Connect(ctx context.Context) error
}

// Source brings the network stack up. It returns once started; events keep
// arriving on the channel until ctx is done.
type Source interface {
	Start(ctx context.Context, events chan<- Event) error
}
