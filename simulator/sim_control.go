package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rook-computer/statuslcd/internal/connectivity"
	"github.com/rook-computer/statuslcd/internal/render"
)

type SimFaults struct {
	ConnectFail  bool `json:"connectFail"`
	TransmitFail bool `json:"transmitFail"`
}

var errTransmitFault = errors.New("simulated transmit failure")

// SimControl stands in for the Wi-Fi station and the panel. Events are
// injected over HTTP; every Connect is counted and, when AutoAddress is set,
// answered with an address after AutoDelay.
type SimControl struct {
	AutoAddress string
	AutoDelay   time.Duration

	sink *render.MemorySink

	mu       sync.Mutex
	ctx      context.Context
	events   chan<- connectivity.Event
	faults   SimFaults
	connects int
	pending  *time.Timer
}

func NewSimControl() *SimControl {
	return &SimControl{sink: render.NewMemorySink()}
}

func (c *SimControl) Sink() *render.MemorySink { return c.sink }

func (c *SimControl) Start(ctx context.Context, events chan<- connectivity.Event) error {
	if events == nil {
		return errors.New("sim: nil event channel")
	}
	c.mu.Lock()
	c.ctx, c.events = ctx, events
	c.mu.Unlock()
	return c.Inject(connectivity.Started())
}

func (c *SimControl) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	if c.faults.ConnectFail {
		return errors.New("simulated connect failure")
	}
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	if c.AutoAddress != "" {
		addr := c.AutoAddress
		c.pending = time.AfterFunc(c.AutoDelay, func() {
			_ = c.Inject(connectivity.AddressAcquired(addr))
		})
	}
	return nil
}

func (c *SimControl) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

// Inject hands ev to the running app. It fails before Start.
func (c *SimControl) Inject(ev connectivity.Event) error {
	c.mu.Lock()
	ctx, events := c.ctx, c.events
	c.mu.Unlock()
	if events == nil {
		return errors.New("simulator not started")
	}
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second):
		return fmt.Errorf("event queue full, dropped %s", ev.Kind)
	}
}

func (c *SimControl) Faults() SimFaults {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.faults
}

func (c *SimControl) SetFaults(v SimFaults) {
	c.mu.Lock()
	c.faults = v
	c.mu.Unlock()
	if v.TransmitFail {
		c.sink.FailWith(errTransmitFault)
	} else {
		c.sink.FailWith(nil)
	}
}

func registerSimEndpoints(mux *http.ServeMux, control *SimControl) {
	inject := func(w http.ResponseWriter, ev connectivity.Event) {
		if err := control.Inject(ev); err != nil {
			writeSimError(w, http.StatusConflict, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true, "event": ev.Kind.String()})
	}

	mux.HandleFunc("/sim/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		inject(w, connectivity.Started())
	})

	mux.HandleFunc("/sim/disconnect", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		reason := connectivity.ReasonNoAPFound
		if raw := r.URL.Query().Get("reason"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeSimError(w, http.StatusBadRequest, "reason must be a non-negative integer")
				return
			}
			reason = n
		}
		inject(w, connectivity.Disconnect(reason))
	})

	mux.HandleFunc("/sim/address", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ip := net.ParseIP(r.URL.Query().Get("ip"))
		if ip == nil || ip.To4() == nil {
			writeSimError(w, http.StatusBadRequest, "ip must be a dotted IPv4 address")
			return
		}
		inject(w, connectivity.AddressAcquired(ip.To4().String()))
	})

	mux.HandleFunc("/sim/stats", func(w http.ResponseWriter, r *http.Request) {
		writeSimJSON(w, http.StatusOK, map[string]any{
			"connects": control.Connects(),
			"frames":   control.Sink().Count(),
		})
	})

	mux.HandleFunc("/sim/faults", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSimJSON(w, http.StatusOK, control.Faults())
		case http.MethodPost:
			var patch struct {
				ConnectFail  *bool `json:"connectFail"`
				TransmitFail *bool `json:"transmitFail"`
			}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeSimError(w, http.StatusBadRequest, "invalid json")
				return
			}
			current := control.Faults()
			if patch.ConnectFail != nil {
				current.ConnectFail = *patch.ConnectFail
			}
			if patch.TransmitFail != nil {
				current.TransmitFail = *patch.TransmitFail
			}
			control.SetFaults(current)
			writeSimJSON(w, http.StatusOK, current)
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}
