package publish

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rook-computer/statuslcd/internal/app/screens"
	"github.com/rook-computer/statuslcd/internal/config"
	"github.com/rook-computer/statuslcd/internal/state"
)

type logger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// publisher is the part of mqtt.Client the status publisher uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Status is the retained payload on the status topic.
type Status struct {
	State   string   `json:"state"`
	Reason  int      `json:"reason,omitempty"`
	Address string   `json:"address,omitempty"`
	Ready   bool     `json:"ready"`
	Lines   []string `json:"lines"`
	TS      string   `json:"ts"`
}

// MQTT publishes every connectivity transition as a retained message and
// keeps <topic>/availability at online/offline through the broker's will.
type MQTT struct {
	Topic  string
	Logger logger

	cfg    config.MQTTConfig
	mu     sync.Mutex
	client mqtt.Client
	pub    publisher
	last   []byte
}

func NewMQTT(cfg config.MQTTConfig) *MQTT {
	return &MQTT{Topic: cfg.Topic, cfg: cfg}
}

func (m *MQTT) availabilityTopic() string { return m.Topic + "/availability" }

// Connect starts the client. Paho keeps reconnecting in the background; the
// last status is re-published on every (re)connect.
func (m *MQTT) Connect() error {
	if m.cfg.Broker == "" {
		return errors.New("mqtt broker not configured")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.cfg.Broker)
	opts.SetClientID(m.cfg.ClientID)
	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
		opts.SetPassword(m.cfg.Password)
	}
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetWill(m.availabilityTopic(), "offline", 1, true)

	opts.OnConnect = func(c mqtt.Client) {
		m.logf(false, "connected to %s", m.cfg.Broker)
		c.Publish(m.availabilityTopic(), 1, true, "online")
		m.mu.Lock()
		last := m.last
		m.mu.Unlock()
		if last != nil {
			c.Publish(m.Topic, 1, true, last)
		}
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		m.logf(true, "connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	// With ConnectRetry the token only completes once connected; don't block startup on it.
	client.Connect()

	m.mu.Lock()
	m.client = client
	m.pub = client
	m.mu.Unlock()
	return nil
}

func (m *MQTT) Disconnect() {
	m.mu.Lock()
	client := m.client
	m.client, m.pub = nil, nil
	m.mu.Unlock()
	if client == nil {
		return
	}
	if client.IsConnected() {
		client.Publish(m.availabilityTopic(), 1, true, "offline").WaitTimeout(time.Second)
	}
	client.Disconnect(250)
}

// Observe is a connectivity observer. It never blocks the caller on the broker.
func (m *MQTT) Observe(s state.ConnectionState, msg screens.Message) {
	payload, err := json.Marshal(StatusPayload(s, msg, time.Now()))
	if err != nil {
		m.logf(true, "encode status: %v", err)
		return
	}
	m.mu.Lock()
	m.last = payload
	pub := m.pub
	m.mu.Unlock()
	if pub == nil {
		return
	}
	if c, ok := pub.(mqtt.Client); ok && !c.IsConnectionOpen() {
		return // published from OnConnect
	}
	token := pub.Publish(m.Topic, 1, true, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			m.logf(true, "publish %s: timeout", m.Topic)
			return
		}
		if err := token.Error(); err != nil {
			m.logf(true, "publish %s: %v", m.Topic, err)
		}
	}()
}

func StatusPayload(s state.ConnectionState, msg screens.Message, now time.Time) Status {
	return Status{
		State:   s.Kind.String(),
		Reason:  s.Reason,
		Address: s.Address,
		Ready:   s.Kind == state.CONNECTED,
		Lines:   msg.Lines(),
		TS:      now.Format(time.RFC3339),
	}
}

func (m *MQTT) logf(isErr bool, format string, args ...interface{}) {
	if m.Logger == nil {
		return
	}
	if isErr {
		m.Logger.Errorf("mqtt", format, args...)
		return
	}
	m.Logger.Infof("mqtt", format, args...)
}
