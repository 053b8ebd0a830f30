package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Network     NetworkConfig     `yaml:"network"`
	Display     DisplayConfig     `yaml:"display"`
	SPI         SPIConfig         `yaml:"spi"`
	Framebuffer FramebufferConfig `yaml:"framebuffer"`
	Poll        PollConfig        `yaml:"poll"`
	Web         WebConfig         `yaml:"web"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
}

// ---- NETWORK ----

type NetworkConfig struct {
	Name       string `yaml:"name"`
	Credential string `yaml:"credential"`
	// Weakest authentication the station will accept.
	MinAuth AuthMode `yaml:"min_auth"`
}

type AuthMode string

const (
	AuthOpen       AuthMode = "open"
	AuthWEP        AuthMode = "wep"
	AuthWPAPSK     AuthMode = "wpa-psk"
	AuthWPAWPA2PSK AuthMode = "wpa-wpa2-psk"
	AuthWPA2PSK    AuthMode = "wpa2-psk"
	AuthWPA3PSK    AuthMode = "wpa3-psk"
)

func (m AuthMode) Valid() bool {
	switch m {
	case AuthOpen, AuthWEP, AuthWPAPSK, AuthWPAWPA2PSK, AuthWPA2PSK, AuthWPA3PSK:
		return true
	}
	return false
}

// ---- DISPLAY ----

const (
	SinkSPI  = "spi"
	SinkFB   = "fb"
	SinkNone = "none"
)

type DisplayConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Sink       string `yaml:"sink"`
	Foreground string `yaml:"foreground"` // #rrggbb
	Background string `yaml:"background"` // #rrggbb
}

type SPIConfig struct {
	Port     string `yaml:"port"` // empty selects the first registered port
	ClockMHz int    `yaml:"clock_mhz"`
	DCPin    string `yaml:"dc_pin"`
	XOffset  int    `yaml:"x_offset"`
	YOffset  int    `yaml:"y_offset"`
}

type FramebufferConfig struct {
	Device       string `yaml:"device"`
	Margin       int    `yaml:"margin"`
	PixelPerfect bool   `yaml:"pixel_perfect"`
}

// ---- POLL ----

type PollConfig struct {
	ReadyMs    int `yaml:"ready_ms"`
	NotReadyMs int `yaml:"not_ready_ms"`
	LinkMs     int `yaml:"link_ms"`
}

// ---- OUTER SURFACES ----

type WebConfig struct {
	Listen  string `yaml:"listen"`
	DevMode bool   `yaml:"dev_mode"`
}

// MQTTConfig enables the status publisher when Broker is set.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

func Default() *Config {
	return &Config{
		Network:     NetworkConfig{Name: "wifinet", Credential: "password", MinAuth: AuthWPAWPA2PSK},
		Display:     DisplayConfig{Width: 128, Height: 128, Sink: SinkSPI, Foreground: "#ffffff", Background: "#000000"},
		SPI:         SPIConfig{ClockMHz: 26, DCPin: "GPIO7"},
		Framebuffer: FramebufferConfig{Device: "/dev/fb0"},
		Poll:        PollConfig{ReadyMs: 1000, NotReadyMs: 500, LinkMs: 2000},
		Web:         WebConfig{Listen: ":8080"},
		MQTT:        MQTTConfig{ClientID: "statuslcd", Topic: "statuslcd/status"},
	}
}

// Load reads a YAML file on top of Default. Unknown keys are rejected.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(bytes.NewReader(raw), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
