package config

import (
	"fmt"
	"net"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ---- network ----
	if cfg.Network.Name == "" {
		return fmt.Errorf("network.name must not be empty")
	}
	if len(cfg.Network.Name) > 32 {
		return fmt.Errorf("network.name %q longer than 32 bytes", cfg.Network.Name)
	}
	if cfg.Network.MinAuth != "" && !cfg.Network.MinAuth.Valid() {
		return fmt.Errorf("network.min_auth %q is not a known auth mode", cfg.Network.MinAuth)
	}
	if cfg.Network.MinAuth != AuthOpen && cfg.Network.MinAuth != "" && cfg.Network.Credential == "" {
		return fmt.Errorf("network.credential required for min_auth %q", cfg.Network.MinAuth)
	}

	// ---- display ----
	if cfg.Display.Width < 0 || cfg.Display.Height < 0 {
		return fmt.Errorf("display size %dx%d must not be negative", cfg.Display.Width, cfg.Display.Height)
	}
	switch cfg.Display.Sink {
	case "", SinkSPI, SinkFB, SinkNone:
	default:
		return fmt.Errorf("display.sink %q must be one of spi, fb, none", cfg.Display.Sink)
	}
	for name, v := range map[string]string{"display.foreground": cfg.Display.Foreground, "display.background": cfg.Display.Background} {
		if v == "" {
			continue
		}
		if _, err := ParseColor(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if cfg.SPI.ClockMHz < 0 {
		return fmt.Errorf("spi.clock_mhz must not be negative")
	}
	if cfg.Framebuffer.Margin < 0 {
		return fmt.Errorf("framebuffer.margin must not be negative")
	}

	// ---- poll ----
	if cfg.Poll.ReadyMs < 0 || cfg.Poll.NotReadyMs < 0 || cfg.Poll.LinkMs < 0 {
		return fmt.Errorf("poll intervals must not be negative")
	}

	// ---- web ----
	if cfg.Web.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Web.Listen); err != nil {
			return fmt.Errorf("web.listen %q: %w", cfg.Web.Listen, err)
		}
	}

	// ---- mqtt (opt-in) ----
	if cfg.MQTT.Broker != "" && cfg.MQTT.Topic == "" {
		return fmt.Errorf("mqtt.topic required when mqtt.broker is set")
	}
	return nil
}
