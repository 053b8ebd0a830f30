package config

// Normalize fills zero values with defaults.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	def := Default()

	if cfg.Network.MinAuth == "" {
		cfg.Network.MinAuth = def.Network.MinAuth
	}
	if cfg.Display.Width == 0 {
		cfg.Display.Width = def.Display.Width
	}
	if cfg.Display.Height == 0 {
		cfg.Display.Height = def.Display.Height
	}
	if cfg.Display.Sink == "" {
		cfg.Display.Sink = def.Display.Sink
	}
	if cfg.Display.Foreground == "" {
		cfg.Display.Foreground = def.Display.Foreground
	}
	if cfg.Display.Background == "" {
		cfg.Display.Background = def.Display.Background
	}
	if cfg.SPI.ClockMHz == 0 {
		cfg.SPI.ClockMHz = def.SPI.ClockMHz
	}
	if cfg.SPI.DCPin == "" {
		cfg.SPI.DCPin = def.SPI.DCPin
	}
	if cfg.Framebuffer.Device == "" {
		cfg.Framebuffer.Device = def.Framebuffer.Device
	}
	if cfg.Poll.ReadyMs == 0 {
		cfg.Poll.ReadyMs = def.Poll.ReadyMs
	}
	if cfg.Poll.NotReadyMs == 0 {
		cfg.Poll.NotReadyMs = def.Poll.NotReadyMs
	}
	if cfg.Poll.LinkMs == 0 {
		cfg.Poll.LinkMs = def.Poll.LinkMs
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = def.Web.Listen
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = def.MQTT.ClientID
	}
}
