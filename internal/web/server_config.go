package web

import (
	"net"

	"github.com/rook-computer/statuslcd/internal/config"
)

// ServerConfig contains settings for running the HTTP server.
//
// The intended defaults differ per binary:
// - real device: :8080
// - simulator:   :8081
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

func NewServerConfig(cfg config.WebConfig, defaultListenAddr string) ServerConfig {
	addr := cfg.Listen
	if addr == "" {
		addr = defaultListenAddr
	}
	return ServerConfig{ListenAddr: addr, DevMode: cfg.DevMode}
}

// Port returns the port part of ListenAddr, or "" if it has none.
func (c ServerConfig) Port() string {
	_, port, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		return ""
	}
	return port
}
