package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rook-computer/statuslcd/internal/app"
	"github.com/rook-computer/statuslcd/internal/config"
	"github.com/rook-computer/statuslcd/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	listenAddr := flag.String("listen", "", "http listen address (default :8081); also configurable via "+config.EnvListen)
	devMode := flag.Bool("dev", false, "enable dev mode; also configurable via "+config.EnvDevMode)
	autoAddress := flag.String("auto-address", "192.168.4.20", "address reported after each connect; empty disables")
	autoDelay := flag.Duration("auto-delay", 2*time.Second, "delay before the automatic address is reported")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = config.ApplyEnv(cfg)
	}
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	// :8081 keeps the simulator clear of a device build on the same host.
	if cfg.Web.Listen == config.Default().Web.Listen && os.Getenv(config.EnvListen) == "" {
		cfg.Web.Listen = ":8081"
	}
	if *listenAddr != "" {
		cfg.Web.Listen = *listenAddr
	}
	if *devMode {
		cfg.Web.DevMode = true
	}
	cfg.Display.Sink = config.SinkNone
	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := app.NewFileLogger(os.Stdout)

	control := NewSimControl()
	control.AutoAddress = *autoAddress
	control.AutoDelay = *autoDelay

	a, err := app.New(cfg, control.Sink(), control)
	if err != nil {
		fmt.Println("app error:", err)
		os.Exit(2)
	}
	a.Logger = logger

	hub := web.NewHub()
	defer hub.Close()
	a.Observe(web.StatusObserver(hub))

	serverCfg := web.NewServerConfig(cfg.Web, ":8081")
	mux := http.NewServeMux()
	mux.Handle("/", web.NewDefaultMux(serverCfg, web.APIV1Deps{Device: a, Port: serverCfg.Port(), Hub: hub}))
	registerSimEndpoints(mux, control)

	server := web.NewHTTPServer(serverCfg.ListenAddr, mux)
	server.Logger = logger
	if err := server.Start(processCtx); err != nil {
		fmt.Println("server start error:", err)
		os.Exit(1)
	}
	defer server.Stop()

	fmt.Println("statuslcd simulator listening on", serverCfg.ListenAddr)
	fmt.Println("network name:", cfg.Network.Name)
	fmt.Println("API: http://" + displayAddr(serverCfg.ListenAddr) + "/api/v1/status")

	if err := a.Start(processCtx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println("simulator stopped:", err)
		os.Exit(1)
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}
