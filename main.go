package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/rook-computer/statuslcd/internal/app"
	"github.com/rook-computer/statuslcd/internal/config"
	"github.com/rook-computer/statuslcd/internal/publish"
	"github.com/rook-computer/statuslcd/internal/render"
	"github.com/rook-computer/statuslcd/internal/system"
	"github.com/rook-computer/statuslcd/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	debug := flag.Bool("debug", false, "enable debug logging to ./statuslcd-debug.log")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via "+config.EnvStdioLog)
	flag.Parse()

	logPath := *stdioLog
	if logPath == "" {
		logPath = os.Getenv(config.EnvStdioLog)
	}
	if logPath != "" {
		if err := redirectStdIO(logPath); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	var logger app.Logger = app.NoopLogger{}
	if *debug {
		f, err := os.OpenFile("./statuslcd-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("main", "exit: %v", err)
		fmt.Println("statuslcd error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, logger app.Logger) error {
	runner := system.ShellRunner{Logger: logger}

	sink, closeSink, err := openSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	station := system.NewScriptStation(runner, cfg.Network.Name, cfg.Network.Credential, string(cfg.Network.MinAuth))
	station.LinkInterval = time.Duration(cfg.Poll.LinkMs) * time.Millisecond
	station.Logger = logger
	defer station.Stop()

	a, err := app.New(cfg, sink, station)
	if err != nil {
		return err
	}
	a.Logger = logger
	a.Power = system.PowerHold{Runner: runner, Logger: logger}

	if cfg.Display.Sink == config.SinkFB {
		go system.WatchExitKey(ctx, logger, system.KeyF4, func() {
			logger.Infof("main", "exit key pressed")
			a.Exit(nil)
		})
	}

	hub := web.NewHub()
	defer hub.Close()
	a.Observe(web.StatusObserver(hub))

	serverCfg := web.NewServerConfig(cfg.Web, ":8080")
	server := web.NewHTTPServer(serverCfg.ListenAddr, web.NewDefaultMux(serverCfg, web.APIV1Deps{
		Device: a,
		Port:   serverCfg.Port(),
		Hub:    hub,
	}))
	server.Logger = logger
	if err := server.Start(ctx); err != nil {
		logger.Errorf("web", "start: %v", err)
	} else {
		defer server.Stop()
	}

	if cfg.MQTT.Broker != "" {
		pub := publish.NewMQTT(cfg.MQTT)
		pub.Logger = logger
		if err := pub.Connect(); err != nil {
			logger.Errorf("mqtt", "connect: %v", err)
		} else {
			defer pub.Disconnect()
			a.Observe(pub.Observe)
		}
	}

	return a.Start(ctx)
}

// openSink returns the configured display sink and a func that releases it.
func openSink(cfg *config.Config, logger app.Logger) (render.Sink, func(), error) {
	switch cfg.Display.Sink {
	case config.SinkSPI:
		if _, err := host.Init(); err != nil {
			return nil, nil, fmt.Errorf("periph init: %w", err)
		}
		port, err := spireg.Open(cfg.SPI.Port)
		if err != nil {
			return nil, nil, fmt.Errorf("open spi port %q: %w", cfg.SPI.Port, err)
		}
		c, err := port.Connect(physic.Frequency(cfg.SPI.ClockMHz)*physic.MegaHertz, spi.Mode0, 8)
		if err != nil {
			port.Close()
			return nil, nil, fmt.Errorf("spi connect: %w", err)
		}
		dc := gpioreg.ByName(cfg.SPI.DCPin)
		if dc == nil {
			port.Close()
			return nil, nil, fmt.Errorf("dc pin %q not found", cfg.SPI.DCPin)
		}
		s := render.NewSPISink(c, dc)
		s.XOffset, s.YOffset = cfg.SPI.XOffset, cfg.SPI.YOffset
		s.Logger = logger
		logger.Infof("main", "spi sink on %s, dc=%s", port, dc)
		return s, func() { port.Close() }, nil

	case config.SinkFB:
		console := system.Console{Logger: logger}
		if err := console.EnterGraphics(); err != nil {
			logger.Errorf("main", "console graphics mode: %v", err)
		}
		s := render.NewFBSink(cfg.Framebuffer.Device)
		s.Margin = cfg.Framebuffer.Margin
		s.PixelPerfect = cfg.Framebuffer.PixelPerfect
		s.Logger = logger
		if err := s.Open(); err != nil {
			_ = console.Restore()
			return nil, nil, err
		}
		return s, func() {
			_ = s.Close()
			_ = console.Restore()
		}, nil

	default:
		logger.Infof("main", "display sink disabled")
		return render.NoopSink{}, func() {}, nil
	}
}
