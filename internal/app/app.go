package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rook-computer/statuslcd/internal/app/screens"
	"github.com/rook-computer/statuslcd/internal/config"
	"github.com/rook-computer/statuslcd/internal/connectivity"
	"github.com/rook-computer/statuslcd/internal/render"
	"github.com/rook-computer/statuslcd/internal/state"
)

// Network is the stack the app drives: it raises events and accepts reconnects.
type Network interface {
	connectivity.Source
	connectivity.Station
}

type PowerHold interface {
	On(ctx context.Context) error
	Off(ctx context.Context) error
}

type App struct {
	FB      *render.Framebuffer
	Screen  *screens.StatusScreen
	Store   *state.Store
	Ready   *state.Readiness
	Machine *connectivity.Machine
	Network Network
	Power   PowerHold
	Logger  Logger

	ReadyPoll    time.Duration
	NotReadyPoll time.Duration

	mu        sync.Mutex
	observers []func(state.ConnectionState, screens.Message)

	events   chan connectivity.Event
	exitOnce atomic.Bool
	exitCh   chan error
}

func New(cfg *config.Config, sink render.Sink, network Network) (*App, error) {
	fb, err := render.NewFramebuffer(cfg.Display.Width, cfg.Display.Height)
	if err != nil {
		return nil, fmt.Errorf("framebuffer: %w", err)
	}
	fg, bg, err := cfg.Display.Colors()
	if err != nil {
		return nil, err
	}
	screen := screens.NewStatusScreen(fb, sink)
	screen.Foreground, screen.Background = fg, bg

	app := &App{
		FB:           fb,
		Screen:       screen,
		Store:        state.NewStore(),
		Ready:        state.NewReadiness(),
		Network:      network,
		Logger:       NoopLogger{},
		ReadyPoll:    time.Duration(cfg.Poll.ReadyMs) * time.Millisecond,
		NotReadyPoll: time.Duration(cfg.Poll.NotReadyMs) * time.Millisecond,
		events:       make(chan connectivity.Event, 16),
		exitCh:       make(chan error, 1),
	}
	app.Machine = connectivity.NewMachine(app.Store, app.Ready, screen, network, cfg.Network.Name)
	app.Machine.Observer = app.notify
	return app, nil
}

// Observe registers fn to run after every applied connectivity transition.
func (app *App) Observe(fn func(state.ConnectionState, screens.Message)) {
	app.mu.Lock()
	app.observers = append(app.observers, fn)
	app.mu.Unlock()
}

func (app *App) notify(s state.ConnectionState, msg screens.Message) {
	app.mu.Lock()
	observers := append([]func(state.ConnectionState, screens.Message){}, app.observers...)
	app.mu.Unlock()
	for _, fn := range observers {
		fn(s, msg)
	}
}

// Exit requests the app to stop running.
func (app *App) Exit(err error) {
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

func (app *App) Start(ctx context.Context) error {
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}
	app.Screen.Logger = app.Logger
	app.Machine.Logger = app.Logger

	if app.Power != nil {
		if err := app.Power.On(ctx); err != nil {
			app.Logger.Errorf("app", "power hold: %v", err)
		}
		defer func() {
			if err := app.Power.Off(context.Background()); err != nil {
				app.Logger.Errorf("app", "power release: %v", err)
			}
		}()
	}

	if err := app.Screen.Flush(render.Black); err != nil {
		app.Logger.Errorf("app", "initial flush: %v", err)
		return err
	}
	if err := app.Screen.Show(screens.BootMessage()); err != nil {
		app.Logger.Errorf("app", "boot screen: %v", err)
		return err
	}
	app.Logger.Infof("app", "display ok, %dx%d", app.FB.Width(), app.FB.Height())

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.Network.Start(loopCtx, app.events); err != nil {
		return fmt.Errorf("network start: %w", err)
	}

	machineDone := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		machineDone <- app.Machine.Run(loopCtx, app.events)
	}()
	go func() {
		defer wg.Done()
		app.pollReadiness(loopCtx)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-app.exitCh:
	case err = <-machineDone:
		if err != nil {
			app.Logger.Errorf("app", "connectivity loop stopped: %v", err)
		}
	}
	cancel()
	wg.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		err = nil
	}
	return err
}

// pollReadiness is the foreground task: it checks readiness on a slow tick
// while connected and a faster one while not, logging each change.
func (app *App) pollReadiness(ctx context.Context) {
	ready := app.Ready.IsReady()
	timer := time.NewTimer(app.interval(ready))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		now := app.Ready.IsReady()
		if now != ready {
			if now {
				app.Logger.Infof("app", "network ready, %s", app.Store.Snapshot())
			} else {
				app.Logger.Infof("app", "network not ready")
			}
			ready = now
		}
		timer.Reset(app.interval(ready))
	}
}

func (app *App) interval(ready bool) time.Duration {
	d := app.NotReadyPoll
	if ready {
		d = app.ReadyPoll
	}
	if d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// ---- read side for the web API and publishers ----

func (app *App) ConnectionState() state.ConnectionState { return app.Store.Snapshot() }
func (app *App) IsReady() bool                          { return app.Ready.IsReady() }
func (app *App) Message() screens.Message               { return app.Screen.Last() }
func (app *App) Frame() *render.Framebuffer             { return app.Screen.Snapshot() }
