// ClawCat - desktop pet coordination engine driven by assistant status
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/PrincessGray/ClawCat/internal/anim"
	"github.com/PrincessGray/ClawCat/internal/bus"
	"github.com/PrincessGray/ClawCat/internal/cat"
	"github.com/PrincessGray/ClawCat/internal/config"
	"github.com/PrincessGray/ClawCat/internal/live2d"
	"github.com/PrincessGray/ClawCat/internal/logging"
	"github.com/PrincessGray/ClawCat/internal/notify"
	"github.com/PrincessGray/ClawCat/internal/puppet"
	"github.com/PrincessGray/ClawCat/internal/resources"
	"github.com/PrincessGray/ClawCat/internal/status"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "clawcat:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	syslog, err := logging.New(logging.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer syslog.Close()

	log := syslog.Component("main")
	log.Info().Str("server", cfg.Server.BaseURL).Msg("ClawCat starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := bus.NewEventBus()

	// Render boundary: parameter writes stream to the animation runtime
	// over a local websocket, dropped while it is not attached.
	sink := live2d.NewWSSink(cfg.Server.BaseURL, cfg.Server.RenderWSPath, syslog.Zerolog())
	sink.Connect(ctx)
	defer sink.Disconnect()

	surface := live2d.NewSurface(cfg.Server.BaseURL, sink, syslog.Zerolog())

	client := status.NewClient(&status.ClientConfig{
		BaseURL:      cfg.Server.BaseURL,
		Timeout:      cfg.Server.Timeout,
		ToggleSettle: cfg.Server.ToggleSettle,
	}, syslog.Zerolog())

	store := cat.NewStore(cat.StoreConfig{
		ResourceRoot: cfg.Resources.Root,
		ModelPaths: map[cat.Mode]string{
			cat.ModeSlack: filepath.Join(cfg.Resources.ModelRoot, string(cat.ModeSlack), "cat.model3.json"),
			cat.ModeSpy:   filepath.Join(cfg.Resources.ModelRoot, string(cat.ModeSpy), "cat.model3.json"),
		},
		PollInterval: cfg.Server.PollInterval,
	}, cat.StoreDeps{
		Remote:   client,
		Surface:  surface,
		Effect:   puppet.NewLightning(surface, syslog.Zerolog()),
		Notifier: notify.NewDesktop(cfg.Notify.Desktop, syslog.Zerolog()),
		Bus:      eventBus,
	}, syslog.Zerolog())

	// The schedulers gate on live store state, so the store is built first
	// and the runners bound before Start.
	action := newActionScheduler(store, surface, syslog)
	gesture := anim.NewGestureScheduler(surface, store.SetGestureActive, syslog.Zerolog())
	store.BindRunners(action, gesture)

	controller := puppet.NewController(surface, syslog.Zerolog())
	controller.Attach(eventBus)

	if cfg.Resources.Watch {
		// One watcher per mode bundle; a change in the inactive bundle
		// costs a redundant probe of the active one, nothing more.
		for _, m := range []cat.Mode{cat.ModeSlack, cat.ModeSpy} {
			root := filepath.Join(cfg.Resources.Root, string(m))
			watcher, err := resources.NewWatcher(root, store.ReloadKeymap, syslog.Zerolog())
			if err != nil {
				log.Warn().Err(err).Msg("Resource watcher unavailable")
				break
			}
			go watcher.Run(ctx)
		}
	}

	if cfg.Window.Topmost {
		client.SetTopmost(ctx, true)
	}
	if cfg.Window.X != 0 || cfg.Window.Y != 0 {
		client.MoveWindow(ctx, cfg.Window.X, cfg.Window.Y)
	}

	store.Start(ctx)
	store.Run(ctx)

	log.Info().Msg("ClawCat stopped")
	return nil
}

// newActionScheduler wires the key-pulse and pointer-walk processes to the
// store and the parameter surface. The gate reads live store state so a
// timer that fires after a flip sees the new mode.
func newActionScheduler(store *cat.Store, surface *live2d.Surface, syslog *logging.Logger) *anim.ActionScheduler {
	return anim.NewActionScheduler(anim.ActionConfig{
		Gate: func() bool {
			snap := store.Snapshot()
			return snap.Mode == cat.ModeSpy && snap.Activity == cat.ActivityWorking
		},
		Keys: store.EligibleKeys,
		Press: func(k resources.Key) {
			store.PressKey(k)
		},
		Release: func(k resources.Key) {
			store.ReleaseKey(k.ID)
		},
		SetPointer: func(x, y float64) {
			if rx := surface.ParameterRange(live2d.ParamMouseX); !rx.IsZero() {
				surface.SetParameter(live2d.ParamMouseX, rx.FromRatio(x))
			}
			if ry := surface.ParameterRange(live2d.ParamMouseY); !ry.IsZero() {
				surface.SetParameter(live2d.ParamMouseY, ry.FromRatio(y))
			}
		},
	}, syslog.Zerolog())
}
