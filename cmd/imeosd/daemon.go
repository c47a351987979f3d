package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"imeosd/internal/config"
	"imeosd/internal/daemon"
	"imeosd/internal/overlay"
	"imeosd/internal/watcher"
)

const appID = "io.github.imeosd"

// runDaemon starts the indicator daemon and blocks until shutdown.
func runDaemon() error {
	logger.Info("starting imeosd", "version", version)

	configPath := globalOpts.configPath
	if configPath == "" {
		var err error
		configPath, err = config.Path()
		if err != nil {
			return fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Info("configuration loaded",
		"path", configPath, "input_methods", len(cfg.InputMethods))

	app := adw.NewApplication(appID, 0)

	// Shared between the GTK main loop and the signal handler.
	var (
		modeWatcher   *watcher.Watcher
		configWatcher *daemon.ConfigWatcher
		running       atomic.Bool
		startupFailed atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		glib.IdleAdd(func() {
			app.Quit()
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		if !layershell.IsSupported() {
			logger.Error("compositor does not support the layer-shell protocol")
			startupFailed.Store(true)
			app.Quit()
			return
		}

		ovl := overlay.NewManager(&app.Application, cfg, logger)

		modeWatcher = watcher.New(logger)
		ctrl := daemon.NewController(cfg, ovl, modeWatcher.Events(), logger)
		ovl.SetErrorCallback(ctrl.SurfaceFailed)

		var cwErr error
		configWatcher, cwErr = daemon.NewConfigWatcher(configPath, logger)
		if cwErr != nil {
			logger.Warn("failed to create config watcher, hot-reload disabled", "error", cwErr)
		} else {
			ctrl.SetReloadChannel(configWatcher.Reloads())
			if err := configWatcher.Start(ctx); err != nil {
				logger.Warn("failed to start config watcher, hot-reload disabled", "error", err)
			}
		}

		if err := modeWatcher.Start(ctx); err != nil {
			logger.Error("failed to start input-method watcher", "error", err)
			startupFailed.Store(true)
			app.Quit()
			return
		}

		go ctrl.Run(ctx)

		logger.Info("imeosd ready",
			"bus", watcher.BusName,
			"signal", watcher.SignalInterface+"."+watcher.SignalMember)

		// Hidden window keeps the application alive between cycles
		// (GTK apps quit when all windows are closed).
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		cancel()
		if configWatcher != nil {
			if err := configWatcher.Stop(); err != nil {
				logger.Warn("error stopping config watcher", "error", err)
			}
		}
		if modeWatcher != nil {
			if err := modeWatcher.Stop(); err != nil {
				logger.Warn("error stopping input-method watcher", "error", err)
			}
		}
		running.Store(false)
	})

	status := app.Run(os.Args[:1])

	if startupFailed.Load() {
		return fmt.Errorf("daemon failed to start")
	}
	if status != 0 {
		return fmt.Errorf("application exited with status %d", status)
	}

	logger.Info("imeosd stopped")
	return nil
}
