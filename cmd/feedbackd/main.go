// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PhoshMobi/feedbackd/internal/bus"
	"github.com/PhoshMobi/feedbackd/internal/config"
	"github.com/PhoshMobi/feedbackd/internal/device"
	xglog "github.com/PhoshMobi/feedbackd/internal/log"
	"github.com/PhoshMobi/feedbackd/internal/model"
	"github.com/PhoshMobi/feedbackd/internal/orchestrator"
	"github.com/PhoshMobi/feedbackd/internal/sessionbus"
	"github.com/PhoshMobi/feedbackd/internal/theme"
)

var (
	version = "v0.1.0"
	commit  = "none"
)

var (
	logLevel      string
	settingsPath  string
	hapticDevice  string
)

func main() {
	root := &cobra.Command{
		Use:     "feedbackd",
		Short:   "User-session feedback daemon (LED, haptic, sound)",
		Version: fmt.Sprintf("%s (commit %s)", version, commit),
		RunE:    runDaemon,
	}
	root.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.Flags().StringVar(&settingsPath, "settings", "", "path to settings.yaml (default: XDG config dir)")
	root.Flags().StringVar(&hapticDevice, "haptic-device", "", "override /dev/input force-feedback node")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	xglog.Configure(xglog.Config{Level: logLevel, Service: "feedbackd", Version: version})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := settingsPath
	if path == "" {
		path = config.DefaultSettingsPath()
	}
	mgr := config.NewManager(path)
	settings, err := mgr.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load settings")
	}

	loader := theme.NewLoaderFromEnv(nil)
	factory := device.RealFactory{HapticDevicePath: hapticDevice}

	orch := orchestrator.New(factory, bus.NewMemoryBus(), loader)
	for appID, level := range settings.PerApp {
		orch.SetPerAppOverride(appID, level)
	}
	if err := orch.SetProfile(settings.ActiveLevel); err != nil {
		logger.Warn().Err(err).Msg("stored active profile invalid, keeping default")
	}

	if err := orch.Init(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize devices/theme")
	}

	svc, err := sessionbus.Connect(orch, hapticBackendFor(orch))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to publish session bus interfaces")
	}
	defer func() { _ = svc.Close() }()

	orch.OnFeedbackEnded = svc.EmitFeedbackEnded
	orch.OnProfileChanged = func(level model.ProfileLevel) {
		svc.NotifyProfileChanged(level)
		settings.ActiveLevel = level
		if err := mgr.Save(settings); err != nil {
			logger.Warn().Err(err).Msg("failed to persist settings")
		}
	}

	go func() {
		if err := svc.WatchDisconnects(ctx, orch.NotifyClientGone); err != nil && ctx.Err() == nil {
			logger.Warn().Err(err).Msg("disconnect watcher stopped")
		}
	}()

	if tw, err := config.NewThemeWatcher(loader.ThemeDirs(), orch.Reload); err != nil {
		logger.Warn().Err(err).Msg("theme directory watcher unavailable, relying on SIGHUP only")
	} else {
		go tw.Run(ctx)
	}

	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sighup:
				logger.Info().Msg("reloading theme")
				orch.Reload()
			}
		}
	}()

	logger.Info().Str("version", version).Msg("feedbackd ready")

	err = orch.Loop(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("orchestrator loop: %w", err)
	}

	logger.Info().Msg("feedbackd exiting")
	return nil
}

func hapticBackendFor(orch *orchestrator.Orchestrator) sessionbus.HapticBackend {
	if !orch.HasHapticDevice() {
		return nil
	}
	return orch
}
