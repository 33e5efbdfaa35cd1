package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Blue-Cardigan/inside-parliament/internal/body"
	"github.com/Blue-Cardigan/inside-parliament/internal/config"
	"github.com/Blue-Cardigan/inside-parliament/internal/console"
	"github.com/Blue-Cardigan/inside-parliament/internal/event"
	"github.com/Blue-Cardigan/inside-parliament/internal/interact"
	"github.com/Blue-Cardigan/inside-parliament/internal/logger"
	"github.com/Blue-Cardigan/inside-parliament/internal/minimap"
	"github.com/Blue-Cardigan/inside-parliament/internal/movement"
	"github.com/Blue-Cardigan/inside-parliament/internal/physics"
	"github.com/Blue-Cardigan/inside-parliament/internal/scene"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
		slog.Warn("Config file not found, using defaults", "path", *configPath)
		cfg = config.Default()
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		slog.Error("Failed to init logger", "error", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus()
	provider := scene.NewProvider()
	loader := scene.NewLoader(cfg.Scene.Layout, cfg.Scene.Members, provider, bus)

	viewpoints, err := buildViewpoints(cfg.Viewpoints)
	if err != nil {
		slog.Error("Invalid viewpoints", "error", err)
		os.Exit(1)
	}
	params := physics.Params{
		Gravity:        cfg.Physics.Gravity,
		JumpHeight:     cfg.Physics.JumpHeight,
		Damping:        cfg.Physics.Damping,
		Acceleration:   cfg.Physics.Acceleration,
		Radius:         cfg.Physics.Radius,
		StandingHeight: cfg.Physics.StandingHeight,
	}
	spawn := mgl64.Vec3(cfg.Spawn.Position)
	self := body.New(spawn, cfg.Spawn.Yaw, params, provider)
	controller := movement.NewController(self, movement.NewOrbit(), viewpoints, provider, bus)
	mm := minimap.New(minimap.DefaultWidth, minimap.DefaultHeight)
	controller.AddConsumer(mm)

	con := console.NewConsole(controller, provider, interact.NewInspector(provider, bus), mm)
	con.SetTickRate(cfg.TickRate)
	defer con.Watch(bus)()

	// The walk starts on the bare floor and picks up the chamber once loaded.
	go func() {
		if _, err := loader.Load(ctx); err != nil {
			slog.Warn("Initial scene load failed", "error", err)
		}
		if !cfg.Scene.Watch {
			return
		}
		if err := loader.Watch(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Scene watcher stopped", "error", err)
		}
	}()

	slog.Info("Walkthrough starting", "config", *configPath, "tick_rate", cfg.TickRate)
	if err := con.Start(ctx); err != nil {
		slog.Error("Console stopped", "error", err)
		os.Exit(1)
	}
}

func buildViewpoints(cfgs []config.ViewpointConfig) (*movement.Viewpoints, error) {
	vps := make([]movement.Viewpoint, 0, len(cfgs))
	for _, vc := range cfgs {
		vps = append(vps, movement.Viewpoint{
			Name:     vc.Name,
			Position: mgl64.Vec3(vc.Position),
			Target:   mgl64.Vec3(vc.Target),
		})
	}
	return movement.NewViewpoints(vps...)
}
