package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/soundrelay/soundrelay/internal/application/config"
	"github.com/soundrelay/soundrelay/internal/application/constant"
	"github.com/soundrelay/soundrelay/internal/application/metric"
	"github.com/soundrelay/soundrelay/internal/infra/adapters/catalog"
	"github.com/soundrelay/soundrelay/internal/infra/adapters/memory"
	"github.com/soundrelay/soundrelay/internal/infra/ports/http/handlers"
	"github.com/soundrelay/soundrelay/internal/infra/ports/http/server"
	"github.com/soundrelay/soundrelay/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Debug))

	registry := memory.NewRoomRegistry()
	wsConnRepo := memory.NewWSConnectionRepository()
	soundCatalog := catalog.New(cfg.SoundsDir)

	roomUsecase := usecase.NewRoomUsecase(registry, wsConnRepo)
	sweeper := usecase.NewSweeper(registry, cfg.SweepInterval, cfg.RoomIdleTTL)

	soundHandler := handlers.NewSoundHandler(soundCatalog)
	wsHandler := handlers.NewWebSocketHandler(cfg, roomUsecase, wsConnRepo)

	echoSrv := server.New(cfg, soundHandler, wsHandler)

	metricsSrv := metric.NewServer()

	go sweeper.Run(ctx)

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}
}

// newLogger returns JSON logs at Info level, or text logs at Debug
// level when DEBUG is set.
func newLogger(debug bool) *slog.Logger {
	if debug {
		return slog.New(
			slog.NewTextHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelDebug},
			),
		)
	}

	return slog.New(
		slog.NewJSONHandler(
			os.Stdout,
			&slog.HandlerOptions{Level: slog.LevelInfo},
		),
	)
}
