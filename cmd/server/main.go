package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/adapters/booth"
	router "github.com/dmaret/interp/internal/adapters/http"
	"github.com/dmaret/interp/internal/adapters/rpc"
	"github.com/dmaret/interp/internal/app"
	"github.com/dmaret/interp/internal/config"
	"github.com/dmaret/interp/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	dir := app.NewDirectory()
	notifier := rpc.NewNotifier()
	bcast := app.NewBroadcaster(dir, notifier)
	engine := app.NewEngine(dir, notifier, bcast)

	for _, bc := range cfg.Booths {
		name := bc.Name
		if name == "" {
			name = fmt.Sprintf("booth-%d", bc.ID)
		}
		bcast.Attach(domain.BoothID(bc.ID), booth.NewSim(name, cfg.DialProgress))
	}

	go bcast.Run(ctx)

	ctl := rpc.NewController(engine, notifier)
	r := router.SetupRouter(ctx, cfg, ctl, engine)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Int("booths", len(cfg.Booths)).Msg("Interp server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
