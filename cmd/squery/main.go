// main is the entry point of the squery application.
// It runs one-shot A2S queries or the monitoring service with its HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/squery/internal/config"
	"github.com/woozymasta/squery/internal/fake"
	"github.com/woozymasta/squery/internal/game"
	"github.com/woozymasta/squery/internal/geoip"
	"github.com/woozymasta/squery/internal/logger"
	"github.com/woozymasta/squery/internal/maintenance"
	"github.com/woozymasta/squery/internal/monitor"
	"github.com/woozymasta/squery/internal/publish"
	"github.com/woozymasta/squery/internal/render"
	"github.com/woozymasta/squery/internal/server"
	"github.com/woozymasta/squery/internal/storage"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Args.Command {
	case config.CommandPlayers:
		os.Exit(runPlayers(ctx, cfg))
	case config.CommandInfo:
		os.Exit(runInfo(cfg))
	case config.CommandServe:
		serve(ctx, stop, cfg)
	}
}

// runPlayers prints the player list of one server.
func runPlayers(ctx context.Context, cfg *config.Config) int {
	players, err := game.QueryPlayers(ctx, cfg.Args.Address, cfg.A2S)
	if err != nil {
		log.Error().Err(err).Str("address", cfg.Args.Address).Msg("Player query failed")
		return 1
	}

	if cfg.JSON {
		if err := render.JSON(os.Stdout, players); err != nil {
			log.Error().Err(err).Msg("Failed to write output")
			return 1
		}
		return 0
	}

	render.Players(os.Stdout, players)
	return 0
}

// runInfo prints the A2S_INFO answer of one server.
func runInfo(cfg *config.Config) int {
	info, err := game.QueryInfo(cfg.Args.Address, cfg.A2S)
	if err != nil {
		log.Error().Err(err).Str("address", cfg.Args.Address).Msg("Info query failed")
		return 1
	}

	if cfg.JSON {
		if err := render.JSON(os.Stdout, info); err != nil {
			log.Error().Err(err).Msg("Failed to write output")
			return 1
		}
		return 0
	}

	render.Info(os.Stdout, info)
	return 0
}

// serve runs the monitor and the HTTP API until a shutdown signal.
// stop cancels ctx when the listener fails.
func serve(ctx context.Context, stop context.CancelFunc, cfg *config.Config) {
	log.Info().Msg("Starting squery service...")

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, store) {
		return
	}

	// GeoIP Update
	log.Info().Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(ctx, cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	geoProvider, err := geoip.Open(cfg.GeoIP.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		geoProvider = nil
	}
	defer func() {
		if err := geoProvider.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing GeoIP provider")
		}
	}()

	// Monitor
	mon, err := monitor.New(cfg, store, geoProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize monitor")
	}

	publisher, err := publish.NewMQTT(cfg.MQTT)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MQTT publisher")
	}
	if publisher != nil {
		if err := publisher.Connect(); err != nil {
			if errors.Is(err, publish.ErrConnectPending) {
				log.Warn().Err(err).Str("broker", cfg.MQTT.Broker).Msg("MQTT broker unreachable, retrying in background")
			} else {
				log.Error().Err(err).Str("broker", cfg.MQTT.Broker).Msg("MQTT connect failed, snapshots will not be published")
			}
		}
		mon.SetPublisher(publisher)
		defer publisher.Close()
	}

	monDone := make(chan struct{})
	go func() {
		defer close(monDone)
		mon.Run(ctx)
	}()

	// HTTP API
	srvHandler := server.New(store, cfg)
	defer srvHandler.Close()

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srvHandler.Run(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.A2S.SendTimeout + cfg.A2S.RecvTimeout*time.Duration(cfg.A2S.MaxChallenges+2) + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Wait for the polling round in flight
	<-monDone

	log.Info().Msg("Server exited")
}
