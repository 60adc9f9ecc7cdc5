package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/antoniostano/roombridge/internal/archive"
	"github.com/antoniostano/roombridge/internal/broadcast"
	"github.com/antoniostano/roombridge/internal/config"
	"github.com/antoniostano/roombridge/internal/httpapi"
	"github.com/antoniostano/roombridge/internal/observability"
	"github.com/antoniostano/roombridge/internal/platform"
	"github.com/antoniostano/roombridge/internal/rooms"
	"github.com/antoniostano/roombridge/internal/sipbridge"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			log.Error().Msg("=========================================================================")
			log.Error().Msg("Missing Vonage Application ID and/or Vonage private key.")
			log.Error().Msg("Find them at https://dashboard.nexmo.com/applications and export them as")
			log.Error().Msg("API_APPLICATION_ID and PRIVATE_KEY (or base64 in PRIVATE_KEY64).")
			log.Error().Msg("=========================================================================")
		}
		log.Fatal().Err(err).Msg("config error")
	}

	vonage, err := platform.NewVonage(platform.VonageConfig{
		ApplicationID:           cfg.ApplicationID,
		PrivateKey:              cfg.PrivateKey,
		VideoAPIBaseURL:         cfg.VideoAPIBaseURL,
		ConversationsAPIBaseURL: cfg.ConversationsAPIBaseURL,
		ClientTokenTTL:          cfg.ClientTokenTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("platform client init failed")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	roomRegistry := rooms.NewRegistry()
	broadcastRegistry := broadcast.NewRegistry()
	sipRegistry := sipbridge.NewRegistry()

	roomCoordinator := rooms.NewCoordinator(cfg.ApplicationID, roomRegistry, vonage)
	broadcastCoordinator := broadcast.NewCoordinator(broadcastRegistry, vonage)
	archiveCoordinator := archive.NewCoordinator(roomRegistry, vonage)
	sipCoordinator := sipbridge.NewCoordinator(sipbridge.Config{
		ConferenceNumber: cfg.ConferenceNumber,
		BridgeURI:        cfg.SIPBridgeURI,
		BridgeUsername:   cfg.SIPBridgeUsername,
		BridgePassword:   cfg.SIPBridgePassword,
		Secure:           cfg.SIPBridgeSecure,
	}, roomRegistry, sipRegistry, vonage)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Supervise the broadcast coordinator's best-effort cleanup work.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-broadcastCoordinator.CleanupErrors():
				metrics.BroadcastCleanupFailures.Inc()
				log.Warn().Err(err).Msg("broadcast cleanup failure observed")
			}
		}
	}()

	server := httpapi.New(cfg, roomRegistry, roomCoordinator, broadcastCoordinator, archiveCoordinator, sipCoordinator, vonage, metrics)
	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: server.Router(),
	}

	go func() {
		log.Info().Str("addr", cfg.BindAddr).Msg("roombridge listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shut down")
	}
	log.Info().Msg("server exited")
}
