package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"voice-dictation-service/internal/app"
	"voice-dictation-service/internal/audio"
	"voice-dictation-service/internal/config"
	"voice-dictation-service/internal/dictation"
	"voice-dictation-service/internal/events"
	httpapi "voice-dictation-service/internal/http"
	"voice-dictation-service/internal/models"
	"voice-dictation-service/internal/observability"
	"voice-dictation-service/internal/observability/logging"
	"voice-dictation-service/internal/transport"
	"voice-dictation-service/internal/transport/google"
	"voice-dictation-service/internal/transport/live"
	"voice-dictation-service/internal/transport/mock"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	var cfg *config.Configuration
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Application start failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka publisher with separate topics for partial and final utterances
	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicPartial: cfg.Kafka.TopicPartial,
		TopicFinal:   cfg.Kafka.TopicFinal,
		Principal:    cfg.Service.Principal,
	})
	defer publisher.Close()

	tr, err := newTransport(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Backend.Provider).Msg("Transport setup failed")
	}

	capture := audio.NewGraph(cfg.Audio.SampleRateHz, cfg.Audio.QuantumSamples, cfg.Audio.FrameBuffer)

	ctrl := dictation.New(dictation.Options{
		Capture:   capture,
		Transport: tr,
		Config: transport.Config{
			URL:           cfg.Backend.URL,
			APIKey:        cfg.Backend.APIKey,
			LanguageCode:  cfg.Backend.LanguageCode,
			SampleRateHz:  cfg.Audio.SampleRateHz,
			Transcription: true,
		},
	})

	metricsServer := observability.NewServer(cfg.Observability.MetricsAddr)
	metricsServer.Start()

	statusServer := &http.Server{
		Addr:         cfg.Observability.StatusAddr,
		Handler:      httpapi.NewRouter(application, ctrl),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		statusLog := logging.WithComponent("status-server")
		statusLog.Info().Str("addr", cfg.Observability.StatusAddr).Msg("Starting status HTTP server")
		if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			statusLog.Error().Err(err).Msg("Status HTTP server error")
		}
	}()

	if err := ctrl.Start(ctx, onResult(ctx, ctrl, publisher)); err != nil {
		log.Fatal().Err(err).Msg("Dictation start failed")
	}
	runLog := logging.WithProvider(ctrl.SessionID(), cfg.Backend.Provider)
	runLog.Info().Msg("Dictation running, speak into the microphone (Ctrl+C to stop)")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Signal received, stopping dictation")
	if err := ctrl.Stop(); err != nil {
		log.Error().Err(err).Msg("Stop failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Status server shutdown failed")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
	application.Shutdown()
}

// newTransport selects the session transport for the configured provider.
func newTransport(ctx context.Context, cfg *config.Configuration) (transport.Transport, error) {
	switch cfg.Backend.Provider {
	case "live":
		return live.New(), nil
	case "google":
		return google.New(ctx)
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Backend.Provider)
	}
}

// onResult prints the running transcript to stdout and fans utterance events
// out to Kafka. Partials overwrite the current line; finals commit it.
func onResult(ctx context.Context, ctrl *dictation.Controller, publisher *events.Publisher) dictation.ResultFunc {
	var turnStart time.Time

	return func(r dictation.Result) {
		if r.Err != nil {
			log.Error().Err(r.Err).Msg("Dictation session failed")
			return
		}

		now := time.Now()
		if turnStart.IsZero() {
			turnStart = now
		}
		sessionID := ctrl.SessionID()

		if r.IsFinal {
			fmt.Printf("\r%s\n", r.Text)
			err := publisher.PublishFinal(ctx, sessionID, models.UtteranceFinal{
				EventType:  "utterance.final",
				SessionID:  sessionID,
				Timestamp:  now.UnixMilli(),
				Text:       r.Text,
				DurationMs: now.Sub(turnStart).Milliseconds(),
			})
			if err != nil {
				log.Warn().Err(err).Msg("Final event publish failed")
			}
			turnStart = time.Time{}
			return
		}

		fmt.Printf("\r%s", r.Text)
		err := publisher.PublishPartial(ctx, sessionID, models.UtterancePartial{
			EventType: "utterance.partial",
			SessionID: sessionID,
			Timestamp: now.UnixMilli(),
			Text:      r.Text,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Partial event publish failed")
		}
	}
}
