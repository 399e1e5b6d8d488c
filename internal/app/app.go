package app

import (
	"strings"
	"time"

	"voice-dictation-service/internal/config"
	"voice-dictation-service/internal/observability/logging"

	"github.com/rs/zerolog"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration) *Application {
	a := &Application{
		Cfg: cfg,
	}
	a.setupLogger()

	a.Logger.Info().Msg("Voice dictation application created")
	return a
}

// setupLogger configures the global zerolog logger for the service.
func (a *Application) setupLogger() {
	format := strings.ToLower(a.Cfg.Observability.LogFormat)
	if a.Cfg.Service.Env == "dev" {
		format = "console"
	}

	logging.Init(logging.Config{
		Level:      strings.ToLower(a.Cfg.Observability.LogLevel),
		Format:     format,
		TimeFormat: time.RFC3339,
	})

	a.Logger = logging.Logger().With().
		Str("service", "voice-dictation-service").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Env).
		Msg("Logger setup completed")
}

// Start performs any startup work required before the session can run.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Str("provider", a.Cfg.Backend.Provider).
		Msg("Voice dictation service starting")

	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("Voice dictation service shutting down")
}
