// Package config loads service configuration from the environment, with an
// optional YAML file overlay.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration is the complete service configuration.
type Configuration struct {
	Service       ServiceConfig       `yaml:"service"`
	Backend       BackendConfig       `yaml:"backend"`
	Audio         AudioConfig         `yaml:"audio"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Principal string `yaml:"principal"`
	Env       string `yaml:"env"`
}

// BackendConfig selects and configures the transcription backend.
type BackendConfig struct {
	Provider     string `yaml:"provider"` // live, google, mock
	URL          string `yaml:"url"`
	APIKey       string `yaml:"api_key"`
	LanguageCode string `yaml:"language_code"`
}

// AudioConfig contains capture parameters.
type AudioConfig struct {
	SampleRateHz   int `yaml:"sample_rate_hz"`
	QuantumSamples int `yaml:"quantum_samples"`
	FrameBuffer    int `yaml:"frame_buffer"` // frames buffered between capture and send
}

// KafkaConfig configures the utterance event publisher.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	TopicPartial string   `yaml:"topic_partial"`
	TopicFinal   string   `yaml:"topic_final"`
}

// ObservabilityConfig contains logging and metrics configuration.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`
	StatusAddr  string `yaml:"status_addr"`
}

// Load builds the configuration from environment variables with defaults.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-voice-dictation"),
			Env:       envOrDefault("ENV", "prod"),
		},
		Backend: BackendConfig{
			Provider:     envOrDefault("DICTATION_PROVIDER", "live"),
			URL:          envOrDefault("DICTATION_BACKEND_URL", "ws://localhost:8090/v1/session"),
			APIKey:       os.Getenv("DICTATION_API_KEY"),
			LanguageCode: envOrDefault("DICTATION_LANGUAGE_CODE", "en-US"),
		},
		Audio: AudioConfig{
			SampleRateHz:   envInt("AUDIO_SAMPLE_RATE_HZ", 16000),
			QuantumSamples: envInt("AUDIO_QUANTUM_SAMPLES", 4096),
			FrameBuffer:    envInt("AUDIO_FRAME_BUFFER", 64),
		},
		Kafka: KafkaConfig{
			Enabled:      envBool("KAFKA_ENABLED", false),
			Brokers:      envList("KAFKA_BROKERS"),
			TopicPartial: envOrDefault("KAFKA_TOPIC_PARTIAL", "dictation.utterance.partial"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "dictation.utterance.final"),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
			StatusAddr:  envOrDefault("STATUS_ADDR", ":8080"),
		},
	}
}

// LoadFile layers a YAML file over the environment defaults and validates
// the result.
func LoadFile(path string) (*Configuration, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Configuration) Validate() error {
	switch c.Backend.Provider {
	case "live", "google", "mock":
	default:
		return fmt.Errorf("backend provider must be one of [live, google, mock], got %q", c.Backend.Provider)
	}

	if c.Backend.Provider == "live" && c.Backend.URL == "" {
		return fmt.Errorf("backend url cannot be empty for the live provider")
	}

	if c.Audio.SampleRateHz != 16000 {
		return fmt.Errorf("sample_rate_hz must be 16000 for the dictation wire format, got %d", c.Audio.SampleRateHz)
	}
	if c.Audio.QuantumSamples < 256 {
		return fmt.Errorf("quantum_samples must be at least 256, got %d", c.Audio.QuantumSamples)
	}
	if c.Audio.FrameBuffer < 1 {
		return fmt.Errorf("frame_buffer must be at least 1, got %d", c.Audio.FrameBuffer)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty when kafka is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Observability.LogLevel] {
		return fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Observability.LogLevel)
	}

	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
