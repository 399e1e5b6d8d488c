package events

import (
	"context"
	"testing"

	"voice-dictation-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
		{"nil config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerPartial != nil {
				t.Error("expected nil partial writer when disabled")
			}
			if p.writerFinal != nil {
				t.Error("expected nil final writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	p := New(&Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicPartial: "test.partial",
		TopicFinal:   "test.final",
		Principal:    "test-principal",
	})

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicPartial != "test.partial" {
		t.Errorf("expected topic partial 'test.partial', got %s", p.topicPartial)
	}
	if p.topicFinal != "test.final" {
		t.Errorf("expected topic final 'test.final', got %s", p.topicFinal)
	}
}

func TestPublisher_PublishDisabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	partial := models.UtterancePartial{
		EventType: "dictation.utterance.partial",
		SessionID: "sess-123",
		Text:      "hello",
	}
	if err := p.PublishPartial(context.Background(), "sess-123", partial); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}

	final := models.UtteranceFinal{
		EventType: "dictation.utterance.final",
		SessionID: "sess-123",
		Text:      "hello world",
	}
	if err := p.PublishFinal(context.Background(), "sess-123", final); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishInvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels cannot be marshalled
	event := make(chan int)
	if err := p.PublishPartial(context.Background(), "k", event); err == nil {
		t.Error("expected error for unmarshalable partial event")
	}
	if err := p.PublishFinal(context.Background(), "k", event); err == nil {
		t.Error("expected error for unmarshalable final event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{}
	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
