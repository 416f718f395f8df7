package config

import (
	"io"
	"log/slog"
	"testing"

	"github.com/memorylane/recall-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("TTS_RATE_PER_MINUTE", "not-a-number")
	t.Setenv("APP_ORIGIN", "https://recall.example.org/")
	t.Setenv("EVENTS_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://recall.example.org", cfg.AppOrigin)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 30, cfg.Speech.RatePerMinute)
	assert.False(t, cfg.Events.Enabled)
	assert.Empty(t, cfg.Gemini.APIKey)
}

func TestSpeechConfig_Configured(t *testing.T) {
	assert.False(t, SpeechConfig{APIKey: "k"}.Configured())
	assert.True(t, SpeechConfig{APIKey: "k", VoiceID: "v"}.Configured())
}

func TestEventConfig_CreateEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := EventConfig{Enabled: true, Publisher: "mock"}
	publisher, err := cfg.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)

	cfg = EventConfig{Enabled: true, Publisher: "carrier-pigeon"}
	publisher, err = cfg.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)

	cfg = EventConfig{KafkaBrokers: "a:9092, b:9092"}
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.GetKafkaBrokers())
}
