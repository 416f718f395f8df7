package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/memorylane/recall-service/internal/config"
)

const (
	defaultSpeechModel  = "eleven_turbo_v2"
	defaultSpeechFormat = "mp3_44100"
	defaultSpeechSpeed  = 0.9
	minSpeechSpeed      = 0.7
	maxSpeechSpeed      = 1.2
)

// SpeechRequest mirrors the public /api/tts body. The voice is fixed server side.
type SpeechRequest struct {
	Text            string   `json:"text"`
	Model           string   `json:"model"`
	Format          string   `json:"format"`
	Speed           *float64 `json:"speed"`
	Stability       *float64 `json:"stability"`
	SimilarityBoost *float64 `json:"similarity_boost"`
	Style           *float64 `json:"style"`
	UseSpeakerBoost *bool    `json:"use_speaker_boost"`
}

// SpeechStream is upstream audio; the caller must close Body.
type SpeechStream struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

type SpeechService interface {
	Configured() bool
	Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechStream, error)
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsPayload struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	OutputFormat  string        `json:"output_format"`
	Speed         float64       `json:"speed"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type elevenLabsService struct {
	cfg    config.SpeechConfig
	client *http.Client
	logger *slog.Logger
}

func NewSpeechService(cfg config.SpeechConfig, logger *slog.Logger) SpeechService {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &elevenLabsService{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (s *elevenLabsService) Configured() bool {
	return s.cfg.Configured()
}

func (s *elevenLabsService) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechStream, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrSpeechTextRequired
	}
	if !s.Configured() {
		return nil, ErrSpeechNotConfigured
	}

	payload := BuildSpeechPayload(req)
	payload.Text = text
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode speech request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", s.cfg.BaseURL, url.PathEscape(s.cfg.VoiceID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build speech request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", s.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		s.logger.Error("ElevenLabs request failed", "error", err)
		return nil, newUpstreamError("ElevenLabs", 0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.Body == nil {
		detail := ""
		if resp.Body != nil {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			detail = string(b)
		}
		s.logger.Error("ElevenLabs returned an error",
			"status", resp.StatusCode,
			"detail", SanitizeForLogging(detail))
		upstream := newUpstreamError("ElevenLabs", resp.StatusCode, nil)
		upstream.Detail = strings.TrimSpace(detail)
		return nil, upstream
	}

	s.logger.Debug("Streaming synthesized speech",
		"model", payload.ModelID,
		"chars", len(text),
		"speed", payload.Speed)

	return &SpeechStream{
		Body:          resp.Body,
		ContentType:   "audio/mpeg",
		ContentLength: resp.ContentLength,
	}, nil
}

// BuildSpeechPayload applies defaults and clamps the speaking rate.
func BuildSpeechPayload(req *SpeechRequest) elevenLabsPayload {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = defaultSpeechModel
	}

	speed := defaultSpeechSpeed
	if req.Speed != nil {
		speed = min(max(*req.Speed, minSpeechSpeed), maxSpeechSpeed)
	}

	format := strings.TrimSpace(req.Format)
	if format == "" {
		format = defaultSpeechFormat
	}

	settings := voiceSettings{
		Stability:       0.75,
		SimilarityBoost: 0.7,
		Style:           0.1,
		UseSpeakerBoost: true,
	}
	if req.Stability != nil {
		settings.Stability = *req.Stability
	}
	if req.SimilarityBoost != nil {
		settings.SimilarityBoost = *req.SimilarityBoost
	}
	if req.Style != nil {
		settings.Style = *req.Style
	}
	if req.UseSpeakerBoost != nil {
		settings.UseSpeakerBoost = *req.UseSpeakerBoost
	}

	return elevenLabsPayload{
		Text:          req.Text,
		ModelID:       model,
		OutputFormat:  format,
		Speed:         speed,
		VoiceSettings: settings,
	}
}
