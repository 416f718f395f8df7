package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/memorylane/recall-service/internal/config"
	"google.golang.org/api/option"
)

type GenerateOptions struct {
	Temperature       float32
	MaxOutputTokens   int32
	JSON              bool
	SystemInstruction string
}

// GenerativeModel is the text/vision model used for captions, questions and prompts.
type GenerativeModel interface {
	// Ready is false when no API key was configured
	Ready() bool
	Generate(ctx context.Context, prompt string, image *ImageInput, opts GenerateOptions) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiModel is created once per process and shared by all requests.
type GeminiModel struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
	logger         *slog.Logger
}

func NewGeminiModel(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (*GeminiModel, error) {
	g := &GeminiModel{
		modelName:      cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		logger:         logger,
	}
	if cfg.APIKey == "" {
		logger.Warn("GOOGLE_API_KEY is not set, generative features are disabled")
		return g, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiModel) Ready() bool {
	return g.client != nil
}

func (g *GeminiModel) Generate(ctx context.Context, prompt string, image *ImageInput, opts GenerateOptions) (string, error) {
	if g.client == nil {
		return "", ErrModelNotConfigured
	}

	model := g.client.GenerativeModel(g.modelName)
	if opts.Temperature > 0 {
		model.SetTemperature(opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if opts.SystemInstruction != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(opts.SystemInstruction))
	}

	var parts []genai.Part
	if image != nil {
		parts = append(parts, genai.Blob{MIMEType: image.MIMEType, Data: image.Data})
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", newUpstreamError("Gemini", 0, err)
	}

	text := responseText(resp)
	if text == "" {
		g.logger.Warn("Gemini response was empty", "model", g.modelName)
		return "", ErrInvalidModelResponse
	}
	return text, nil
}

func (g *GeminiModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.client == nil {
		return nil, ErrModelNotConfigured
	}

	res, err := g.client.EmbeddingModel(g.embeddingModel).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, newUpstreamError("Gemini", 0, err)
	}
	if res == nil || res.Embedding == nil {
		return nil, ErrInvalidModelResponse
	}
	return res.Embedding.Values, nil
}

func (g *GeminiModel) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
