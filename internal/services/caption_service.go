package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
)

const (
	maxPolishedCaptionWords = 22
	maxTags                 = 8
	genericCaption          = "A special memory."
)

type CaptionService interface {
	// EnsureCaption returns the stored caption or builds, polishes and stores one
	EnsureCaption(ctx context.Context, memory *models.Memory) string
	CaptionMemory(ctx context.Context, caller *models.Identity, req *CaptionRequest) (*CaptionResponse, error)
	RecallPrompts(ctx context.Context, req *PromptsRequest) (*PromptsResponse, error)
}

type CaptionRequest struct {
	MemoryID string `json:"memoryId"`
	ImageURL string `json:"imageUrl"`
}

type CaptionResponse struct {
	OK      bool     `json:"ok"`
	Caption string   `json:"caption"`
	Tags    []string `json:"tags"`
}

type PromptsRequest struct {
	Caption string   `json:"caption"`
	Tags    []string `json:"tags"`
}

type PromptsResponse struct {
	Prompts []string `json:"prompts"`
}

type captionService struct {
	repo   repositories.Repository
	model  GenerativeModel
	logger *slog.Logger
}

func NewCaptionService(repo repositories.Repository, model GenerativeModel, logger *slog.Logger) CaptionService {
	return &captionService{
		repo:   repo,
		model:  model,
		logger: logger,
	}
}

// ComposeCaption builds the deterministic caption: "<title> - with P at E in P",
// falling back to the title, then the clauses, then a generic sentence.
func ComposeCaption(m *models.Memory) string {
	var bits []string
	if v := deref(m.PersonName); v != "" {
		bits = append(bits, "with "+v)
	}
	if v := deref(m.EventName); v != "" {
		bits = append(bits, "at "+v)
	}
	if v := deref(m.PlaceName); v != "" {
		bits = append(bits, "in "+v)
	}
	clause := strings.Join(bits, " ")
	title := strings.TrimSpace(m.Title)

	switch {
	case title != "" && clause != "":
		return title + " - " + clause
	case title != "":
		return title
	case clause != "":
		return clause
	default:
		return genericCaption
	}
}

func (s *captionService) EnsureCaption(ctx context.Context, memory *models.Memory) string {
	if stored := deref(memory.CaptionAI); stored != "" {
		return stored
	}

	caption := s.polishCaption(ctx, memory, ComposeCaption(memory))
	if err := s.repo.Memory().UpdateFields(ctx, nil, memory.ID, map[string]interface{}{"caption_ai": caption}); err != nil {
		s.logger.Warn("Failed to store caption", "memory_id", memory.ID, "error", err)
	} else {
		memory.CaptionAI = &caption
	}
	return caption
}

const polishInstruction = `You help with dementia memory reinforcement.
Rewrite the caption to be warm, short (<= 20 words), and patient-friendly.
STRICT:
- Use ONLY these details (title, person, event, place). Do NOT add new facts.
- Keep names/places exactly as given.
Return ONLY the caption text.`

// polishCaption keeps the draft whenever the model fails or drifts out of bounds.
func (s *captionService) polishCaption(ctx context.Context, m *models.Memory, draft string) string {
	if !s.model.Ready() {
		return draft
	}

	prompt := fmt.Sprintf("title: %s\nperson: %s\nevent: %s\nplace: %s\ndraft_caption: %s",
		m.Title, deref(m.PersonName), deref(m.EventName), deref(m.PlaceName), draft)

	out, err := s.model.Generate(ctx, prompt, nil, GenerateOptions{
		Temperature:       0.2,
		MaxOutputTokens:   120,
		SystemInstruction: polishInstruction,
	})
	if err != nil {
		s.logger.Debug("Caption polish failed, keeping draft", "memory_id", m.ID, "error", err)
		return draft
	}
	return acceptPolished(out, draft)
}

func acceptPolished(out, draft string) string {
	out = strings.TrimSpace(out)
	if out == "" || strings.ContainsAny(out, "{[") || strings.Contains(out, "```") {
		return draft
	}
	if len(strings.Fields(out)) > maxPolishedCaptionWords {
		return draft
	}
	return out
}

const visionCaptionPrompt = `Return two lines:
1) A short factual caption (<=18 words).
2) 5-8 lowercase tags (comma separated, no '#'). Avoid guessing identities.`

func (s *captionService) CaptionMemory(ctx context.Context, caller *models.Identity, req *CaptionRequest) (*CaptionResponse, error) {
	memoryID := strings.TrimSpace(req.MemoryID)
	if memoryID == "" || strings.TrimSpace(req.ImageURL) == "" {
		return nil, ErrCaptionInputRequired
	}

	s.logger.Info("Captioning memory", "memory_id", memoryID, "user_sub", caller.Sub)

	memory, err := s.repo.Memory().GetByID(ctx, nil, memoryID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMemoryNotFound
		}
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	if memory.CaregiverSub != caller.Sub {
		return nil, ErrMemoryNotFound
	}

	// remote URLs are never fetched; the stored payload is used instead
	image, err := ParseDataURL(req.ImageURL)
	if err != nil {
		image, err = ParseDataURL(memory.ImageURL)
	}
	if err != nil {
		image = nil
	}

	caption, tags := s.describeImage(ctx, image)
	if caption == "" {
		caption = ComposeCaption(memory)
	}
	if len(tags) == 0 {
		tags = fieldTags(memory)
	}

	fields := map[string]interface{}{
		"caption_ai": caption,
		"tags_ai":    tagsColumn(tags),
	}
	if s.model.Ready() {
		if embedding, err := s.model.Embed(ctx, caption); err == nil {
			fields["embedding"] = embeddingColumn(embedding)
		} else {
			s.logger.Debug("Embedding skipped", "memory_id", memoryID, "error", err)
		}
	}

	if err := s.repo.Memory().UpdateFields(ctx, nil, memoryID, fields); err != nil {
		return nil, fmt.Errorf("failed to save caption: %w", err)
	}

	return &CaptionResponse{OK: true, Caption: caption, Tags: tags}, nil
}

func (s *captionService) describeImage(ctx context.Context, image *ImageInput) (string, []string) {
	if image == nil || !s.model.Ready() {
		return "", nil
	}
	out, err := s.model.Generate(ctx, visionCaptionPrompt, image, GenerateOptions{})
	if err != nil {
		s.logger.Warn("Vision caption failed, using field caption", "error", err)
		return "", nil
	}
	return ParseCaptionLines(out)
}

var (
	bulletPrefix = regexp.MustCompile(`^\s*(?:[-•*]|\d+[.)])\s*`)
	labelPrefix  = regexp.MustCompile(`(?i)^(?:caption|tags)\s*:\s*`)
)

// ParseCaptionLines splits the two-line vision answer into a caption and normalized tags.
func ParseCaptionLines(out string) (string, []string) {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = bulletPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(labelPrefix.ReplaceAllString(line, ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", nil
	}

	caption := lines[0]
	if len(lines) < 2 {
		return caption, nil
	}
	return caption, NormalizeTags(strings.Split(lines[1], ","))
}

// NormalizeTags lowercases, strips '#', drops duplicates and caps the list.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#")))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

func fieldTags(m *models.Memory) []string {
	return NormalizeTags([]string{
		deref(m.PersonName),
		deref(m.EventName),
		deref(m.PlaceName),
		deref(m.DateLabel),
		m.Title,
	})
}

const recallPersona = `Tone: warm, gentle, encouraging. Avoid "test" language. Offer 1 hint on request.`

func (s *captionService) RecallPrompts(ctx context.Context, req *PromptsRequest) (*PromptsResponse, error) {
	caption := strings.TrimSpace(req.Caption)
	fallback := fallbackRecallPrompts(caption)
	if !s.model.Ready() {
		return &PromptsResponse{Prompts: fallback}, nil
	}

	captionLine := caption
	if captionLine == "" {
		captionLine = "(none)"
	}
	prompt := fmt.Sprintf(`%s
Create 3 short recall prompts for a patient to remember this memory.
Memory:
- caption: %s
- tags: %s

Rules:
- each prompt <= 18 words
- avoid leading questions about identity; start with setting/emotion/sensation
- simple vocabulary, friendly
Return as JSON: { "prompts": ["...", "...", "..."] }`, recallPersona, captionLine, strings.Join(req.Tags, ", "))

	out, err := s.model.Generate(ctx, prompt, nil, GenerateOptions{Temperature: 0.4, JSON: true})
	if err != nil {
		s.logger.Warn("Recall prompt generation failed", "error", err)
		return &PromptsResponse{Prompts: fallback}, nil
	}

	var parsed PromptsResponse
	if err := json.Unmarshal([]byte(StripCodeFence(out)), &parsed); err != nil {
		s.logger.Warn("Recall prompts were not valid JSON", "output", SanitizeForLogging(out))
		return &PromptsResponse{Prompts: fallback}, nil
	}

	var prompts []string
	for _, p := range parsed.Prompts {
		if p = strings.TrimSpace(p); p != "" {
			prompts = append(prompts, p)
		}
	}
	if len(prompts) == 0 {
		return &PromptsResponse{Prompts: fallback}, nil
	}
	if len(prompts) > 3 {
		prompts = prompts[:3]
	}
	return &PromptsResponse{Prompts: prompts}, nil
}

func fallbackRecallPrompts(caption string) []string {
	about := "this moment"
	if caption != "" {
		about = strings.TrimSuffix(caption, ".")
	}
	return []string{
		fmt.Sprintf("Take a breath and picture %s.", about),
		"What sounds or smells come to mind from that day?",
		"How did you feel when this happened?",
	}
}
