package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"github.com/memorylane/recall-service/internal/validator"
)

const (
	MaxUploadBytes     = 10 << 20
	defaultMemoryTitle = "Memory"
	defaultMemoryLimit = 100
)

type MemoryService interface {
	Upload(ctx context.Context, caregiverSub string, req *UploadMemoryRequest) (*models.Memory, error)
	Get(ctx context.Context, caregiverSub, memoryID string) (*models.Memory, error)
	List(ctx context.Context, caregiverSub, patientID string) ([]*models.Memory, error)
	// Patch applies allow-listed fields only; unknown keys are ignored.
	Patch(ctx context.Context, caregiverSub, memoryID string, patch map[string]json.RawMessage) (*models.Memory, error)
}

// UploadMemoryRequest carries the multipart form after the handler has read the file.
type UploadMemoryRequest struct {
	PatientID   string
	Title       string
	PersonName  string
	EventName   string
	PlaceName   string
	DateLabel   string
	ContentType string
	Image       []byte
}

type memoryService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewMemoryService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) MemoryService {
	return &memoryService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *memoryService) Upload(ctx context.Context, caregiverSub string, req *UploadMemoryRequest) (*models.Memory, error) {
	if len(req.Image) == 0 {
		return nil, ErrNoFileUploaded
	}
	if len(req.Image) > MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	patientID := strings.TrimSpace(req.PatientID)
	if patientID == "" {
		return nil, ErrUploadPatientRequired
	}

	if err := s.checkPatientOwner(ctx, caregiverSub, patientID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultMemoryTitle
	}

	memory := &models.Memory{
		ID:           uuid.NewString(),
		CaregiverSub: caregiverSub,
		PatientID:    patientID,
		Title:        title,
		ImageURL:     EncodeDataURL(req.ContentType, req.Image),
		PersonName:   optionalString(req.PersonName),
		EventName:    optionalString(req.EventName),
		PlaceName:    optionalString(req.PlaceName),
		DateLabel:    optionalString(req.DateLabel),
	}
	if err := s.validator.Validate(memory); err != nil {
		return nil, err
	}
	if err := s.repo.Memory().Create(ctx, nil, memory); err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	s.logger.Info("Memory uploaded",
		"memory_id", memory.ID,
		"patient_id", patientID,
		"caregiver_sub", caregiverSub,
		"bytes", len(req.Image))

	return memory, nil
}

func (s *memoryService) checkPatientOwner(ctx context.Context, caregiverSub, patientID string) error {
	patient, err := s.repo.Patient().GetByID(ctx, nil, patientID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("failed to get patient: %w", err)
	}
	if patient.CaregiverSub != caregiverSub {
		return ErrPatientNotFound
	}
	return nil
}

func (s *memoryService) Get(ctx context.Context, caregiverSub, memoryID string) (*models.Memory, error) {
	memory, err := s.repo.Memory().GetByID(ctx, nil, strings.TrimSpace(memoryID))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMemoryNotFound
		}
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	if memory.CaregiverSub != caregiverSub {
		return nil, ErrMemoryNotFound
	}
	return memory, nil
}

func (s *memoryService) List(ctx context.Context, caregiverSub, patientID string) ([]*models.Memory, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, ErrPatientIDRequired
	}
	if err := s.checkPatientOwner(ctx, caregiverSub, patientID); err != nil {
		return nil, err
	}

	memories, err := s.repo.Memory().List(ctx, nil, repositories.MemoryFilters{
		CaregiverSub: caregiverSub,
		PatientID:    patientID,
		Limit:        defaultMemoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	return memories, nil
}

func (s *memoryService) Patch(ctx context.Context, caregiverSub, memoryID string, patch map[string]json.RawMessage) (*models.Memory, error) {
	memory, err := s.Get(ctx, caregiverSub, memoryID)
	if err != nil {
		return nil, err
	}

	updates, err := BuildMemoryUpdates(patch)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return memory, nil
	}

	if err := s.repo.Memory().UpdateFields(ctx, nil, memory.ID, updates); err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}

	s.logger.Info("Memory updated", "memory_id", memory.ID, "fields", len(updates))

	return s.Get(ctx, caregiverSub, memory.ID)
}

// BuildMemoryUpdates turns a JSON patch into column updates.
// null clears a field (title cannot be cleared), strings are trimmed,
// an empty title is ignored and other empty strings clear the field.
// tagsAI accepts an array or a comma separated string.
func BuildMemoryUpdates(patch map[string]json.RawMessage) (map[string]interface{}, error) {
	updates := make(map[string]interface{})
	for field, raw := range patch {
		column, ok := models.MemoryPatchableFields[field]
		if !ok {
			continue
		}

		if isJSONNull(raw) {
			if field == "title" {
				continue
			}
			updates[column] = nil
			continue
		}

		if field == "tagsAI" {
			tags, err := decodeTags(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: tagsAI must be an array or a string", ErrBadRequest)
			}
			updates[column] = tagsColumn(tags)
			continue
		}

		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("%w: %s must be a string", ErrBadRequest, field)
		}
		value = strings.TrimSpace(value)
		switch {
		case value != "":
			updates[column] = value
		case field == "title":
		default:
			updates[column] = nil
		}
	}
	return updates, nil
}

func decodeTags(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanTags(list), nil
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err != nil {
		return nil, err
	}
	return cleanTags(strings.Split(joined, ",")), nil
}

func cleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}
