package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/memorylane/recall-service/internal/cache"
	"github.com/memorylane/recall-service/internal/events"
	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"github.com/memorylane/recall-service/internal/validator"
	"gorm.io/gorm"
)

const (
	inviteTTL        = 24 * time.Hour
	inviteTokenBytes = 16
)

type PatientService interface {
	Create(ctx context.Context, caregiverSub string, req *CreatePatientRequest) (*CreatePatientResponse, error)
	List(ctx context.Context, caregiverSub string) ([]PatientSummary, error)
	// Me returns the patient record linked to the calling patient account
	Me(ctx context.Context, patientSub string) (*models.Patient, error)
	GetOwned(ctx context.Context, caregiverSub, patientID string) (*models.Patient, error)
	AcceptInvite(ctx context.Context, caller *models.Identity, token string) (*models.Patient, error)
}

type CreatePatientRequest struct {
	DisplayName string `json:"displayName"`
}

type PatientSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type CreatePatientResponse struct {
	Patient   PatientSummary `json:"patient"`
	SignupURL string         `json:"signupUrl"`
	Token     string         `json:"token"`
}

type patientService struct {
	repo      repositories.Repository
	invites   cache.InviteStore
	identity  IdentityService
	publisher events.EventPublisher
	appOrigin string
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewPatientService(
	repo repositories.Repository,
	invites cache.InviteStore,
	identity IdentityService,
	publisher events.EventPublisher,
	appOrigin string,
	logger *slog.Logger,
	validator *validator.Validator,
) PatientService {
	return &patientService{
		repo:      repo,
		invites:   invites,
		identity:  identity,
		publisher: publisher,
		appOrigin: strings.TrimRight(appOrigin, "/"),
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

func (s *patientService) Create(ctx context.Context, caregiverSub string, req *CreatePatientRequest) (*CreatePatientResponse, error) {
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return nil, ErrDisplayNameRequired
	}

	s.logger.Info("Creating patient", "caregiver_sub", caregiverSub)

	patient := &models.Patient{
		ID:           uuid.NewString(),
		DisplayName:  displayName,
		CaregiverSub: caregiverSub,
	}
	if err := s.validator.Validate(patient); err != nil {
		return nil, err
	}
	if err := s.repo.Patient().Create(ctx, nil, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	invite := &models.Invite{
		Token:        token,
		TargetRole:   models.RolePatient,
		PatientID:    patient.ID,
		CaregiverSub: caregiverSub,
		CreatedAt:    now,
		ExpiresAt:    now.Add(inviteTTL),
	}
	if err := s.validator.Validate(invite); err != nil {
		return nil, err
	}
	if err := s.invites.Save(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to store invite: %w", err)
	}

	s.logger.Info("Patient created", "patient_id", patient.ID, "caregiver_sub", caregiverSub)

	return &CreatePatientResponse{
		Patient:   PatientSummary{ID: patient.ID, DisplayName: patient.DisplayName},
		SignupURL: s.signupURL(token),
		Token:     token,
	}, nil
}

func (s *patientService) signupURL(token string) string {
	returnTo := "/patient/complete?token=" + token
	return s.appOrigin + "/auth/login?returnTo=" + url.QueryEscape(returnTo) + "&screen_hint=signup"
}

func (s *patientService) List(ctx context.Context, caregiverSub string) ([]PatientSummary, error) {
	patients, err := s.repo.Patient().ListByCaregiver(ctx, nil, caregiverSub)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	out := make([]PatientSummary, 0, len(patients))
	for _, p := range patients {
		out = append(out, PatientSummary{ID: p.ID, DisplayName: p.DisplayName})
	}
	return out, nil
}

func (s *patientService) Me(ctx context.Context, patientSub string) (*models.Patient, error) {
	patient, err := s.repo.Patient().GetByPatientSub(ctx, nil, patientSub)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPatientRecordNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *patientService) GetOwned(ctx context.Context, caregiverSub, patientID string) (*models.Patient, error) {
	patient, err := s.repo.Patient().GetByID(ctx, nil, patientID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient.CaregiverSub != caregiverSub {
		return nil, ErrPatientNotFound
	}
	return patient, nil
}

func (s *patientService) AcceptInvite(ctx context.Context, caller *models.Identity, token string) (*models.Patient, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrBadRequest
	}

	invite, err := s.invites.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, cache.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to read invite: %w", err)
	}
	if invite.TargetRole != models.RolePatient {
		return nil, ErrInviteWrongRole
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Patient().LinkAccount(ctx, tx, invite.PatientID, caller.Sub); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return ErrPatientAlreadyLinked
			}
			if repositories.IsNotFoundError(err) {
				return ErrPatientNotFound
			}
			return err
		}
		return s.identity.SetRole(ctx, tx, caller.Sub, models.RolePatient)
	})
	if err != nil {
		return nil, err
	}
	// the transaction may have committed after SetRole cleared the cache
	s.identity.InvalidateRole(ctx, caller.Sub)

	patient, err := s.repo.Patient().GetByID(ctx, nil, invite.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload patient: %w", err)
	}

	s.logger.Info("Patient account linked",
		"patient_id", patient.ID,
		"patient_sub", caller.Sub,
		"caregiver_sub", patient.CaregiverSub)

	publishEvent(ctx, s.publisher, s.logger, events.NewEvent(events.EventPatientLinked, events.PatientLinkedEvent{
		PatientID:    patient.ID,
		PatientSub:   caller.Sub,
		CaregiverSub: patient.CaregiverSub,
	}))

	return patient, nil
}

func newInviteToken() (string, error) {
	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
