package services

import (
	"errors"
	"fmt"

	apperrors "github.com/memorylane/recall-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("Not found")
	ErrUnauthorized     = errors.New("Unauthorized")
	ErrForbidden        = errors.New("Forbidden")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("Bad request")
	ErrConflict         = errors.New("Conflict")

	// Identity
	ErrUnauthenticated = errors.New("Not authenticated")
	ErrRoleNotAllowed  = errors.New("Role not allowed for this route")

	// Patients and invites
	ErrPatientNotFound       = errors.New("Patient not found")
	ErrPatientRecordNotFound = errors.New("Patient record not found")
	ErrPatientAccessDenied   = errors.New("Patient not accessible")
	ErrDisplayNameRequired   = errors.New("displayName is required")
	ErrPatientIDRequired     = errors.New("patientId required")
	ErrInviteNotFound        = errors.New("Invite not found or expired")
	ErrInviteWrongRole       = errors.New("Invite is not a patient invite")
	ErrPatientAlreadyLinked  = errors.New("Patient is already linked to another account")

	// Memories
	ErrMemoryNotFound        = errors.New("Memory not found")
	ErrNoFileUploaded        = errors.New("No file uploaded")
	ErrUploadPatientRequired = errors.New("patientId is required")
	ErrFileTooLarge          = errors.New("File too large")
	ErrCaptionInputRequired  = errors.New("memoryId and imageUrl are required")

	// Quiz
	ErrNoMemoriesFound       = errors.New("No memories found")
	ErrNoAccessibleMemories  = errors.New("No accessible memories")
	ErrNoQuestionsGenerated  = errors.New("No questions generated")
	ErrSessionNotFound       = errors.New("Not found")
	ErrQuestionNotFound      = errors.New("Question not found")
	ErrSessionAccessDenied   = errors.New("Quiz session not accessible")
	ErrInvalidModelResponse  = errors.New("model returned an unusable response")
	ErrModelNotConfigured    = errors.New("GOOGLE_API_KEY missing")
	ErrSpeechNotConfigured   = errors.New("Server missing ElevenLabs config")
	ErrSpeechTextRequired    = errors.New("Missing `text`")
	ErrResultNotFound        = errors.New("No results yet")
	ErrIdentityNotConfigured = errors.New("Server missing identity provider config")
)

// UpstreamError wraps a failed call to a third-party service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Detail     string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s error: %s", e.Service, e.Detail)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error: %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s error: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserSub    string `json:"user_sub"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
	cause      error
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserSub, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// Unwrap exposes the sentinel the denial maps to, so handlers can keep using errors.Is.
func (pe *PermissionError) Unwrap() error {
	return pe.cause
}

// ===== ERROR HELPERS =====

func NewPermissionError(cause error, userSub, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserSub:    userSub,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
		cause:      cause,
	}
}

func newUpstreamError(service string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{Service: service, StatusCode: statusCode, Err: err}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPatientNotFound) ||
		errors.Is(err, ErrPatientRecordNotFound) ||
		errors.Is(err, ErrInviteNotFound) ||
		errors.Is(err, ErrMemoryNotFound) ||
		errors.Is(err, ErrNoMemoriesFound) ||
		errors.Is(err, ErrNoAccessibleMemories) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

// IsUnauthorized checks if error means the caller is not signed in
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrUnauthenticated)
}

// IsForbidden checks if error represents a role or ownership mismatch
func IsForbidden(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrRoleNotAllowed) ||
		errors.Is(err, ErrPatientAccessDenied) ||
		errors.Is(err, ErrSessionAccessDenied) ||
		errors.Is(err, ErrInviteWrongRole)
}

// IsBadRequest checks if error represents missing or malformed input
func IsBadRequest(err error) bool {
	return IsValidation(err) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrDisplayNameRequired) ||
		errors.Is(err, ErrPatientIDRequired) ||
		errors.Is(err, ErrNoFileUploaded) ||
		errors.Is(err, ErrUploadPatientRequired) ||
		errors.Is(err, ErrCaptionInputRequired) ||
		errors.Is(err, ErrSpeechTextRequired)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrPatientAlreadyLinked)
}

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) || errors.Is(err, ErrInvalidModelResponse)
}

// IsMisconfigured checks if a required server credential is absent
func IsMisconfigured(err error) bool {
	return errors.Is(err, ErrModelNotConfigured) ||
		errors.Is(err, ErrSpeechNotConfigured) ||
		errors.Is(err, ErrIdentityNotConfigured)
}
