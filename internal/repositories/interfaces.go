package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type MemoryFilters struct {
	CaregiverSub string `json:"caregiver_sub"`
	PatientID    string `json:"patient_id"`
	Prioritized  *bool  `json:"prioritized"`
	Limit        int    `json:"limit"`
	Offset       int    `json:"offset"`
}

type ResultFilters struct {
	PatientID    string     `json:"patient_id"`
	CaregiverSub string     `json:"caregiver_sub"`
	DateFrom     *time.Time `json:"date_from"`
	DateTo       *time.Time `json:"date_to"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}

// Repository groups the per-entity repositories behind one dependency
type Repository interface {
	UserRole() UserRoleRepository
	Patient() PatientRepository
	Memory() MemoryRepository
	QuizSession() QuizSessionRepository
	QuizResult() QuizResultRepository

	// WithTransaction runs fn in a database transaction; pass tx to repository calls.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

var ErrConflict = errors.New("conditional update matched no rows")

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
