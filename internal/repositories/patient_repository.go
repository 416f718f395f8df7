package repositories

import (
	"context"

	"github.com/memorylane/recall-service/internal/models"
	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(ctx context.Context, tx *gorm.DB, patient *models.Patient) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Patient, error)
	GetByPatientSub(ctx context.Context, tx *gorm.DB, patientSub string) (*models.Patient, error)

	// ListByCaregiver returns the caregiver's patients ordered by display name
	ListByCaregiver(ctx context.Context, tx *gorm.DB, caregiverSub string) ([]*models.Patient, error)

	// LinkAccount binds patientSub when the record is unlinked or already bound to it;
	// otherwise ErrConflict.
	LinkAccount(ctx context.Context, tx *gorm.DB, patientID, patientSub string) error
}
