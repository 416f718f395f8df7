package postgres

import (
	"context"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"gorm.io/gorm"
)

type PatientPostgreSQL struct {
	db *gorm.DB
}

func NewPatientPostgreSQL(db *gorm.DB) repositories.PatientRepository {
	return &PatientPostgreSQL{db: db}
}

func (p PatientPostgreSQL) Create(ctx context.Context, tx *gorm.DB, patient *models.Patient) error {
	return getDB(p.db, tx).WithContext(ctx).Create(patient).Error
}

func (p PatientPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Patient, error) {
	var patient models.Patient
	if err := getDB(p.db, tx).WithContext(ctx).Where("id = ?", id).First(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (p PatientPostgreSQL) GetByPatientSub(ctx context.Context, tx *gorm.DB, patientSub string) (*models.Patient, error) {
	var patient models.Patient
	if err := getDB(p.db, tx).WithContext(ctx).
		Where("patient_sub = ?", patientSub).
		Order("created_at ASC").
		First(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (p PatientPostgreSQL) ListByCaregiver(ctx context.Context, tx *gorm.DB, caregiverSub string) ([]*models.Patient, error) {
	var patients []*models.Patient
	if err := getDB(p.db, tx).WithContext(ctx).
		Where("caregiver_sub = ?", caregiverSub).
		Order("display_name ASC").
		Find(&patients).Error; err != nil {
		return nil, err
	}
	return patients, nil
}

func (p PatientPostgreSQL) LinkAccount(ctx context.Context, tx *gorm.DB, patientID, patientSub string) error {
	result := getDB(p.db, tx).WithContext(ctx).
		Model(&models.Patient{}).
		Where("id = ? AND (patient_sub IS NULL OR patient_sub = ?)", patientID, patientSub).
		Update("patient_sub", patientSub)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrConflict
	}
	return nil
}
