package postgres

import (
	"context"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"gorm.io/gorm"
)

type MemoryPostgreSQL struct {
	db *gorm.DB
}

func NewMemoryPostgreSQL(db *gorm.DB) repositories.MemoryRepository {
	return &MemoryPostgreSQL{db: db}
}

func (m MemoryPostgreSQL) Create(ctx context.Context, tx *gorm.DB, memory *models.Memory) error {
	return getDB(m.db, tx).WithContext(ctx).Create(memory).Error
}

func (m MemoryPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Memory, error) {
	var memory models.Memory
	if err := getDB(m.db, tx).WithContext(ctx).Where("id = ?", id).First(&memory).Error; err != nil {
		return nil, err
	}
	return &memory, nil
}

func (m MemoryPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Memory, error) {
	var memories []*models.Memory
	if len(ids) == 0 {
		return memories, nil
	}
	if err := getDB(m.db, tx).WithContext(ctx).Where("id IN ?", ids).Find(&memories).Error; err != nil {
		return nil, err
	}
	return memories, nil
}

func (m MemoryPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.MemoryFilters) ([]*models.Memory, error) {
	var memories []*models.Memory

	query := getDB(m.db, tx).WithContext(ctx).Model(&models.Memory{})
	if filters.CaregiverSub != "" {
		query = query.Where("caregiver_sub = ?", filters.CaregiverSub)
	}
	if filters.PatientID != "" {
		query = query.Where("patient_id = ?", filters.PatientID)
	}
	if filters.Prioritized != nil {
		query = query.Where("prioritize = ?", *filters.Prioritized)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("created_at DESC").Find(&memories).Error; err != nil {
		return nil, err
	}
	return memories, nil
}

func (m MemoryPostgreSQL) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := getDB(m.db, tx).WithContext(ctx).
		Model(&models.Memory{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (m MemoryPostgreSQL) MarkPrioritized(ctx context.Context, tx *gorm.DB, id string) error {
	return getDB(m.db, tx).WithContext(ctx).
		Model(&models.Memory{}).
		Where("id = ?", id).
		Update("prioritize", true).Error
}
