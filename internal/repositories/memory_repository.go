package repositories

import (
	"context"

	"github.com/memorylane/recall-service/internal/models"
	"gorm.io/gorm"
)

type MemoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, memory *models.Memory) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Memory, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Memory, error)

	// List returns memories newest first
	List(ctx context.Context, tx *gorm.DB, filters MemoryFilters) ([]*models.Memory, error)

	// UpdateFields merges the given columns into the row, leaving others untouched
	UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error
	MarkPrioritized(ctx context.Context, tx *gorm.DB, id string) error
}
