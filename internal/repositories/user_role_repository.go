package repositories

import (
	"context"

	"github.com/memorylane/recall-service/internal/models"
	"gorm.io/gorm"
)

type UserRoleRepository interface {
	GetBySub(ctx context.Context, tx *gorm.DB, sub string) (*models.UserRoleRecord, error)
	Upsert(ctx context.Context, tx *gorm.DB, record *models.UserRoleRecord) error
}
