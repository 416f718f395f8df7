package postgres

import (
	"context"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRolePostgreSQL struct {
	db *gorm.DB
}

func NewUserRolePostgreSQL(db *gorm.DB) repositories.UserRoleRepository {
	return &UserRolePostgreSQL{db: db}
}

func (u UserRolePostgreSQL) GetBySub(ctx context.Context, tx *gorm.DB, sub string) (*models.UserRoleRecord, error) {
	var record models.UserRoleRecord
	if err := getDB(u.db, tx).WithContext(ctx).Where("sub = ?", sub).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (u UserRolePostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, record *models.UserRoleRecord) error {
	return getDB(u.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sub"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(record).Error
}
