package postgres

import (
	"context"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizResultPostgreSQL struct {
	db *gorm.DB
}

func NewQuizResultPostgreSQL(db *gorm.DB) repositories.QuizResultRepository {
	return &QuizResultPostgreSQL{db: db}
}

func (q QuizResultPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error {
	return getDB(q.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_questions", "answered_count", "correct_count", "score_percent",
				"responses", "completed_at",
			}),
		}).
		Create(result).Error
}

func (q QuizResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizResult, error) {
	var result models.QuizResult
	if err := getDB(q.db, tx).WithContext(ctx).Where("id = ?", id).First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (q QuizResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.QuizResult, int64, error) {
	var results []*models.QuizResult
	var total int64

	query := getDB(q.db, tx).WithContext(ctx).Model(&models.QuizResult{})
	query = applyResultFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("completed_at DESC").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func applyResultFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if filters.PatientID != "" {
		query = query.Where("patient_id = ?", filters.PatientID)
	}
	if filters.CaregiverSub != "" {
		query = query.Where("caregiver_sub = ?", filters.CaregiverSub)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}
	return query
}
