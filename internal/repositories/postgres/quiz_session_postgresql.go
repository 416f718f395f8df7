package postgres

import (
	"context"
	"time"

	"github.com/memorylane/recall-service/internal/models"
	"github.com/memorylane/recall-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizSessionPostgreSQL struct {
	db *gorm.DB
}

func NewQuizSessionPostgreSQL(db *gorm.DB) repositories.QuizSessionRepository {
	return &QuizSessionPostgreSQL{db: db}
}

func (q QuizSessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.QuizSession) error {
	// history is written only through AppendAnswer
	return getDB(q.db, tx).WithContext(ctx).Omit("History").Create(session).Error
}

func (q QuizSessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizSession, error) {
	var session models.QuizSession
	if err := getDB(q.db, tx).WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (q QuizSessionPostgreSQL) GetByIDWithHistory(ctx context.Context, tx *gorm.DB, id string) (*models.QuizSession, error) {
	var session models.QuizSession
	if err := getDB(q.db, tx).WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("answered_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (q QuizSessionPostgreSQL) AppendAnswer(ctx context.Context, tx *gorm.DB, event *models.AnswerEvent) error {
	return getDB(q.db, tx).WithContext(ctx).Create(event).Error
}

func (q QuizSessionPostgreSQL) MarkCompleted(ctx context.Context, tx *gorm.DB, id string, completedAt time.Time) (bool, error) {
	result := getDB(q.db, tx).WithContext(ctx).
		Model(&models.QuizSession{}).
		Where("id = ? AND status = ?", id, models.QuizStatusActive).
		Updates(map[string]interface{}{
			"status":       models.QuizStatusCompleted,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
