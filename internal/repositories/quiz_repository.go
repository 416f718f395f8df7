package repositories

import (
	"context"
	"time"

	"github.com/memorylane/recall-service/internal/models"
	"gorm.io/gorm"
)

type QuizSessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.QuizSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizSession, error)

	// GetByIDWithHistory loads the session with its answer events in answer order
	GetByIDWithHistory(ctx context.Context, tx *gorm.DB, id string) (*models.QuizSession, error)

	// AppendAnswer inserts one answer event; existing events are never modified
	AppendAnswer(ctx context.Context, tx *gorm.DB, event *models.AnswerEvent) error

	// MarkCompleted flips an active session to completed and reports whether it did
	MarkCompleted(ctx context.Context, tx *gorm.DB, id string, completedAt time.Time) (bool, error)
}

type QuizResultRepository interface {
	// Upsert inserts or overwrites the result keyed by session id
	Upsert(ctx context.Context, tx *gorm.DB, result *models.QuizResult) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizResult, error)
	List(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.QuizResult, int64, error)
}
