package postgres

import (
	"context"

	"github.com/memorylane/recall-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db          *gorm.DB
	userRoles   repositories.UserRoleRepository
	patients    repositories.PatientRepository
	memories    repositories.MemoryRepository
	sessions    repositories.QuizSessionRepository
	quizResults repositories.QuizResultRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:          db,
		userRoles:   NewUserRolePostgreSQL(db),
		patients:    NewPatientPostgreSQL(db),
		memories:    NewMemoryPostgreSQL(db),
		sessions:    NewQuizSessionPostgreSQL(db),
		quizResults: NewQuizResultPostgreSQL(db),
	}
}

func (r *repository) UserRole() repositories.UserRoleRepository       { return r.userRoles }
func (r *repository) Patient() repositories.PatientRepository         { return r.patients }
func (r *repository) Memory() repositories.MemoryRepository           { return r.memories }
func (r *repository) QuizSession() repositories.QuizSessionRepository { return r.sessions }
func (r *repository) QuizResult() repositories.QuizResultRepository   { return r.quizResults }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
