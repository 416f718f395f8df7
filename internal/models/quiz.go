package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuizStatus string

const (
	QuizStatusActive    QuizStatus = "active"
	QuizStatusCompleted QuizStatus = "completed"
)

// QuestionContext is the snapshot of memory fields a question was built from.
type QuestionContext struct {
	PersonName *string `json:"personName"`
	EventName  *string `json:"eventName"`
	PlaceName  *string `json:"placeName"`
	CaptionAI  *string `json:"captionAI"`
}

// Question is embedded in a QuizSession and never stored on its own.
type Question struct {
	ID           string          `json:"id"`
	MemoryID     string          `json:"memoryId"`
	Prompt       string          `json:"prompt"`
	Options      []string        `json:"options"`
	CorrectIndex int             `json:"correctIndex"`
	Hint         string          `json:"hint"`
	Context      QuestionContext `json:"context"`
	ImageDataURL string          `json:"imageDataUrl"`
}

type QuizSession struct {
	ID           string                        `json:"sessionId" gorm:"primaryKey;size:64"`
	CreatedBySub string                        `json:"createdBySub" gorm:"not null;size:255"`
	CaregiverSub string                        `json:"caregiverSub" gorm:"not null;size:255;index"`
	PatientID    string                        `json:"patientId" gorm:"not null;size:64;index"`
	MemoryIDs    datatypes.JSONSlice[string]   `json:"memoryIds" gorm:"type:jsonb"`
	Questions    datatypes.JSONSlice[Question] `json:"questions" gorm:"type:jsonb;not null"`
	Status       QuizStatus                    `json:"status" gorm:"not null;size:20;default:active"`
	CreatedAt    time.Time                     `json:"createdAt"`
	CompletedAt  *time.Time                    `json:"completedAt"`

	History []AnswerEvent `json:"history" gorm:"foreignKey:SessionID;references:ID"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

func (s *QuizSession) FindQuestion(questionID string) (*Question, bool) {
	for i := range s.Questions {
		if s.Questions[i].ID == questionID {
			return &s.Questions[i], true
		}
	}
	return nil, false
}

// AnswerEvent rows are insert-only; several rows may exist for one question.
type AnswerEvent struct {
	ID           uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	SessionID    string    `json:"-" gorm:"not null;size:64;index:idx_answer_session"`
	QuestionID   string    `json:"questionId" gorm:"not null;size:64"`
	ChosenIndex  int       `json:"chosenIndex"`
	CorrectIndex int       `json:"correctIndex"`
	Correct      bool      `json:"correct"`
	AnsweredAt   time.Time `json:"ts" gorm:"not null;index:idx_answer_session"`
}

func (AnswerEvent) TableName() string {
	return "quiz_answer_events"
}

// After reports whether e supersedes other for the same question.
func (e AnswerEvent) After(other AnswerEvent) bool {
	if e.AnsweredAt.Equal(other.AnsweredAt) {
		return e.ID > other.ID
	}
	return e.AnsweredAt.After(other.AnsweredAt)
}
