package models

import (
	"time"

	"gorm.io/datatypes"
)

type ResponseRow struct {
	QuestionID   string          `json:"questionId"`
	MemoryID     string          `json:"memoryId"`
	Prompt       string          `json:"prompt"`
	Options      []string        `json:"options"`
	CorrectIndex int             `json:"correctIndex"`
	ChosenIndex  *int            `json:"chosenIndex"`
	Correct      bool            `json:"correct"`
	Hint         string          `json:"hint"`
	Context      QuestionContext `json:"context"`
	ImageDataURL string          `json:"imageDataUrl"`
	AnsweredAt   *time.Time      `json:"answeredAt"`
}

// QuizResult shares its primary key with the originating QuizSession.
type QuizResult struct {
	ID             string                           `json:"id" gorm:"primaryKey;size:64"`
	SessionID      string                           `json:"sessionId" gorm:"not null;size:64"`
	PatientID      string                           `json:"patientId" gorm:"not null;size:64;index"`
	CaregiverSub   string                           `json:"caregiverSub" gorm:"not null;size:255;index"`
	CreatedBySub   string                           `json:"createdBySub" gorm:"not null;size:255"`
	TotalQuestions int                              `json:"totalQuestions"`
	AnsweredCount  int                              `json:"answeredCount"`
	CorrectCount   int                              `json:"correctCount"`
	ScorePercent   int                              `json:"scorePercent"`
	Responses      datatypes.JSONSlice[ResponseRow] `json:"responses" gorm:"type:jsonb"`
	CreatedAt      time.Time                        `json:"createdAt"`
	CompletedAt    time.Time                        `json:"completedAt" gorm:"index"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
