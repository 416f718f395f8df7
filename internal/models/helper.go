package models

import "time"

// WrongResponse is a missed question surfaced on the caregiver insights view.
type WrongResponse struct {
	QuestionID    string          `json:"questionId"`
	Prompt        string          `json:"prompt"`
	CorrectAnswer string          `json:"correctAnswer"`
	ChosenAnswer  string          `json:"chosenAnswer,omitempty"`
	ImageDataURL  string          `json:"imageDataUrl"`
	Context       QuestionContext `json:"context"`
	AnsweredAt    *time.Time      `json:"answeredAt"`
}

type PatientInsights struct {
	PatientID         string          `json:"patientId"`
	DisplayName       string          `json:"displayName"`
	LatestResult      *QuizResult     `json:"latestResult"`
	WrongResponses    []WrongResponse `json:"wrongResponses"`
	CompletedQuizzes  int64           `json:"completedQuizzes"`
	CorrectStreak     int             `json:"correctStreak"`
	NextReviewMinutes int             `json:"nextReviewMinutes"`
}

// ExportRequest narrows the result rows written to a spreadsheet.
type ExportRequest struct {
	PatientID string     `json:"patientId" validate:"required"`
	DateFrom  *time.Time `json:"dateFrom"`
	DateTo    *time.Time `json:"dateTo"`
}

// AllModels is the auto-migration set.
func AllModels() []interface{} {
	return []interface{}{
		&UserRoleRecord{},
		&Patient{},
		&Memory{},
		&QuizSession{},
		&AnswerEvent{},
		&QuizResult{},
	}
}
