package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the domain events emitted by the quiz workflow
type EventType string

const (
	EventQuizGenerated     EventType = "quiz.generated"
	EventQuizAnswered      EventType = "quiz.answered"
	EventQuizCompleted     EventType = "quiz.completed"
	EventMemoryPrioritized EventType = "memory.prioritized"
	EventPatientLinked     EventType = "patient.linked"
)

const (
	eventSource  = "recall-service"
	eventVersion = "1.0"
)

// Event is the envelope written to the broker
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Payloads

type QuizGeneratedEvent struct {
	SessionID     string   `json:"sessionId"`
	PatientID     string   `json:"patientId"`
	CaregiverSub  string   `json:"caregiverSub"`
	CreatedBySub  string   `json:"createdBySub"`
	MemoryIDs     []string `json:"memoryIds"`
	QuestionCount int      `json:"questionCount"`
}

type QuizAnsweredEvent struct {
	SessionID   string `json:"sessionId"`
	QuestionID  string `json:"questionId"`
	MemoryID    string `json:"memoryId"`
	ChosenIndex int    `json:"chosenIndex"`
	Correct     bool   `json:"correct"`
}

type QuizCompletedEvent struct {
	SessionID      string    `json:"sessionId"`
	PatientID      string    `json:"patientId"`
	CaregiverSub   string    `json:"caregiverSub"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectCount   int       `json:"correctCount"`
	ScorePercent   int       `json:"scorePercent"`
	CompletedAt    time.Time `json:"completedAt"`
}

type MemoryPrioritizedEvent struct {
	MemoryID  string `json:"memoryId"`
	PatientID string `json:"patientId"`
	SessionID string `json:"sessionId"`
}

type PatientLinkedEvent struct {
	PatientID    string `json:"patientId"`
	PatientSub   string `json:"patientSub"`
	CaregiverSub string `json:"caregiverSub"`
}
