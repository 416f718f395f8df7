package models

import (
	"time"

	"gorm.io/datatypes"
)

type Memory struct {
	ID           string  `json:"id" gorm:"primaryKey;size:64"`
	CaregiverSub string  `json:"caregiverSub" gorm:"not null;size:255;index:idx_memory_owner"`
	PatientID    string  `json:"patientId" gorm:"not null;size:64;index:idx_memory_owner" validate:"required"`
	Title        string  `json:"title" gorm:"not null;size:200" validate:"notblank,max=200"`
	ImageURL     string  `json:"imageUrl" gorm:"type:text;not null" validate:"required,data_url"`
	PersonName   *string `json:"personName" gorm:"size:200"`
	EventName    *string `json:"eventName" gorm:"size:200"`
	PlaceName    *string `json:"placeName" gorm:"size:200"`
	DateLabel    *string `json:"dateLabel" gorm:"size:100"`

	// AI derived
	CaptionAI *string                      `json:"captionAI" gorm:"type:text"`
	TagsAI    datatypes.JSONSlice[string]  `json:"tagsAI" gorm:"type:jsonb"`
	Embedding datatypes.JSONSlice[float32] `json:"-" gorm:"type:jsonb"`

	Prioritize bool      `json:"prioritize" gorm:"default:false"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Memory) TableName() string {
	return "memories"
}

// IsOwnedBy reports whether the memory belongs to the caregiver/patient pair.
func (m *Memory) IsOwnedBy(caregiverSub, patientID string) bool {
	return m.CaregiverSub == caregiverSub && m.PatientID == patientID
}

// MemoryPatchableFields lists the columns a caregiver may edit after upload.
var MemoryPatchableFields = map[string]string{
	"title":      "title",
	"personName": "person_name",
	"eventName":  "event_name",
	"placeName":  "place_name",
	"dateLabel":  "date_label",
	"captionAI":  "caption_ai",
	"tagsAI":     "tags_ai",
}
