package models

import (
	"time"
)

type Patient struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	DisplayName  string    `json:"displayName" gorm:"not null;size:200" validate:"notblank,max=200"`
	CaregiverSub string    `json:"caregiverSub" gorm:"not null;size:255;index"`
	PatientSub   *string   `json:"patientSub,omitempty" gorm:"size:255;index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Patient) TableName() string {
	return "patients"
}

// IsLinkedTo reports whether the patient record is bound to the given account.
func (p *Patient) IsLinkedTo(sub string) bool {
	return p.PatientSub != nil && *p.PatientSub == sub
}

// Invite is a single-use token that links a new patient account to a caregiver's patient record.
type Invite struct {
	Token        string    `json:"token"`
	TargetRole   UserRole  `json:"targetRole" validate:"user_role"`
	PatientID    string    `json:"patientId"`
	CaregiverSub string    `json:"caregiverSub"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

func (i *Invite) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}
