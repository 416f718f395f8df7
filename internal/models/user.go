package models

import (
	"time"
)

type UserRole string

const (
	RoleCaregiver UserRole = "CAREGIVER"
	RolePatient   UserRole = "PATIENT"
)

// DefaultRole is reported for authenticated users that have no stored role yet.
const DefaultRole = RoleCaregiver

func (r UserRole) IsValid() bool {
	return r == RoleCaregiver || r == RolePatient
}

// UserRoleRecord maps an identity provider subject to its application role.
type UserRoleRecord struct {
	Sub       string    `json:"sub" gorm:"primaryKey;size:255"`
	Role      UserRole  `json:"role" gorm:"not null;size:20"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (UserRoleRecord) TableName() string {
	return "user_roles"
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Sub   string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Role  UserRole `json:"role"`
}

// DisplayName prefers the e-mail address, matching what the sign-in screen shows.
func (i *Identity) DisplayName() string {
	if i.Email != "" {
		return i.Email
	}
	return i.Name
}
