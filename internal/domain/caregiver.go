// Package domain contains core domain types for the NeuroSync application.
package domain

import (
	"time"
)

// Caregiver roles recognized by the care team.
const (
	RoleCaregiver = "Caregiver"
	RoleFamily    = "Family Member"
	RoleDoctor    = "Doctor/Therapist"
)

// ValidRole reports whether role is one of the recognized care-team roles.
func ValidRole(role string) bool {
	switch role {
	case RoleCaregiver, RoleFamily, RoleDoctor:
		return true
	}
	return false
}

// Caregiver is a care-team member identified by the external identity provider.
type Caregiver struct {
	CaregiverID string    `json:"caregiver_id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	DeviceToken string    `json:"device_token,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Reachable returns true if the caregiver can receive at least one kind of notification.
func (c *Caregiver) Reachable() bool {
	return c.DeviceToken != "" || c.Phone != ""
}

// Patient is the person a care team coordinates around.
type Patient struct {
	PatientID    string    `json:"patient_id"`
	Name         string    `json:"name"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
