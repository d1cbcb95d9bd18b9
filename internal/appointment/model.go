package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatus maps a wire string to a known status.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a wire string to a known actor role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RolePatient, RoleProvider, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Actor identifies who is requesting an operation. Authentication happens
// upstream; the scheduling core only authorizes transitions.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Appointment is a ledger entry for one booked slot. Rows are never deleted:
// cancellation is a status change, so history stays auditable.
type Appointment struct {
	ID              uuid.UUID
	ProviderID      uuid.UUID
	PatientID       uuid.UUID
	Date            time.Time // calendar date, midnight UTC
	Time            string    // slot start, "HH:MM"
	DurationMinutes int
	Reason          string
	Status          Status
	FollowUpOf      *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StartsAt combines Date and Time into the slot's wall-clock start.
func (a Appointment) StartsAt() time.Time {
	var hour, minute int
	if len(a.Time) == 5 {
		hour = int(a.Time[0]-'0')*10 + int(a.Time[1]-'0')
		minute = int(a.Time[3]-'0')*10 + int(a.Time[4]-'0')
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), hour, minute, 0, 0, a.Date.Location())
}
