package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Daninc24/healthtech/internal/appointment"
	"github.com/Daninc24/healthtech/internal/availability"
)

type SetAvailabilityRequest struct {
	Entries []availability.EntryInput `json:"entries"`
}

type BreakPayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityEntryPayload struct {
	Weekday     string         `json:"weekday"`
	StartTime   string         `json:"start_time"`
	EndTime     string         `json:"end_time"`
	IsAvailable bool           `json:"is_available"`
	Breaks      []BreakPayload `json:"breaks,omitempty"`
}

type AvailabilityResponse struct {
	ProviderID uuid.UUID                  `json:"provider_id"`
	Entries    []AvailabilityEntryPayload `json:"entries"`
}

func toAvailabilityResponse(tmpl availability.Template) AvailabilityResponse {
	resp := AvailabilityResponse{ProviderID: tmpl.ProviderID}
	for _, e := range tmpl.Entries {
		entry := AvailabilityEntryPayload{
			Weekday:     availability.WeekdayName(e.Weekday),
			StartTime:   availability.FormatClock(e.StartMin),
			EndTime:     availability.FormatClock(e.EndMin),
			IsAvailable: e.IsAvailable,
		}
		for _, b := range e.Breaks {
			entry.Breaks = append(entry.Breaks, BreakPayload{
				Start: availability.FormatClock(b.Start),
				End:   availability.FormatClock(b.End),
			})
		}
		resp.Entries = append(resp.Entries, entry)
	}
	return resp
}

type SlotsResponse struct {
	ProviderID uuid.UUID `json:"provider_id"`
	Date       string    `json:"date"`
	Slots      []string  `json:"slots"`
}

type BookAppointmentRequest struct {
	ProviderID string  `json:"provider_id"`
	PatientID  string  `json:"patient_id,omitempty"` // admin bookings on behalf of a patient
	Date       string  `json:"date"` // YYYY-MM-DD
	Time       string  `json:"time"` // HH:MM
	Reason     string  `json:"reason"`
	FollowUpOf *string `json:"follow_up_of,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	ProviderID      uuid.UUID  `json:"provider_id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	DurationMinutes int        `json:"duration_minutes"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	FollowUpOf      *uuid.UUID `json:"follow_up_of,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		ProviderID:      a.ProviderID,
		PatientID:       a.PatientID,
		Date:            a.Date.Format("2006-01-02"),
		Time:            a.Time,
		DurationMinutes: a.DurationMinutes,
		Reason:          a.Reason,
		Status:          string(a.Status),
		FollowUpOf:      a.FollowUpOf,
		CreatedAt:       a.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, details ...string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
