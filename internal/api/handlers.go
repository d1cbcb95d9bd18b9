package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Daninc24/healthtech/internal/appointment"
	"github.com/Daninc24/healthtech/internal/availability"
	"github.com/Daninc24/healthtech/internal/schedule"
)

// actorFromRequest reads the identity context the gateway injects. The core
// never authenticates; it only authorizes transitions for the given actor.
func actorFromRequest(r *http.Request) (appointment.Actor, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Actor-Id"))
	if err != nil {
		return appointment.Actor{}, false
	}
	role, ok := appointment.ParseRole(r.Header.Get("X-Actor-Role"))
	if !ok {
		return appointment.Actor{}, false
	}
	return appointment.Actor{ID: id, Role: role}, true
}

func getAvailabilityHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id")
			return
		}

		tmpl, err := store.GetTemplate(r.Context(), providerID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAvailabilityResponse(tmpl))
	}
}

func setAvailabilityHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id")
			return
		}

		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_actor", "X-Actor-Id and X-Actor-Role headers are required")
			return
		}
		switch {
		case actor.Role == appointment.RoleAdmin:
		case actor.Role == appointment.RoleProvider && actor.ID == providerID:
		default:
			writeError(w, http.StatusForbidden, "forbidden", "only the provider or an admin may edit availability")
			return
		}

		var req SetAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		tmpl, err := store.SetTemplate(r.Context(), providerID, req.Entries)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAvailabilityResponse(tmpl))
	}
}

func listSlotsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "providerID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id")
			return
		}

		date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := svc.ListAvailableSlots(r.Context(), providerID, date)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		if slots == nil {
			slots = []string{}
		}
		writeJSON(w, http.StatusOK, SlotsResponse{
			ProviderID: providerID,
			Date:       date.Format("2006-01-02"),
			Slots:      slots,
		})
	}
}

func bookAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_actor", "X-Actor-Id and X-Actor-Role headers are required")
			return
		}

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		// Patients book for themselves; an admin must name the patient.
		patientID := actor.ID
		switch actor.Role {
		case appointment.RolePatient:
		case appointment.RoleAdmin:
			patientID, err = uuid.Parse(req.PatientID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
		default:
			writeError(w, http.StatusForbidden, "forbidden", "only patients or admins may book")
			return
		}

		in := schedule.BookInput{
			PatientID:  patientID,
			ProviderID: providerID,
			Date:       date,
			Time:       req.Time,
			Reason:     req.Reason,
		}
		if req.FollowUpOf != nil {
			followUp, err := uuid.Parse(*req.FollowUpOf)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_follow_up_of", "follow_up_of must be a valid UUID")
				return
			}
			in.FollowUpOf = &followUp
		}

		appt, err := svc.Book(r.Context(), in)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id")
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// transitionHandler covers confirm, cancel and complete, which differ only in
// the target status the state machine is asked for.
func transitionHandler(apply func(r *http.Request, id uuid.UUID, actor appointment.Actor) (appointment.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id")
			return
		}

		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_actor", "X-Actor-Id and X-Actor-Role headers are required")
			return
		}

		appt, err := apply(r, id, actor)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// writeDomainError maps business errors to HTTP statuses. Only infrastructure
// failures are logged as errors; conflicts and rejections are ordinary
// outcomes.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var templateErr *availability.ValidationError
	var inputErr *schedule.ValidationError

	switch {
	case errors.As(err, &templateErr):
		writeError(w, http.StatusBadRequest, "invalid_template", templateErr.Violations...)
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, "invalid_request", inputErr.Error())
	case errors.Is(err, availability.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "availability_not_set", err.Error())
	case errors.Is(err, appointment.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "the slot was booked concurrently, refresh available slots")
	case errors.Is(err, appointment.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, schedule.ErrCancelWindowClosed):
		writeError(w, http.StatusConflict, "cancel_window_closed", err.Error())
	case errors.Is(err, appointment.ErrStaleStatus):
		writeError(w, http.StatusConflict, "status_changed", "appointment status changed concurrently, re-fetch and retry")
	case errors.Is(err, appointment.ErrUnavailable):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("storage unavailable")
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "temporary storage failure, retry with backoff")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
