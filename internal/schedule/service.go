package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Daninc24/healthtech/internal/appointment"
	"github.com/Daninc24/healthtech/internal/availability"
	"github.com/Daninc24/healthtech/internal/config"
)

const maxReasonLength = 1000

// ErrCancelWindowClosed means the owning patient tried to cancel closer to
// the slot start than the configured cutoff allows.
var ErrCancelWindowClosed = errors.New("cancellation window has closed")

// ValidationError is a malformed-request error the caller can fix; it is
// never retried automatically.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Service is the scheduling facade the rest of the platform calls. It
// composes the slot generator, the booking ledger and the appointment state
// machine; correctness under concurrent callers comes from the storage
// layer's atomic insert, never from in-process locking.
type Service struct {
	gen          *Generator
	ledger       *appointment.Ledger
	appointments appointment.Repository
	durationMin  int
	cancelCutoff time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

func NewService(gen *Generator, ledger *appointment.Ledger, repo appointment.Repository, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		gen:          gen,
		ledger:       ledger,
		appointments: repo,
		durationMin:  cfg.SlotDurationMinutes,
		cancelCutoff: cfg.CancelCutoff,
		now:          time.Now,
		log:          log,
	}
}

// ListAvailableSlots is read-only and may observe slightly stale booking
// state; a slot can vanish between listing and booking, which Book's
// ErrSlotTaken path handles.
func (s *Service) ListAvailableSlots(ctx context.Context, providerID uuid.UUID, date time.Time) ([]string, error) {
	return s.gen.Slots(ctx, providerID, date)
}

type BookInput struct {
	PatientID  uuid.UUID
	ProviderID uuid.UUID
	Date       time.Time
	Time       string
	Reason     string
	FollowUpOf *uuid.UUID
}

// Book validates the request against the provider's slot grid, then asks the
// ledger for an atomic insert. Of N concurrent calls for the same slot,
// exactly one succeeds; the rest observe appointment.ErrSlotTaken.
func (s *Service) Book(ctx context.Context, in BookInput) (appointment.Appointment, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return appointment.Appointment{}, validationError("reason is required")
	}
	if len(reason) > maxReasonLength {
		return appointment.Appointment{}, validationError("reason is too long")
	}
	if in.PatientID == uuid.Nil {
		return appointment.Appointment{}, validationError("patient_id is required")
	}

	date := DateOnly(in.Date)
	if date.Before(DateOnly(s.now())) {
		return appointment.Appointment{}, validationError("date cannot be in the past")
	}

	startMin, err := availability.ParseClock(in.Time)
	if err != nil {
		return appointment.Appointment{}, validationError(err.Error())
	}

	grid, err := s.gen.Grid(ctx, in.ProviderID, date)
	if err != nil {
		return appointment.Appointment{}, err
	}
	if !containsTick(grid, startMin) {
		return appointment.Appointment{}, validationError("time is not a bookable slot for this provider")
	}

	if in.FollowUpOf != nil {
		prior, err := s.appointments.GetByID(ctx, *in.FollowUpOf)
		if err != nil {
			if errors.Is(err, appointment.ErrNotFound) {
				return appointment.Appointment{}, validationError("follow_up_of references an unknown appointment")
			}
			return appointment.Appointment{}, err
		}
		if prior.Status != appointment.StatusCompleted {
			return appointment.Appointment{}, validationError("follow_up_of must reference a completed appointment")
		}
		if prior.ProviderID != in.ProviderID {
			return appointment.Appointment{}, validationError("follow_up_of must reference the same provider")
		}
	}

	return s.ledger.Book(ctx, appointment.Appointment{
		ProviderID:      in.ProviderID,
		PatientID:       in.PatientID,
		Date:            date,
		Time:            availability.FormatClock(startMin),
		DurationMinutes: s.durationMin,
		Reason:          reason,
		FollowUpOf:      in.FollowUpOf,
	})
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID, actor appointment.Actor) (appointment.Appointment, error) {
	return s.applyTransition(ctx, id, appointment.StatusConfirmed, actor)
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor appointment.Actor) (appointment.Appointment, error) {
	return s.applyTransition(ctx, id, appointment.StatusCompleted, actor)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor appointment.Actor) (appointment.Appointment, error) {
	return s.applyTransition(ctx, id, appointment.StatusCancelled, actor)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (appointment.Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// applyTransition loads the appointment, authorizes the move through the
// state machine and persists it with a conditional update. A CAS miss means
// another caller changed the status first; re-reading lets the state machine
// produce the correct business error for the new state.
func (s *Service) applyTransition(ctx context.Context, id uuid.UUID, target appointment.Status, actor appointment.Actor) (appointment.Appointment, error) {
	for attempt := 0; attempt < 3; attempt++ {
		appt, err := s.appointments.GetByID(ctx, id)
		if err != nil {
			return appointment.Appointment{}, err
		}

		if actor.Role == appointment.RoleProvider && actor.ID != appt.ProviderID {
			return appointment.Appointment{}, appointment.ErrForbidden
		}

		isOwner := actor.Role == appointment.RolePatient && actor.ID == appt.PatientID
		if err := appointment.Transition(appt.Status, target, actor.Role, isOwner); err != nil {
			return appointment.Appointment{}, err
		}

		if target == appointment.StatusCancelled && actor.Role == appointment.RolePatient && s.cancelCutoff > 0 {
			if appt.StartsAt().Sub(s.now()) < s.cancelCutoff {
				return appointment.Appointment{}, ErrCancelWindowClosed
			}
		}

		updated, err := s.ledger.SetStatus(ctx, id, appt.Status, target)
		if errors.Is(err, appointment.ErrStaleStatus) {
			continue
		}
		return updated, err
	}
	return appointment.Appointment{}, fmt.Errorf("transition to %s: %w", target, appointment.ErrStaleStatus)
}

// SweepStalePending cancels pending appointments whose slot start has passed,
// acting as the platform administrator. Run periodically by the sweep worker.
func (s *Service) SweepStalePending(ctx context.Context) (int, error) {
	stale, err := s.appointments.FindStalePending(ctx, s.now())
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, appt := range stale {
		if _, err := s.ledger.SetStatus(ctx, appt.ID, appointment.StatusPending, appointment.StatusCancelled); err != nil {
			if errors.Is(err, appointment.ErrStaleStatus) {
				continue
			}
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("sweep cancel failed")
			continue
		}
		swept++
	}
	return swept, nil
}

func containsTick(grid []int, tick int) bool {
	for _, t := range grid {
		if t == tick {
			return true
		}
	}
	return false
}
