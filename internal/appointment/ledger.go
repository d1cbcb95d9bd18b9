package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Domain events emitted after successful ledger writes. Delivery is
// at-least-once and asynchronous; the notification system consumes them.
const (
	EventBooked    = "appointment.booked"
	EventConfirmed = "appointment.confirmed"
	EventCancelled = "appointment.cancelled"
	EventCompleted = "appointment.completed"
)

// EventPublisher is the external event sink. Publish failures must never fail
// the ledger operation that triggered them.
type EventPublisher interface {
	Publish(ctx context.Context, event string, appt Appointment) error
}

// Ledger is the only component that creates appointment rows or moves their
// status. It owns the invariant that a (provider, date, time) key has at most
// one active appointment, delegating the atomic check to the repository.
type Ledger struct {
	repo   Repository
	events EventPublisher
	log    zerolog.Logger
}

func NewLedger(repo Repository, events EventPublisher, log zerolog.Logger) *Ledger {
	return &Ledger{repo: repo, events: events, log: log}
}

// Book atomically inserts a pending appointment for the slot. When a
// concurrent booking wins the race, exactly one caller gets the appointment
// and the rest get ErrSlotTaken.
func (l *Ledger) Book(ctx context.Context, appt Appointment) (Appointment, error) {
	appt.Status = StatusPending

	created, err := l.repo.InsertActive(ctx, appt)
	if err != nil {
		return Appointment{}, err
	}

	l.emit(ctx, EventBooked, created)
	return created, nil
}

// SetStatus applies a compare-and-swap status change and emits the matching
// event. A CAS miss surfaces as ErrStaleStatus so callers can re-read.
func (l *Ledger) SetStatus(ctx context.Context, id uuid.UUID, from, to Status) (Appointment, error) {
	updated, err := l.repo.UpdateStatusIf(ctx, id, from, to)
	if err != nil {
		return Appointment{}, err
	}

	switch to {
	case StatusConfirmed:
		l.emit(ctx, EventConfirmed, updated)
	case StatusCancelled:
		l.emit(ctx, EventCancelled, updated)
	case StatusCompleted:
		l.emit(ctx, EventCompleted, updated)
	}
	return updated, nil
}

func (l *Ledger) emit(ctx context.Context, event string, appt Appointment) {
	if l.events == nil {
		return
	}
	if err := l.events.Publish(ctx, event, appt); err != nil {
		l.log.Warn().Err(err).
			Str("event", event).
			Str("appointment_id", appt.ID.String()).
			Msg("event publish failed")
	}
}
