package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotTaken means another active appointment already holds the
	// (provider, date, time) key. Callers should refresh the slot list.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrStaleStatus is a conditional status update that matched no row:
	// the appointment's status moved concurrently.
	ErrStaleStatus = errors.New("appointment status changed concurrently")

	// ErrUnavailable wraps storage failures. Operations are idempotent by
	// slot key, so retrying with backoff is safe.
	ErrUnavailable = errors.New("appointment store unavailable")
)

// Repository contains all DB interactions the ledger and services need.
// InsertActive is the atomicity primitive: the storage layer must guarantee
// at most one non-terminal appointment per (provider, date, time).
type Repository interface {
	InsertActive(ctx context.Context, appt Appointment) (Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (Appointment, error)

	// FindActive returns pending and confirmed appointments for a
	// provider's day, used by the slot generator.
	FindActive(ctx context.Context, providerID uuid.UUID, date time.Time) ([]Appointment, error)

	// UpdateStatusIf applies a compare-and-swap status change; it returns
	// ErrStaleStatus when the row no longer has the expected status.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to Status) (Appointment, error)

	// FindStalePending lists pending appointments whose slot start is
	// before the given instant, for the sweep worker.
	FindStalePending(ctx context.Context, before time.Time) ([]Appointment, error)
}
