package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	inserted  *Appointment
	updated   *Appointment
	insertErr error
	updateErr error
}

func (s *stubRepo) InsertActive(ctx context.Context, appt Appointment) (Appointment, error) {
	if s.insertErr != nil {
		return Appointment{}, s.insertErr
	}
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	s.inserted = &appt
	return appt, nil
}

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (Appointment, error) {
	return Appointment{}, ErrNotFound
}

func (s *stubRepo) FindActive(ctx context.Context, providerID uuid.UUID, date time.Time) ([]Appointment, error) {
	return nil, nil
}

func (s *stubRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to Status) (Appointment, error) {
	if s.updateErr != nil {
		return Appointment{}, s.updateErr
	}
	appt := Appointment{ID: id, Status: to}
	s.updated = &appt
	return appt, nil
}

func (s *stubRepo) FindStalePending(ctx context.Context, before time.Time) ([]Appointment, error) {
	return nil, nil
}

type capturePublisher struct {
	events []string
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, event string, appt Appointment) error {
	p.events = append(p.events, event)
	return p.err
}

func TestLedgerBook_ForcesPendingAndEmits(t *testing.T) {
	repo := &stubRepo{}
	pub := &capturePublisher{}
	ledger := NewLedger(repo, pub, zerolog.Nop())

	created, err := ledger.Book(context.Background(), Appointment{
		ProviderID: uuid.New(),
		PatientID:  uuid.New(),
		Status:     StatusConfirmed, // caller-supplied status is ignored
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, []string{EventBooked}, pub.events)
}

func TestLedgerBook_NoEventOnConflict(t *testing.T) {
	repo := &stubRepo{insertErr: ErrSlotTaken}
	pub := &capturePublisher{}
	ledger := NewLedger(repo, pub, zerolog.Nop())

	_, err := ledger.Book(context.Background(), Appointment{})
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, pub.events)
}

func TestLedgerSetStatus_EmitsMatchingEvent(t *testing.T) {
	tests := []struct {
		to    Status
		event string
	}{
		{StatusConfirmed, EventConfirmed},
		{StatusCancelled, EventCancelled},
		{StatusCompleted, EventCompleted},
	}

	for _, tt := range tests {
		pub := &capturePublisher{}
		ledger := NewLedger(&stubRepo{}, pub, zerolog.Nop())

		_, err := ledger.SetStatus(context.Background(), uuid.New(), StatusPending, tt.to)
		require.NoError(t, err)
		assert.Equal(t, []string{tt.event}, pub.events)
	}
}

func TestLedgerSetStatus_StaleMissEmitsNothing(t *testing.T) {
	pub := &capturePublisher{}
	ledger := NewLedger(&stubRepo{updateErr: ErrStaleStatus}, pub, zerolog.Nop())

	_, err := ledger.SetStatus(context.Background(), uuid.New(), StatusPending, StatusConfirmed)
	assert.ErrorIs(t, err, ErrStaleStatus)
	assert.Empty(t, pub.events)
}

func TestLedger_PublishFailureDoesNotFailOperation(t *testing.T) {
	pub := &capturePublisher{err: errors.New("stream down")}
	ledger := NewLedger(&stubRepo{}, pub, zerolog.Nop())

	created, err := ledger.Book(context.Background(), Appointment{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestLedger_NilPublisherIsAllowed(t *testing.T) {
	ledger := NewLedger(&stubRepo{}, nil, zerolog.Nop())

	_, err := ledger.Book(context.Background(), Appointment{})
	assert.NoError(t, err)
}
