package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daninc24/healthtech/internal/appointment"
	"github.com/Daninc24/healthtech/internal/availability"
)

type fakeTemplates struct {
	tmpl availability.Template
	err  error
}

func (f *fakeTemplates) Get(ctx context.Context, providerID uuid.UUID) (availability.Template, error) {
	return f.tmpl, f.err
}

type fakeBooked struct {
	active []appointment.Appointment
	err    error
}

func (f *fakeBooked) FindActive(ctx context.Context, providerID uuid.UUID, date time.Time) ([]appointment.Appointment, error) {
	return f.active, f.err
}

// fixedNow pins the generator clock so date comparisons are deterministic.
var fixedNow = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC) // a Monday

func newTestGenerator(tmpl availability.Template, booked []appointment.Appointment, durationMin int) *Generator {
	g := NewGenerator(&fakeTemplates{tmpl: tmpl}, &fakeBooked{active: booked}, durationMin)
	g.now = func() time.Time { return fixedNow }
	return g
}

func mondayTemplate(startMin, endMin int, breaks ...availability.Break) availability.Template {
	return availability.Template{
		ProviderID: uuid.New(),
		Entries: []availability.Entry{
			{Weekday: time.Monday, StartMin: startMin, EndMin: endMin, IsAvailable: true, Breaks: breaks},
		},
	}
}

func TestSlots_BreaksSplitTheWindow(t *testing.T) {
	// 09:00-12:00 at 60 minutes with a 10:00-10:30 break: the 09:00 tick
	// fits before the break, 10:00 collides with it, 11:00 fits after.
	g := newTestGenerator(
		mondayTemplate(540, 720, availability.Break{Start: 600, End: 630}),
		nil, 60)

	slots, err := g.Slots(context.Background(), uuid.New(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00"}, slots)
}

func TestSlots_TickCrossingWindowEndIsDropped(t *testing.T) {
	// 09:00-10:30 at 60 minutes: only 09:00 fits; a 10:00 tick would run
	// past the end of the window.
	g := newTestGenerator(mondayTemplate(540, 630), nil, 60)

	slots, err := g.Slots(context.Background(), uuid.New(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, slots)
}

func TestSlots_BookedTimesRemoved(t *testing.T) {
	g := newTestGenerator(
		mondayTemplate(540, 720),
		[]appointment.Appointment{
			{Time: "10:00", Status: appointment.StatusPending},
		},
		60)

	slots, err := g.Slots(context.Background(), uuid.New(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "11:00"}, slots)
}

func TestSlots_PastDateIsEmpty(t *testing.T) {
	g := newTestGenerator(mondayTemplate(540, 720), nil, 60)

	slots, err := g.Slots(context.Background(), uuid.New(), fixedNow.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlots_TodayIsStillBookable(t *testing.T) {
	g := newTestGenerator(mondayTemplate(540, 600), nil, 60)

	slots, err := g.Slots(context.Background(), uuid.New(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, slots)
}

func TestSlots_UnavailableDay(t *testing.T) {
	tmpl := mondayTemplate(540, 720)
	tmpl.Entries[0].IsAvailable = false
	g := newTestGenerator(tmpl, nil, 60)

	slots, err := g.Slots(context.Background(), uuid.New(), fixedNow)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlots_DayWithoutTemplateEntry(t *testing.T) {
	g := newTestGenerator(mondayTemplate(540, 720), nil, 60)

	// Tuesday has no entry at all.
	slots, err := g.Slots(context.Background(), uuid.New(), fixedNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlots_TemplateLookupErrorPropagates(t *testing.T) {
	g := NewGenerator(
		&fakeTemplates{err: availability.ErrTemplateNotFound},
		&fakeBooked{}, 60)
	g.now = func() time.Time { return fixedNow }

	_, err := g.Slots(context.Background(), uuid.New(), fixedNow)
	assert.ErrorIs(t, err, availability.ErrTemplateNotFound)
}

func TestGrid_IgnoresBookedState(t *testing.T) {
	// The grid is the template's tick set; occupancy is layered on top by
	// Slots. A fully booked day still has a full grid.
	g := newTestGenerator(
		mondayTemplate(540, 720),
		[]appointment.Appointment{{Time: "09:00"}, {Time: "10:00"}, {Time: "11:00"}},
		60)

	grid, err := g.Grid(context.Background(), uuid.New(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []int{540, 600, 660}, grid)

	slots, err := g.Slots(context.Background(), uuid.New(), fixedNow)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestOverlapsBreak(t *testing.T) {
	breaks := []availability.Break{{Start: 600, End: 630}}

	assert.True(t, overlapsBreak(570, 630, breaks), "tick ending inside break")
	assert.True(t, overlapsBreak(600, 660, breaks), "tick starting at break start")
	assert.True(t, overlapsBreak(610, 620, breaks), "tick contained in break")
	assert.False(t, overlapsBreak(540, 600, breaks), "tick ending exactly at break start")
	assert.False(t, overlapsBreak(630, 690, breaks), "tick starting exactly at break end")
}
