// Package schedule turns weekly availability templates into bookable slots
// and orchestrates booking and appointment lifecycle operations.
package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Daninc24/healthtech/internal/appointment"
	"github.com/Daninc24/healthtech/internal/availability"
)

// TemplateSource yields a provider's weekly template.
type TemplateSource interface {
	Get(ctx context.Context, providerID uuid.UUID) (availability.Template, error)
}

// BookedSource yields the active appointments occupying a provider's day.
type BookedSource interface {
	FindActive(ctx context.Context, providerID uuid.UUID, date time.Time) ([]appointment.Appointment, error)
}

// Generator computes bookable start times for a provider and date. Results
// depend on live booking state, so they are recomputed on every call and must
// never be cached across calls.
type Generator struct {
	templates   TemplateSource
	booked      BookedSource
	durationMin int
	now         func() time.Time
}

func NewGenerator(templates TemplateSource, booked BookedSource, durationMin int) *Generator {
	if durationMin <= 0 {
		durationMin = 30
	}
	return &Generator{
		templates:   templates,
		booked:      booked,
		durationMin: durationMin,
		now:         time.Now,
	}
}

// Grid returns the template's candidate ticks for the date in minutes since
// midnight: fixed-duration steps inside the working window, minus any tick
// whose occupied interval crosses the window end or touches a break. Booked
// state is not consulted. Past dates and unavailable weekdays yield nil.
func (g *Generator) Grid(ctx context.Context, providerID uuid.UUID, date time.Time) ([]int, error) {
	if DateOnly(date).Before(DateOnly(g.now())) {
		return nil, nil
	}

	tmpl, err := g.templates.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}

	entry, ok := tmpl.Entry(date.Weekday())
	if !ok || !entry.IsAvailable {
		return nil, nil
	}

	var ticks []int
	for tick := entry.StartMin; tick+g.durationMin <= entry.EndMin; tick += g.durationMin {
		if overlapsBreak(tick, tick+g.durationMin, entry.Breaks) {
			continue
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}

// Slots returns the grid minus already-booked times, ascending, as "HH:MM"
// strings.
func (g *Generator) Slots(ctx context.Context, providerID uuid.UUID, date time.Time) ([]string, error) {
	ticks, err := g.Grid(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, nil
	}

	active, err := g.booked.FindActive(ctx, providerID, DateOnly(date))
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(active))
	for _, a := range active {
		taken[a.Time] = true
	}

	out := make([]string, 0, len(ticks))
	for _, tick := range ticks {
		hhmm := availability.FormatClock(tick)
		if taken[hhmm] {
			continue
		}
		out = append(out, hhmm)
	}
	return out, nil
}

// overlapsBreak reports whether [start, end) intersects any break. Breaks are
// normalized, so partial overlap is enough to drop the tick.
func overlapsBreak(start, end int, breaks []availability.Break) bool {
	for _, b := range breaks {
		if start < b.End && b.Start < end {
			return true
		}
	}
	return false
}

// DateOnly truncates an instant to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
