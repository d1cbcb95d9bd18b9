package availability

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Break is a non-bookable interval inside a working window, in minutes since
// midnight.
type Break struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Entry is the recurring working window for a single weekday.
type Entry struct {
	Weekday     time.Weekday
	StartMin    int
	EndMin      int
	IsAvailable bool
	Breaks      []Break
}

// Template is a provider's weekly availability: at most one entry per weekday.
type Template struct {
	ProviderID uuid.UUID
	Entries    []Entry
	UpdatedAt  time.Time
}

// Entry returns the template entry for the given weekday, if one exists.
func (t Template) Entry(d time.Weekday) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Weekday == d {
			return e, true
		}
	}
	return Entry{}, false
}

// ParseClock parses a 24-hour "HH:MM" string into minutes since midnight.
// A single-digit hour is accepted, minutes must be two digits.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a lowercase day name ("monday") to its weekday.
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// WeekdayName is the wire spelling of a weekday.
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// NormalizeBreaks sorts breaks by start and merges any that overlap or touch.
// The slot generator only ever sees normalized breaks.
func NormalizeBreaks(breaks []Break) []Break {
	if len(breaks) == 0 {
		return nil
	}
	sorted := make([]Break, len(breaks))
	copy(sorted, breaks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := sorted[:1]
	for _, b := range sorted[1:] {
		last := &out[len(out)-1]
		if b.Start <= last.End {
			if b.End > last.End {
				last.End = b.End
			}
			continue
		}
		out = append(out, b)
	}
	return out
}
