package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Window length limits per weekday entry, in minutes.
const (
	minWindowMinutes = 30
	maxWindowMinutes = 480
)

// BreakInput is an unvalidated break interval in "HH:MM" form.
type BreakInput struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EntryInput is an unvalidated weekday entry as submitted by a provider.
type EntryInput struct {
	Weekday     string       `json:"weekday"`
	StartTime   string       `json:"start_time"`
	EndTime     string       `json:"end_time"`
	IsAvailable bool         `json:"is_available"`
	Breaks      []BreakInput `json:"breaks,omitempty"`
}

// ValidationError reports every rule a template write violated, not just the
// first one found.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid availability template: " + strings.Join(e.Violations, "; ")
}

// BuildTemplate validates entries and assembles a normalized Template. On any
// violation it returns a single *ValidationError listing all of them.
func BuildTemplate(providerID uuid.UUID, inputs []EntryInput) (Template, error) {
	var violations []string
	seen := make(map[time.Weekday]bool, len(inputs))
	entries := make([]Entry, 0, len(inputs))

	for i, in := range inputs {
		label := fmt.Sprintf("entry %d", i)

		day, ok := ParseWeekday(in.Weekday)
		if !ok {
			violations = append(violations, fmt.Sprintf("%s: unknown weekday %q", label, in.Weekday))
		} else {
			label = fmt.Sprintf("entry %d (%s)", i, WeekdayName(day))
			if seen[day] {
				violations = append(violations, fmt.Sprintf("%s: duplicate weekday", label))
			}
			seen[day] = true
		}

		startMin, startErr := ParseClock(in.StartTime)
		if startErr != nil {
			violations = append(violations, fmt.Sprintf("%s: %v", label, startErr))
		}
		endMin, endErr := ParseClock(in.EndTime)
		if endErr != nil {
			violations = append(violations, fmt.Sprintf("%s: %v", label, endErr))
		}

		windowOK := startErr == nil && endErr == nil
		if windowOK {
			switch {
			case endMin <= startMin:
				violations = append(violations, fmt.Sprintf("%s: end time must be after start time", label))
				windowOK = false
			case endMin-startMin < minWindowMinutes:
				violations = append(violations, fmt.Sprintf("%s: working window must be at least %d minutes", label, minWindowMinutes))
			case endMin-startMin > maxWindowMinutes:
				violations = append(violations, fmt.Sprintf("%s: working window cannot exceed %d minutes", label, maxWindowMinutes))
			}
		}

		breaks := make([]Break, 0, len(in.Breaks))
		for j, br := range in.Breaks {
			bStart, err1 := ParseClock(br.Start)
			if err1 != nil {
				violations = append(violations, fmt.Sprintf("%s break %d: %v", label, j, err1))
			}
			bEnd, err2 := ParseClock(br.End)
			if err2 != nil {
				violations = append(violations, fmt.Sprintf("%s break %d: %v", label, j, err2))
			}
			if err1 != nil || err2 != nil {
				continue
			}
			if bEnd <= bStart {
				violations = append(violations, fmt.Sprintf("%s break %d: end must be after start", label, j))
				continue
			}
			if windowOK && (bStart < startMin || bEnd > endMin) {
				violations = append(violations, fmt.Sprintf("%s break %d: must lie inside the working window", label, j))
			}
			breaks = append(breaks, Break{Start: bStart, End: bEnd})
		}

		for j := 0; j < len(breaks); j++ {
			for k := j + 1; k < len(breaks); k++ {
				if breaks[j].Start < breaks[k].End && breaks[k].Start < breaks[j].End {
					violations = append(violations, fmt.Sprintf("%s: breaks %d and %d overlap", label, j, k))
				}
			}
		}

		if day, ok := ParseWeekday(in.Weekday); ok {
			entries = append(entries, Entry{
				Weekday:     day,
				StartMin:    startMin,
				EndMin:      endMin,
				IsAvailable: in.IsAvailable,
				Breaks:      NormalizeBreaks(breaks),
			})
		}
	}

	if len(violations) > 0 {
		return Template{}, &ValidationError{Violations: violations}
	}

	return Template{ProviderID: providerID, Entries: entries}, nil
}
