package availability

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTemplate_Valid(t *testing.T) {
	providerID := uuid.New()

	tmpl, err := BuildTemplate(providerID, []EntryInput{
		{
			Weekday:     "monday",
			StartTime:   "09:00",
			EndTime:     "12:00",
			IsAvailable: true,
			Breaks: []BreakInput{
				{Start: "10:00", End: "10:30"},
			},
		},
		{
			Weekday:     "wednesday",
			StartTime:   "13:00",
			EndTime:     "17:00",
			IsAvailable: false,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, providerID, tmpl.ProviderID)
	require.Len(t, tmpl.Entries, 2)

	monday, ok := tmpl.Entry(time.Monday)
	require.True(t, ok)
	assert.Equal(t, 540, monday.StartMin)
	assert.Equal(t, 720, monday.EndMin)
	assert.Equal(t, []Break{{Start: 600, End: 630}}, monday.Breaks)
}

func TestBuildTemplate_AggregatesAllViolations(t *testing.T) {
	_, err := BuildTemplate(uuid.New(), []EntryInput{
		{
			Weekday:   "funday",  // unknown weekday
			StartTime: "25:00",   // bad hour
			EndTime:   "xx",      // unparseable
		},
		{
			Weekday:   "monday",
			StartTime: "10:00",
			EndTime:   "09:00", // end before start
		},
	})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.GreaterOrEqual(t, len(vErr.Violations), 4)
}

func TestBuildTemplate_DuplicateWeekday(t *testing.T) {
	_, err := BuildTemplate(uuid.New(), []EntryInput{
		{Weekday: "monday", StartTime: "09:00", EndTime: "12:00", IsAvailable: true},
		{Weekday: "monday", StartTime: "13:00", EndTime: "17:00", IsAvailable: true},
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "duplicate weekday")
}

func TestBuildTemplate_BreakRules(t *testing.T) {
	tests := []struct {
		name   string
		breaks []BreakInput
		detail string
	}{
		{
			name:   "outside window",
			breaks: []BreakInput{{Start: "08:00", End: "08:30"}},
			detail: "inside the working window",
		},
		{
			name:   "inverted",
			breaks: []BreakInput{{Start: "10:30", End: "10:00"}},
			detail: "end must be after start",
		},
		{
			name: "overlapping pair",
			breaks: []BreakInput{
				{Start: "10:00", End: "11:00"},
				{Start: "10:30", End: "11:30"},
			},
			detail: "overlap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTemplate(uuid.New(), []EntryInput{{
				Weekday:     "tuesday",
				StartTime:   "09:00",
				EndTime:     "15:00",
				IsAvailable: true,
				Breaks:      tt.breaks,
			}})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Error(), tt.detail)
		})
	}
}

func TestBuildTemplate_WindowLengthLimits(t *testing.T) {
	_, err := BuildTemplate(uuid.New(), []EntryInput{
		{Weekday: "monday", StartTime: "09:00", EndTime: "09:15", IsAvailable: true},
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "at least 30 minutes")

	_, err = BuildTemplate(uuid.New(), []EntryInput{
		{Weekday: "monday", StartTime: "08:00", EndTime: "18:00", IsAvailable: true},
	})
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Error(), "cannot exceed 480 minutes")
}
