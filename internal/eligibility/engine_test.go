package eligibility

import (
	"testing"
	"time"

	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// istInstant returns the UTC instant for the given IST wall-clock time.
func istInstant(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC).Add(-civilday.Offset)
}

func emptyRecord() domain.FeedbackRecord {
	return domain.EmptyRecord(uuid.New(), civilday.Day{Year: 2024, Month: time.March, Date: 14})
}

func TestEvaluate_LockedBeforeOpening(t *testing.T) {
	tests := []struct {
		meal domain.MealType
		hour int
	}{
		{domain.MealMorning, 8},
		{domain.MealAfternoon, 12},
		{domain.MealEvening, 16},
		{domain.MealNight, 19},
		{domain.MealMorning, 0},
		{domain.MealNight, 7},
	}

	for _, tt := range tests {
		now := istInstant(2024, 3, 14, tt.hour, 59)
		result := Evaluate(tt.meal, emptyRecord(), now)
		assert.Equal(t, StateLocked, result.State, "%s at %02d:59", tt.meal, tt.hour)
		assert.NotEmpty(t, result.Reason)
	}
}

func TestEvaluate_AvailableFromOpeningHour(t *testing.T) {
	tests := []struct {
		meal domain.MealType
		hour int
	}{
		{domain.MealMorning, 9},
		{domain.MealAfternoon, 13},
		{domain.MealEvening, 17},
		{domain.MealNight, 20},
		{domain.MealMorning, 23},
		{domain.MealNight, 23},
	}

	for _, tt := range tests {
		now := istInstant(2024, 3, 14, tt.hour, 0)
		result := Evaluate(tt.meal, emptyRecord(), now)
		assert.Equal(t, StateAvailable, result.State, "%s at %02d:00", tt.meal, tt.hour)
		assert.Empty(t, result.Reason)
	}
}

func TestEvaluate_AfternoonOpensAtOne(t *testing.T) {
	// The looser 11 AM read-side rule must not resurface anywhere.
	record := emptyRecord()

	result := Evaluate(domain.MealAfternoon, record, istInstant(2024, 3, 14, 11, 0))
	assert.Equal(t, StateLocked, result.State)
	assert.Contains(t, result.Reason, "after 1 PM")

	result = Evaluate(domain.MealAfternoon, record, istInstant(2024, 3, 14, 12, 59))
	assert.Equal(t, StateLocked, result.State)

	result = Evaluate(domain.MealAfternoon, record, istInstant(2024, 3, 14, 13, 0))
	assert.Equal(t, StateAvailable, result.State)
}

func TestEvaluate_SubmittedRegardlessOfHour(t *testing.T) {
	rating := 4.0
	submittedAt := istInstant(2024, 3, 14, 9, 30)

	record := emptyRecord()
	record.Meals.Set(domain.MealMorning, domain.MealEntry{
		Rating:      &rating,
		SubmittedAt: &submittedAt,
	})

	for _, hour := range []int{0, 8, 9, 15, 23} {
		result := Evaluate(domain.MealMorning, record, istInstant(2024, 3, 14, hour, 0))
		assert.Equal(t, StateSubmitted, result.State, "hour %d", hour)
		assert.Equal(t, "Meal already submitted", result.Reason)
	}
}

func TestEvaluate_ZeroRatingCountsAsSubmitted(t *testing.T) {
	rating := 0.0
	record := emptyRecord()
	record.Meals.Set(domain.MealEvening, domain.MealEntry{Rating: &rating})

	result := Evaluate(domain.MealEvening, record, istInstant(2024, 3, 14, 18, 0))
	assert.Equal(t, StateSubmitted, result.State)
}

func TestEvaluate_ReasonNamesOpeningHour(t *testing.T) {
	tests := []struct {
		meal   domain.MealType
		phrase string
	}{
		{domain.MealMorning, "after 9 AM"},
		{domain.MealAfternoon, "after 1 PM"},
		{domain.MealEvening, "after 5 PM"},
		{domain.MealNight, "after 8 PM"},
	}

	for _, tt := range tests {
		result := Evaluate(tt.meal, emptyRecord(), istInstant(2024, 3, 14, 1, 0))
		assert.Equal(t, StateLocked, result.State)
		assert.Contains(t, result.Reason, tt.phrase, "%s", tt.meal)
		assert.Contains(t, result.Reason, tt.meal.Title())
	}
}

func TestEvaluateAll(t *testing.T) {
	rating := 3.5
	record := emptyRecord()
	record.Meals.Set(domain.MealMorning, domain.MealEntry{Rating: &rating})

	// 17:30 IST: morning submitted, afternoon+evening open, night locked.
	results := EvaluateAll(record, istInstant(2024, 3, 14, 17, 30))

	assert.Equal(t, StateSubmitted, results.Get(domain.MealMorning).State)
	assert.Equal(t, StateAvailable, results.Get(domain.MealAfternoon).State)
	assert.Equal(t, StateAvailable, results.Get(domain.MealEvening).State)
	assert.Equal(t, StateLocked, results.Get(domain.MealNight).State)
}
