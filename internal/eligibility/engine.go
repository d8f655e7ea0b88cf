// Package eligibility decides whether a meal slot may be rated right now.
//
// Pure decision logic: no clocks, no storage. Callers pass the instant and
// the record they already hold.
package eligibility

import (
	"fmt"
	"time"

	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/domain"
)

// State is the eligibility outcome for a (meal, day, resident) triple.
type State string

const (
	// StateSubmitted means the slot already carries a rating.
	StateSubmitted State = "submitted"
	// StateLocked means the meal window has not opened yet today.
	StateLocked State = "locked"
	// StateAvailable means the slot may be rated now.
	StateAvailable State = "available"
)

// Result carries the state plus a reason specific enough for a UI to
// explain a rejection.
type Result struct {
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// Opening hours per meal window (offset-adjusted hour of day). Windows stay
// open through 23:59; the only close is the civil day rolling over. The
// afternoon window opens at 13 on every path, write and preview alike.
var openingHours = map[domain.MealType]int{
	domain.MealMorning:   9,
	domain.MealAfternoon: 13,
	domain.MealEvening:   17,
	domain.MealNight:     20,
}

// OpeningHour returns the offset-adjusted hour a meal window opens.
func OpeningHour(meal domain.MealType) int {
	return openingHours[meal]
}

// Evaluate returns the eligibility state for a meal slot of a record at the
// given instant. Submitted wins over everything; otherwise the window's
// opening hour decides between Locked and Available.
func Evaluate(meal domain.MealType, record domain.FeedbackRecord, now time.Time) Result {
	if record.Meals.Get(meal).Submitted() {
		return Result{State: StateSubmitted, Reason: "Meal already submitted"}
	}

	hour := civilday.LocalHour(now)
	opening := openingHours[meal]
	if hour < opening {
		return Result{
			State:  StateLocked,
			Reason: fmt.Sprintf("%s meal feedback can only be submitted after %s", meal.Title(), formatHour(opening)),
		}
	}

	return Result{State: StateAvailable}
}

// EvaluateAll returns the per-slot eligibility for a whole record, for the
// client-facing "can I submit" preview. Same rules as Evaluate on every slot.
func EvaluateAll(record domain.FeedbackRecord, now time.Time) domain.MealSet[Result] {
	var results domain.MealSet[Result]
	for _, meal := range domain.MealTypes() {
		results.Set(meal, Evaluate(meal, record, now))
	}
	return results
}

func formatHour(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}
