package domain

import (
	"context"
	"time"

	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/google/uuid"
)

// MaxCommentLength is the longest accepted meal comment. Longer input is
// rejected outright rather than truncated.
const MaxCommentLength = 500

// MealEntry is one resident's rating for one meal slot. Rating moves from
// nil to a fixed value exactly once; the eligibility check guards against
// overwrites, and the store's conditional write enforces it under races.
type MealEntry struct {
	Rating      *float64   `json:"rating"`
	Comment     string     `json:"comment"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

// Submitted reports whether the slot has been rated.
func (e MealEntry) Submitted() bool {
	return e.Rating != nil
}

// FeedbackRecord is one resident's meal ratings for one civil day.
// At most one record exists per (ResidentID, Day) pair; the store's unique
// compound index enforces first-writer-wins under concurrent creation.
type FeedbackRecord struct {
	ID         uuid.UUID          `json:"id"`
	ResidentID uuid.UUID          `json:"residentId"`
	Day        civilday.Day       `json:"date"`
	Meals      MealSet[MealEntry] `json:"meals"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// EmptyRecord returns the unsubmitted shape of a record for a resident and day.
func EmptyRecord(residentID uuid.UUID, day civilday.Day) FeedbackRecord {
	return FeedbackRecord{ResidentID: residentID, Day: day}
}

// SubmissionStats summarizes how many meal slots of a record have been rated.
type SubmissionStats struct {
	TotalMeals         int        `json:"totalMeals"`
	SubmittedMeals     int        `json:"submittedMeals"`
	PendingMeals       int        `json:"pendingMeals"`
	SubmittedMealTypes []MealType `json:"submittedMealTypes"`
}

// Stats computes the record's submission statistics.
func (r FeedbackRecord) Stats() SubmissionStats {
	submitted := make([]MealType, 0, 4)
	for _, meal := range MealTypes() {
		if r.Meals.Get(meal).Submitted() {
			submitted = append(submitted, meal)
		}
	}
	return SubmissionStats{
		TotalMeals:         4,
		SubmittedMeals:     len(submitted),
		PendingMeals:       4 - len(submitted),
		SubmittedMealTypes: submitted,
	}
}

// RecordView is the tagged persisted-vs-unsubmitted variant. Reads for a day
// with no persisted record return an empty unsubmitted view instead of a
// lookalike record with a fabricated identity.
type RecordView struct {
	Persisted bool           `json:"persisted"`
	Record    FeedbackRecord `json:"record"`
}

// ListOptions narrows and pages a range read.
type ListOptions struct {
	ResidentID *uuid.UUID
	Limit      int
	Offset     int
}

// FeedbackRepository abstracts feedback persistence.
//
// SetMealEntry is the conditional-write primitive: it only lands when the
// slot's rating is still absent, which is what serializes the
// double-submission race described in the concurrency model.
type FeedbackRepository interface {
	FindOrInit(ctx context.Context, residentID uuid.UUID, day civilday.Day) (RecordView, error)
	EnsureRecord(ctx context.Context, residentID uuid.UUID, day civilday.Day) (FeedbackRecord, error)
	SetMealEntry(ctx context.Context, residentID uuid.UUID, day civilday.Day, meal MealType, entry MealEntry) error
	FindRange(ctx context.Context, window civilday.Window, opts ListOptions) ([]FeedbackRecord, error)
	CountRange(ctx context.Context, window civilday.Window, residentID *uuid.UUID) (int, error)
	CountByDay(ctx context.Context, day civilday.Day) (int, error)
}

// ReportCache caches serialized analytics reports keyed by window.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
