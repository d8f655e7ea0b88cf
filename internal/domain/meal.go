package domain

import "fmt"

// MealType identifies one of the four daily meal slots.
type MealType string

const (
	MealMorning   MealType = "morning"
	MealAfternoon MealType = "afternoon"
	MealEvening   MealType = "evening"
	MealNight     MealType = "night"
)

// MealTypes returns the meal slots in canonical order. Aggregation
// tie-breaks and stats listings depend on this order.
func MealTypes() [4]MealType {
	return [4]MealType{MealMorning, MealAfternoon, MealEvening, MealNight}
}

// ParseMealType validates a raw meal type string.
func ParseMealType(s string) (MealType, error) {
	switch MealType(s) {
	case MealMorning, MealAfternoon, MealEvening, MealNight:
		return MealType(s), nil
	}
	return "", fmt.Errorf("invalid meal type %q", s)
}

// Title returns the meal name with a leading capital, for user-facing messages.
func (m MealType) Title() string {
	if m == "" {
		return ""
	}
	s := string(m)
	return string(s[0]-'a'+'A') + s[1:]
}

// MealSet holds one value per meal slot. It replaces string-indexed map
// access with compile-time-checked fields plus a small dispatch table.
type MealSet[T any] struct {
	Morning   T `json:"morning"`
	Afternoon T `json:"afternoon"`
	Evening   T `json:"evening"`
	Night     T `json:"night"`
}

// Get returns the slot value for a meal type.
func (s MealSet[T]) Get(m MealType) T {
	switch m {
	case MealAfternoon:
		return s.Afternoon
	case MealEvening:
		return s.Evening
	case MealNight:
		return s.Night
	default:
		return s.Morning
	}
}

// Set stores v into the slot for a meal type.
func (s *MealSet[T]) Set(m MealType, v T) {
	switch m {
	case MealMorning:
		s.Morning = v
	case MealAfternoon:
		s.Afternoon = v
	case MealEvening:
		s.Evening = v
	case MealNight:
		s.Night = v
	}
}
