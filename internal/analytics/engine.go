// Package analytics turns raw feedback records into dashboard-ready
// statistics. Everything here is pure computation over the records a
// caller already fetched; storage and caching stay outside.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/domain"
)

// Distribution buckets ratings into five ranges. Buckets are half-open
// ([0,1), [1,2), ...) except the top one, which is closed on both ends so
// a rating of exactly 5 is counted instead of dropped.
type Distribution struct {
	OneStar   int `json:"1"`
	TwoStar   int `json:"2"`
	ThreeStar int `json:"3"`
	FourStar  int `json:"4"`
	FiveStar  int `json:"5"`
}

// MealRating names a meal together with its average rating.
type MealRating struct {
	Meal   domain.MealType `json:"meal"`
	Rating float64         `json:"rating"`
}

// TrendPoint is one day's per-meal averages in a multi-day window.
type TrendPoint struct {
	Date      civilday.Day `json:"date"`
	Morning   float64      `json:"morning"`
	Afternoon float64      `json:"afternoon"`
	Evening   float64      `json:"evening"`
	Night     float64      `json:"night"`
}

// Report is the aggregate view of a window of feedback records.
type Report struct {
	AverageRatings         domain.MealSet[float64]      `json:"averageRatings"`
	TotalSubmissions       domain.MealSet[int]          `json:"totalSubmissions"`
	RatingDistribution     domain.MealSet[Distribution] `json:"ratingDistribution"`
	SatisfactionPercentage domain.MealSet[int]          `json:"satisfactionPercentage"`
	Comments               []string                     `json:"comments"`
	KeyInsights            []string                     `json:"keyInsights"`
	BestMeal               *MealRating                  `json:"bestMeal"`
	WorstMeal              *MealRating                  `json:"worstMeal"`
	OverallSatisfaction    int                          `json:"overallSatisfaction"`
	TotalFeedbacks         int                          `json:"totalFeedbacks"`
	TrendData              []TrendPoint                 `json:"trendData,omitempty"`
}

const (
	satisfiedThreshold      = 3.0
	highSatisfactionPercent = 75
	lowSatisfactionPercent  = 50
	lowParticipationCount   = 20
	needsImprovementRating  = 3.0
)

// Aggregate computes the analytics report for records inside a window.
// Deterministic given the same inputs; trend data is emitted only when the
// window spans more than one day.
func Aggregate(records []domain.FeedbackRecord, window civilday.Window) Report {
	report := Report{
		Comments:       []string{},
		KeyInsights:    []string{},
		TotalFeedbacks: len(records),
	}

	for _, meal := range domain.MealTypes() {
		ratings := make([]float64, 0, len(records))
		for _, record := range records {
			entry := record.Meals.Get(meal)
			if !entry.Submitted() {
				continue
			}
			ratings = append(ratings, *entry.Rating)
			if entry.Comment != "" {
				report.Comments = append(report.Comments, entry.Comment)
			}
		}

		report.AverageRatings.Set(meal, round2(mean(ratings)))
		report.TotalSubmissions.Set(meal, len(ratings))
		report.RatingDistribution.Set(meal, distribute(ratings))
		report.SatisfactionPercentage.Set(meal, satisfactionPercent(ratings))
	}

	report.BestMeal, report.WorstMeal = bestAndWorst(report.AverageRatings, report.TotalSubmissions)

	// The overall rate divides by four unconditionally: a meal with zero
	// ratings contributes 0. Kept as-is pending a product decision.
	var satisfactionSum int
	var submissionSum int
	for _, meal := range domain.MealTypes() {
		satisfactionSum += report.SatisfactionPercentage.Get(meal)
		submissionSum += report.TotalSubmissions.Get(meal)
	}
	overall := float64(satisfactionSum) / 4
	report.OverallSatisfaction = int(math.Round(overall))

	report.KeyInsights = buildInsights(report.BestMeal, report.WorstMeal, overall, submissionSum)

	if window.MultiDay() {
		report.TrendData = buildTrend(records)
	}

	return report
}

func mean(ratings []float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func distribute(ratings []float64) Distribution {
	var d Distribution
	for _, r := range ratings {
		switch {
		case r < 1:
			d.OneStar++
		case r < 2:
			d.TwoStar++
		case r < 3:
			d.ThreeStar++
		case r < 4:
			d.FourStar++
		case r <= 5:
			d.FiveStar++
		}
	}
	return d
}

func satisfactionPercent(ratings []float64) int {
	if len(ratings) == 0 {
		return 0
	}
	var satisfied int
	for _, r := range ratings {
		if r >= satisfiedThreshold {
			satisfied++
		}
	}
	return int(math.Round(float64(satisfied) / float64(len(ratings)) * 100))
}

// bestAndWorst picks the highest and lowest average among meals with at
// least one rating. Strict comparisons keep the first meal in canonical
// order on ties.
func bestAndWorst(averages domain.MealSet[float64], counts domain.MealSet[int]) (best, worst *MealRating) {
	for _, meal := range domain.MealTypes() {
		if counts.Get(meal) == 0 {
			continue
		}
		avg := averages.Get(meal)
		if best == nil || avg > best.Rating {
			best = &MealRating{Meal: meal, Rating: avg}
		}
		if worst == nil || avg < worst.Rating {
			worst = &MealRating{Meal: meal, Rating: avg}
		}
	}
	return best, worst
}

func buildInsights(best, worst *MealRating, overallSatisfaction float64, totalSubmissions int) []string {
	insights := []string{}

	if best != nil && best.Rating > 0 {
		insights = append(insights, fmt.Sprintf("Best performing meal: %s with %s/5 rating", best.Meal, formatRating(best.Rating)))
	}
	if worst != nil && worst.Rating > 0 && worst.Rating < needsImprovementRating {
		insights = append(insights, fmt.Sprintf("Needs improvement: %s with %s/5 rating", worst.Meal, formatRating(worst.Rating)))
	}

	rounded := int(math.Round(overallSatisfaction))
	if overallSatisfaction > highSatisfactionPercent {
		insights = append(insights, fmt.Sprintf("High satisfaction rate: %d%% of residents are satisfied", rounded))
	} else if overallSatisfaction < lowSatisfactionPercent {
		insights = append(insights, fmt.Sprintf("Low satisfaction rate: Only %d%% of residents are satisfied", rounded))
	}

	if totalSubmissions < lowParticipationCount {
		insights = append(insights, "Low participation rate - consider encouraging more feedback submissions")
	}

	return insights
}

func buildTrend(records []domain.FeedbackRecord) []TrendPoint {
	grouped := make(map[civilday.Day][]domain.FeedbackRecord)
	for _, record := range records {
		grouped[record.Day] = append(grouped[record.Day], record)
	}

	trend := make([]TrendPoint, 0, len(grouped))
	for day, dayRecords := range grouped {
		point := TrendPoint{Date: day}
		point.Morning = dayAverage(dayRecords, domain.MealMorning)
		point.Afternoon = dayAverage(dayRecords, domain.MealAfternoon)
		point.Evening = dayAverage(dayRecords, domain.MealEvening)
		point.Night = dayAverage(dayRecords, domain.MealNight)
		trend = append(trend, point)
	}

	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Date.Before(trend[j].Date)
	})
	return trend
}

func dayAverage(records []domain.FeedbackRecord, meal domain.MealType) float64 {
	ratings := make([]float64, 0, len(records))
	for _, record := range records {
		if entry := record.Meals.Get(meal); entry.Submitted() {
			ratings = append(ratings, *entry.Rating)
		}
	}
	return round2(mean(ratings))
}

// formatRating renders an average without trailing zeros (4.5, not 4.50).
func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
