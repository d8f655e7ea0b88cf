// Package app is the application layer, the only component that references
// multiple domain components. It orchestrates all use cases.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Karthick9298/hostel-flavour/internal/adapter/metrics"
	"github.com/Karthick9298/hostel-flavour/internal/analytics"
	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/delegate"
	"github.com/Karthick9298/hostel-flavour/internal/domain"
	"github.com/Karthick9298/hostel-flavour/internal/eligibility"
	apperrors "github.com/Karthick9298/hostel-flavour/internal/platform/errors"
	"github.com/Karthick9298/hostel-flavour/internal/platform/retry"
)

// AnalysisDelegate runs the external analysis scripts.
type AnalysisDelegate interface {
	Daily(ctx context.Context, day civilday.Day) (delegate.Response, error)
	Weekly(ctx context.Context, day civilday.Day) (delegate.Response, error)
	Historical(ctx context.Context, window civilday.Window, mode delegate.Mode) (delegate.Response, error)
}

// Options carries the service knobs that are not collaborators.
type Options struct {
	CacheTTL       time.Duration
	TotalResidents int
	Feedback       *metrics.FeedbackMetrics
	Analysis       *metrics.AnalysisMetrics
}

// Service orchestrates feedback submission and analytics.
type Service struct {
	records domain.FeedbackRepository
	cache   domain.ReportCache
	bridge  AnalysisDelegate
	clock   civilday.Clock

	cacheTTL       time.Duration
	totalResidents int

	feedback *metrics.FeedbackMetrics
	analysis *metrics.AnalysisMetrics

	reportGroup singleflight.Group
	breaker     *gobreaker.CircuitBreaker[delegate.Response]
}

// NewService creates the application layer service. bridge may be nil when
// no analysis scripts are configured; analysis requests are then served by
// the internal aggregation engine.
func NewService(records domain.FeedbackRepository, cache domain.ReportCache, bridge AnalysisDelegate, clock civilday.Clock, opts Options) *Service {
	breaker := gobreaker.NewCircuitBreaker[delegate.Response](gobreaker.Settings{
		Name:    "analysis-delegate",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Service{
		records:        records,
		cache:          cache,
		bridge:         bridge,
		clock:          clock,
		cacheTTL:       opts.CacheTTL,
		totalResidents: opts.TotalResidents,
		feedback:       opts.Feedback,
		analysis:       opts.Analysis,
		breaker:        breaker,
	}
}

// SubmissionResult is the outcome of an accepted submission.
type SubmissionResult struct {
	Meal  domain.MealType        `json:"mealType"`
	Entry domain.MealEntry       `json:"feedback"`
	Stats domain.SubmissionStats `json:"stats"`
}

// SubmitFeedback validates and writes one meal rating for the current civil
// day. Losing the first-ever record creation race surfaces as a constraint
// violation from the store; the whole submission is retried once against
// the now-existing record.
func (s *Service) SubmitFeedback(ctx context.Context, residentID uuid.UUID, meal domain.MealType, rating float64, comment string) (SubmissionResult, error) {
	if rating < 0 || rating > 5 {
		return SubmissionResult{}, apperrors.ValidationError("Rating must be between 0 and 5")
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > domain.MaxCommentLength {
		return SubmissionResult{}, apperrors.ValidationError("Comment cannot exceed 500 characters")
	}

	policy := retry.Policy{
		MaxAttempts:    2,
		InitialBackoff: 10 * time.Millisecond,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			s.feedback.CreationRetries.Inc()
			slog.Warn("lost record creation race, retrying submission",
				"resident_id", residentID, "meal", meal, "error", err)
		},
	}
	classify := func(err error) retry.Action {
		if errors.Is(err, domain.ErrConstraintViolation) {
			return retry.Retry
		}
		return retry.Stop
	}

	result, err := retry.Do(ctx, policy, classify, func() (SubmissionResult, error) {
		return s.submitOnce(ctx, residentID, meal, rating, comment)
	})
	if err != nil {
		var perm *retry.PermanentError
		if errors.As(err, &perm) {
			return SubmissionResult{}, perm.Err
		}
		return SubmissionResult{}, err
	}

	s.feedback.Submissions.WithLabelValues(string(meal)).Inc()
	return result, nil
}

func (s *Service) submitOnce(ctx context.Context, residentID uuid.UUID, meal domain.MealType, rating float64, comment string) (SubmissionResult, error) {
	now := s.clock.Now()
	day := s.clock.Today()

	view, err := s.records.FindOrInit(ctx, residentID, day)
	if err != nil {
		return SubmissionResult{}, storeError(err)
	}

	if res := eligibility.Evaluate(meal, view.Record, now); res.State != eligibility.StateAvailable {
		s.feedback.EligibilityRejections.WithLabelValues(string(meal), string(res.State)).Inc()
		return SubmissionResult{}, apperrors.EligibilityError(res.Reason)
	}

	record := view.Record
	if !view.Persisted {
		record, err = s.records.EnsureRecord(ctx, residentID, day)
		if err != nil {
			return SubmissionResult{}, storeError(err)
		}
		// The row may have been created by a concurrent request that
		// already rated this slot; re-check against the fresh record.
		if res := eligibility.Evaluate(meal, record, now); res.State != eligibility.StateAvailable {
			s.feedback.EligibilityRejections.WithLabelValues(string(meal), string(res.State)).Inc()
			return SubmissionResult{}, apperrors.EligibilityError(res.Reason)
		}
	}

	entry := domain.MealEntry{Rating: &rating, Comment: comment, SubmittedAt: &now}
	if err := s.records.SetMealEntry(ctx, residentID, day, meal, entry); err != nil {
		if errors.Is(err, domain.ErrAlreadySubmitted) {
			s.feedback.EligibilityRejections.WithLabelValues(string(meal), string(eligibility.StateSubmitted)).Inc()
			return SubmissionResult{}, apperrors.EligibilityError("Meal already submitted")
		}
		return SubmissionResult{}, storeError(err)
	}

	record.Meals.Set(meal, entry)
	return SubmissionResult{Meal: meal, Entry: entry, Stats: record.Stats()}, nil
}

// TodayFeedback is a resident's view of the current civil day.
type TodayFeedback struct {
	Record                domain.RecordView                  `json:"feedback"`
	Stats                 domain.SubmissionStats             `json:"stats"`
	Eligibility           domain.MealSet[eligibility.Result] `json:"eligibility"`
	TotalSubmissionsToday int                                `json:"totalSubmissionsToday"`
}

// Today returns the resident's record for the current day, with per-slot
// eligibility and the day's participation count. Never creates rows.
func (s *Service) Today(ctx context.Context, residentID uuid.UUID) (TodayFeedback, error) {
	now := s.clock.Now()
	day := s.clock.Today()

	view, err := s.records.FindOrInit(ctx, residentID, day)
	if err != nil {
		return TodayFeedback{}, storeError(err)
	}

	count, err := s.records.CountByDay(ctx, day)
	if err != nil {
		return TodayFeedback{}, storeError(err)
	}

	return TodayFeedback{
		Record:                view,
		Stats:                 view.Record.Stats(),
		Eligibility:           eligibility.EvaluateAll(view.Record, now),
		TotalSubmissionsToday: count,
	}, nil
}

// DayParticipation summarizes how many residents rated each meal of a day.
type DayParticipation struct {
	Date             civilday.Day        `json:"date"`
	TotalResidents   int                 `json:"totalResidents"`
	TotalSubmissions int                 `json:"totalSubmissions"`
	MealCounts       domain.MealSet[int] `json:"mealStats"`
	MealPercentages  domain.MealSet[int] `json:"mealPercentages"`
	OverallRate      int                 `json:"overallSubmissionRate"`
}

// Participation counts per-meal submissions for a day. Percentages stay at
// zero when the resident headcount is not configured.
func (s *Service) Participation(ctx context.Context, day civilday.Day) (DayParticipation, error) {
	records, err := s.records.FindRange(ctx, civilday.SingleDay(day), domain.ListOptions{})
	if err != nil {
		return DayParticipation{}, storeError(err)
	}

	result := DayParticipation{
		Date:             day,
		TotalResidents:   s.totalResidents,
		TotalSubmissions: len(records),
	}
	for _, meal := range domain.MealTypes() {
		count := 0
		for _, record := range records {
			if record.Meals.Get(meal).Submitted() {
				count++
			}
		}
		result.MealCounts.Set(meal, count)
		if s.totalResidents > 0 {
			result.MealPercentages.Set(meal, percentOf(count, s.totalResidents))
		}
	}
	if s.totalResidents > 0 {
		result.OverallRate = percentOf(len(records), s.totalResidents)
	}
	return result, nil
}

// FeedbackPage is one page of a range listing.
type FeedbackPage struct {
	Records    []domain.FeedbackRecord `json:"feedbacks"`
	Page       int                     `json:"currentPage"`
	PerPage    int                     `json:"itemsPerPage"`
	TotalItems int                     `json:"totalItems"`
	TotalPages int                     `json:"totalPages"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListFeedback pages through records in a window, newest day first. The
// optional meal filter drops records from the returned page whose slot for
// that meal is unrated; pagination totals still count every record in the
// window.
func (s *Service) ListFeedback(ctx context.Context, window civilday.Window, residentID *uuid.UUID, meal *domain.MealType, page, perPage int) (FeedbackPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPageSize {
		perPage = defaultPageSize
	}

	records, err := s.records.FindRange(ctx, window, domain.ListOptions{
		ResidentID: residentID,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	})
	if err != nil {
		return FeedbackPage{}, storeError(err)
	}

	total, err := s.records.CountRange(ctx, window, residentID)
	if err != nil {
		return FeedbackPage{}, storeError(err)
	}

	if meal != nil {
		filtered := records[:0]
		for _, record := range records {
			if record.Meals.Get(*meal).Submitted() {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	return FeedbackPage{
		Records:    records,
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Dashboard periods.
const (
	PeriodDaily  = "daily"
	PeriodWeekly = "weekly"
)

// Dashboard computes the aggregate report for a period ending at day. A
// weekly period covers the trailing seven days. Reports are cached and
// concurrent recomputations of the same key are collapsed.
func (s *Service) Dashboard(ctx context.Context, period string, day civilday.Day) (analytics.Report, error) {
	window, err := periodWindow(period, day)
	if err != nil {
		return analytics.Report{}, err
	}

	key := fmt.Sprintf("%s:%s", period, day)

	if payload, found, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("report cache read failed", "key", key, "error", err)
	} else if found {
		var report analytics.Report
		if err := json.Unmarshal(payload, &report); err == nil {
			s.analysis.CacheHits.Inc()
			return report, nil
		}
		slog.Warn("discarding undecodable cached report", "key", key, "error", err)
	}
	s.analysis.CacheMisses.Inc()

	v, err, _ := s.reportGroup.Do(key, func() (any, error) {
		records, err := s.records.FindRange(ctx, window, domain.ListOptions{})
		if err != nil {
			return nil, storeError(err)
		}

		report := analytics.Aggregate(records, window)

		if payload, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
				slog.Warn("report cache write failed", "key", key, "error", err)
			}
		}
		return report, nil
	})
	if err != nil {
		return analytics.Report{}, err
	}
	return v.(analytics.Report), nil
}

func periodWindow(period string, day civilday.Day) (civilday.Window, error) {
	switch period {
	case PeriodDaily:
		return civilday.SingleDay(day), nil
	case PeriodWeekly:
		return civilday.NewWindow(day.AddDays(-6), day)
	default:
		return civilday.Window{}, apperrors.ValidationError("Invalid period. Use daily or weekly")
	}
}

// MealComment is one resident's written remark on a meal slot.
type MealComment struct {
	ResidentID  uuid.UUID       `json:"residentId"`
	Date        civilday.Day    `json:"date"`
	Meal        domain.MealType `json:"mealType"`
	Rating      *float64        `json:"rating"`
	Comment     string          `json:"comment"`
	SubmittedAt *time.Time      `json:"submittedAt"`
}

// Comments lists every non-empty comment in a window, newest submission
// first. The optional meal filter restricts which slots are inspected.
func (s *Service) Comments(ctx context.Context, window civilday.Window, meal *domain.MealType) ([]MealComment, error) {
	records, err := s.records.FindRange(ctx, window, domain.ListOptions{})
	if err != nil {
		return nil, storeError(err)
	}

	meals := domain.MealTypes()
	selected := meals[:]
	if meal != nil {
		selected = []domain.MealType{*meal}
	}

	comments := make([]MealComment, 0)
	for _, record := range records {
		for _, m := range selected {
			entry := record.Meals.Get(m)
			if strings.TrimSpace(entry.Comment) == "" {
				continue
			}
			comments = append(comments, MealComment{
				ResidentID:  record.ResidentID,
				Date:        record.Day,
				Meal:        m,
				Rating:      entry.Rating,
				Comment:     entry.Comment,
				SubmittedAt: entry.SubmittedAt,
			})
		}
	}

	sort.SliceStable(comments, func(i, j int) bool {
		return submissionTime(comments[i]).After(submissionTime(comments[j]))
	})
	return comments, nil
}

func submissionTime(c MealComment) time.Time {
	if c.SubmittedAt == nil {
		return time.Time{}
	}
	return *c.SubmittedAt
}

// AnalysisSource says which engine produced an analysis result.
type AnalysisSource string

const (
	SourceDelegate AnalysisSource = "delegate"
	SourceInternal AnalysisSource = "internal"
)

// AnalysisResult is either the delegate's verbatim response or the internal
// engine's report when the delegate is unavailable.
type AnalysisResult struct {
	Source   AnalysisSource     `json:"source"`
	Delegate *delegate.Response `json:"-"`
	Report   *analytics.Report  `json:"report,omitempty"`
	Degraded string             `json:"degraded,omitempty"`
}

// DailyAnalysis runs the external daily analysis for a day.
func (s *Service) DailyAnalysis(ctx context.Context, day civilday.Day) (AnalysisResult, error) {
	return s.delegateOrFallback(ctx, delegate.ScriptDaily, civilday.SingleDay(day), func(ctx context.Context) (delegate.Response, error) {
		return s.bridge.Daily(ctx, day)
	})
}

// WeeklyAnalysis runs the external analysis for the week ending at day.
func (s *Service) WeeklyAnalysis(ctx context.Context, day civilday.Day) (AnalysisResult, error) {
	window, err := civilday.NewWindow(day.AddDays(-6), day)
	if err != nil {
		return AnalysisResult{}, apperrors.InternalError("invalid weekly window", err)
	}
	return s.delegateOrFallback(ctx, delegate.ScriptWeekly, window, func(ctx context.Context) (delegate.Response, error) {
		return s.bridge.Weekly(ctx, day)
	})
}

// HistoricalAnalysis runs the external multi-day analysis over a window.
func (s *Service) HistoricalAnalysis(ctx context.Context, window civilday.Window, mode delegate.Mode) (AnalysisResult, error) {
	return s.delegateOrFallback(ctx, delegate.ScriptHistorical, window, func(ctx context.Context) (delegate.Response, error) {
		return s.bridge.Historical(ctx, window, mode)
	})
}

// delegateOrFallback invokes the analysis delegate behind the circuit
// breaker. Any delegate failure degrades to the internal aggregation
// engine; the failure is logged and reported, never swallowed silently.
func (s *Service) delegateOrFallback(ctx context.Context, script string, window civilday.Window, invoke func(context.Context) (delegate.Response, error)) (AnalysisResult, error) {
	var degraded string

	if s.bridge != nil {
		start := time.Now()
		resp, err := s.breaker.Execute(func() (delegate.Response, error) {
			return invoke(ctx)
		})
		s.analysis.DelegateDuration.WithLabelValues(script).Observe(time.Since(start).Seconds())

		if err == nil {
			s.analysis.DelegateInvocations.WithLabelValues(script, "success").Inc()
			return AnalysisResult{Source: SourceDelegate, Delegate: &resp}, nil
		}

		outcome := "error"
		switch {
		case errors.Is(err, delegate.ErrTimeout):
			outcome = "timeout"
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "open"
		}
		s.analysis.DelegateInvocations.WithLabelValues(script, outcome).Inc()
		slog.Warn("analysis delegate unavailable, serving internal aggregation",
			"script", script, "error", err)
		degraded = err.Error()
	}

	records, err := s.records.FindRange(ctx, window, domain.ListOptions{})
	if err != nil {
		return AnalysisResult{}, storeError(err)
	}
	report := analytics.Aggregate(records, window)
	return AnalysisResult{Source: SourceInternal, Report: &report, Degraded: degraded}, nil
}

func percentOf(part, whole int) int {
	return int(float64(part)/float64(whole)*100 + 0.5)
}

// storeError maps repository sentinels onto the structured error taxonomy.
// Constraint violations keep their sentinel in the chain so the submission
// retry can classify them.
func storeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrConnectivity):
		return apperrors.ConnectivityError("feedback store unreachable", err)
	case errors.Is(err, domain.ErrConstraintViolation):
		return apperrors.ConflictError("concurrent record creation", err)
	default:
		return err
	}
}
