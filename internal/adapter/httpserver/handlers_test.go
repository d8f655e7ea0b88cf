package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karthick9298/hostel-flavour/internal/analytics"
	"github.com/Karthick9298/hostel-flavour/internal/app"
	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/delegate"
	"github.com/Karthick9298/hostel-flavour/internal/domain"
	"github.com/Karthick9298/hostel-flavour/internal/platform/config"
	apperrors "github.com/Karthick9298/hostel-flavour/internal/platform/errors"
)

// --- Mock service ---

type mockService struct {
	submitFeedbackFn     func(ctx context.Context, residentID uuid.UUID, meal domain.MealType, rating float64, comment string) (app.SubmissionResult, error)
	todayFn              func(ctx context.Context, residentID uuid.UUID) (app.TodayFeedback, error)
	participationFn      func(ctx context.Context, day civilday.Day) (app.DayParticipation, error)
	listFeedbackFn       func(ctx context.Context, window civilday.Window, residentID *uuid.UUID, meal *domain.MealType, page, perPage int) (app.FeedbackPage, error)
	commentsFn           func(ctx context.Context, window civilday.Window, meal *domain.MealType) ([]app.MealComment, error)
	dashboardFn          func(ctx context.Context, period string, day civilday.Day) (analytics.Report, error)
	dailyAnalysisFn      func(ctx context.Context, day civilday.Day) (app.AnalysisResult, error)
	weeklyAnalysisFn     func(ctx context.Context, day civilday.Day) (app.AnalysisResult, error)
	historicalAnalysisFn func(ctx context.Context, window civilday.Window, mode delegate.Mode) (app.AnalysisResult, error)
}

func (m *mockService) SubmitFeedback(ctx context.Context, residentID uuid.UUID, meal domain.MealType, rating float64, comment string) (app.SubmissionResult, error) {
	if m.submitFeedbackFn != nil {
		return m.submitFeedbackFn(ctx, residentID, meal, rating, comment)
	}
	return app.SubmissionResult{}, fmt.Errorf("not implemented")
}

func (m *mockService) Today(ctx context.Context, residentID uuid.UUID) (app.TodayFeedback, error) {
	if m.todayFn != nil {
		return m.todayFn(ctx, residentID)
	}
	return app.TodayFeedback{}, fmt.Errorf("not implemented")
}

func (m *mockService) Participation(ctx context.Context, day civilday.Day) (app.DayParticipation, error) {
	if m.participationFn != nil {
		return m.participationFn(ctx, day)
	}
	return app.DayParticipation{}, fmt.Errorf("not implemented")
}

func (m *mockService) ListFeedback(ctx context.Context, window civilday.Window, residentID *uuid.UUID, meal *domain.MealType, page, perPage int) (app.FeedbackPage, error) {
	if m.listFeedbackFn != nil {
		return m.listFeedbackFn(ctx, window, residentID, meal, page, perPage)
	}
	return app.FeedbackPage{}, fmt.Errorf("not implemented")
}

func (m *mockService) Comments(ctx context.Context, window civilday.Window, meal *domain.MealType) ([]app.MealComment, error) {
	if m.commentsFn != nil {
		return m.commentsFn(ctx, window, meal)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockService) Dashboard(ctx context.Context, period string, day civilday.Day) (analytics.Report, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, period, day)
	}
	return analytics.Report{}, fmt.Errorf("not implemented")
}

func (m *mockService) DailyAnalysis(ctx context.Context, day civilday.Day) (app.AnalysisResult, error) {
	if m.dailyAnalysisFn != nil {
		return m.dailyAnalysisFn(ctx, day)
	}
	return app.AnalysisResult{}, fmt.Errorf("not implemented")
}

func (m *mockService) WeeklyAnalysis(ctx context.Context, day civilday.Day) (app.AnalysisResult, error) {
	if m.weeklyAnalysisFn != nil {
		return m.weeklyAnalysisFn(ctx, day)
	}
	return app.AnalysisResult{}, fmt.Errorf("not implemented")
}

func (m *mockService) HistoricalAnalysis(ctx context.Context, window civilday.Window, mode delegate.Mode) (app.AnalysisResult, error) {
	if m.historicalAnalysisFn != nil {
		return m.historicalAnalysisFn(ctx, window, mode)
	}
	return app.AnalysisResult{}, fmt.Errorf("not implemented")
}

// --- Helpers ---

// 10:00 local on 2024-03-14.
var testInstant = time.Date(2024, time.March, 14, 4, 30, 0, 0, time.UTC)

var today = civilday.Day{Year: 2024, Month: time.March, Date: 14}

func newTestServer(svc feedbackService) *Server {
	cfg := &config.Config{
		AppEnv:             "test",
		Port:               "0",
		RateLimitPerMinute: 100000,
	}
	clock := civilday.NewClock(clockwork.NewFakeClockAt(testInstant))
	return NewServer(cfg, svc, clock, nil, nil, nil)
}

func doRequest(srv *Server, method, target string, body string, residentID string, admin bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if residentID != "" {
		req.Header.Set(headerResidentID, residentID)
	}
	if admin {
		req.Header.Set(headerResidentRole, roleAdmin)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

// --- Submit ---

func TestHandleSubmitFeedback_Success(t *testing.T) {
	residentID := uuid.New()
	rating := 4.5

	svc := &mockService{
		submitFeedbackFn: func(_ context.Context, rid uuid.UUID, meal domain.MealType, r float64, comment string) (app.SubmissionResult, error) {
			assert.Equal(t, residentID, rid)
			assert.Equal(t, domain.MealMorning, meal)
			assert.Equal(t, 4.5, r)
			assert.Equal(t, "great sambar", comment)
			return app.SubmissionResult{
				Meal:  meal,
				Entry: domain.MealEntry{Rating: &rating, Comment: comment},
				Stats: domain.SubmissionStats{TotalMeals: 4, SubmittedMeals: 1, PendingMeals: 3},
			}, nil
		},
	}
	srv := newTestServer(svc)

	body := `{"mealType":"morning","rating":4.5,"comment":"great sambar"}`
	rec := doRequest(srv, http.MethodPost, "/api/feedback/submit", body, residentID.String(), false)

	require.Equal(t, http.StatusCreated, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "success", response["status"])
	assert.Equal(t, "Morning meal feedback submitted successfully", response["message"])
}

func TestHandleSubmitFeedback_InvalidMealType(t *testing.T) {
	srv := newTestServer(&mockService{})

	body := `{"mealType":"brunch","rating":4}`
	rec := doRequest(srv, http.MethodPost, "/api/feedback/submit", body, uuid.NewString(), false)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "error", response.Status)
	assert.Equal(t, "Invalid meal type", response.Message)
}

func TestHandleSubmitFeedback_MissingIdentity(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodPost, "/api/feedback/submit", `{"mealType":"morning","rating":4}`, "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSubmitFeedback_MalformedIdentity(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodPost, "/api/feedback/submit", `{"mealType":"morning","rating":4}`, "not-a-uuid", false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitFeedback_EligibilityRejection(t *testing.T) {
	svc := &mockService{
		submitFeedbackFn: func(_ context.Context, _ uuid.UUID, _ domain.MealType, _ float64, _ string) (app.SubmissionResult, error) {
			return app.SubmissionResult{}, apperrors.EligibilityError("Meal already submitted")
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodPost, "/api/feedback/submit", `{"mealType":"morning","rating":4}`, uuid.NewString(), false)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Meal already submitted", response.Message)
	assert.Equal(t, apperrors.TypeEligibility, response.Type)
}

// --- My feedback ---

func TestHandleMyFeedback(t *testing.T) {
	residentID := uuid.New()
	svc := &mockService{
		todayFn: func(_ context.Context, rid uuid.UUID) (app.TodayFeedback, error) {
			assert.Equal(t, residentID, rid)
			return app.TodayFeedback{TotalSubmissionsToday: 12}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/feedback/my-feedback", "", residentID.String(), false)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Status string `json:"status"`
		Data   struct {
			TotalSubmissionsToday int `json:"totalSubmissionsToday"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "success", response.Status)
	assert.Equal(t, 12, response.Data.TotalSubmissionsToday)
}

// --- Submission stats ---

func TestHandleSubmissionStats_RequiresAdmin(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodGet, "/api/feedback/submission-stats", "", uuid.NewString(), false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleSubmissionStats(t *testing.T) {
	svc := &mockService{
		participationFn: func(_ context.Context, day civilday.Day) (app.DayParticipation, error) {
			assert.Equal(t, civilday.Day{Year: 2024, Month: time.March, Date: 10}, day)
			return app.DayParticipation{Date: day, TotalSubmissions: 7}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/feedback/submission-stats?date=2024-03-10", "", uuid.NewString(), true)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSubmissionStats_DefaultsToToday(t *testing.T) {
	svc := &mockService{
		participationFn: func(_ context.Context, day civilday.Day) (app.DayParticipation, error) {
			assert.Equal(t, today, day)
			return app.DayParticipation{Date: day}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/feedback/submission-stats", "", uuid.NewString(), true)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSubmissionStats_BadDate(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodGet, "/api/feedback/submission-stats?date=14-03-2024", "", uuid.NewString(), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- List ---

func TestHandleListFeedback(t *testing.T) {
	filtered := uuid.New()
	svc := &mockService{
		listFeedbackFn: func(_ context.Context, window civilday.Window, residentID *uuid.UUID, meal *domain.MealType, page, perPage int) (app.FeedbackPage, error) {
			assert.Equal(t, civilday.Day{Year: 2024, Month: time.March, Date: 1}, window.Start)
			assert.Equal(t, civilday.Day{Year: 2024, Month: time.March, Date: 10}, window.End)
			require.NotNil(t, residentID)
			assert.Equal(t, filtered, *residentID)
			assert.Equal(t, 2, page)
			assert.Equal(t, 25, perPage)
			return app.FeedbackPage{Page: 2, PerPage: 25, TotalItems: 60, TotalPages: 3}, nil
		},
	}
	srv := newTestServer(svc)

	target := "/api/feedback/all?startDate=2024-03-01&endDate=2024-03-10&residentId=" + filtered.String() + "&page=2&limit=25"
	rec := doRequest(srv, http.MethodGet, target, "", uuid.NewString(), true)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Pagination map[string]int `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Data.Pagination["currentPage"])
	assert.Equal(t, 3, response.Data.Pagination["totalPages"])
	assert.Equal(t, 60, response.Data.Pagination["totalItems"])
	assert.Equal(t, 25, response.Data.Pagination["itemsPerPage"])
}

func TestHandleListFeedback_DefaultWindow(t *testing.T) {
	svc := &mockService{
		listFeedbackFn: func(_ context.Context, window civilday.Window, residentID *uuid.UUID, meal *domain.MealType, page, perPage int) (app.FeedbackPage, error) {
			assert.Equal(t, today, window.End)
			assert.Equal(t, today.AddDays(-29), window.Start)
			assert.Nil(t, residentID)
			return app.FeedbackPage{}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/feedback/all", "", uuid.NewString(), true)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleListFeedback_InvertedWindow(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodGet, "/api/feedback/all?startDate=2024-03-10&endDate=2024-03-01", "", uuid.NewString(), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Comments ---

func TestHandleComments(t *testing.T) {
	svc := &mockService{
		commentsFn: func(_ context.Context, window civilday.Window, meal *domain.MealType) ([]app.MealComment, error) {
			assert.Equal(t, civilday.SingleDay(civilday.Day{Year: 2024, Month: time.March, Date: 10}), window)
			require.NotNil(t, meal)
			assert.Equal(t, domain.MealEvening, *meal)
			return []app.MealComment{{Meal: domain.MealEvening, Comment: "great dal"}}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/analytics/comments?date=2024-03-10&mealType=evening", "", uuid.NewString(), true)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Data struct {
			Comments      []app.MealComment `json:"comments"`
			TotalComments int               `json:"totalComments"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Data.TotalComments)
	require.Len(t, response.Data.Comments, 1)
	assert.Equal(t, "great dal", response.Data.Comments[0].Comment)
}

func TestHandleComments_DefaultWindow(t *testing.T) {
	svc := &mockService{
		commentsFn: func(_ context.Context, window civilday.Window, meal *domain.MealType) ([]app.MealComment, error) {
			assert.Equal(t, today, window.End)
			assert.Equal(t, today.AddDays(-29), window.Start)
			assert.Nil(t, meal)
			return nil, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/analytics/comments", "", uuid.NewString(), true)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleComments_InvalidMealType(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodGet, "/api/analytics/comments?mealType=brunch", "", uuid.NewString(), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Dashboard ---

func TestHandleDashboard_Defaults(t *testing.T) {
	svc := &mockService{
		dashboardFn: func(_ context.Context, period string, day civilday.Day) (analytics.Report, error) {
			assert.Equal(t, app.PeriodDaily, period)
			assert.Equal(t, today, day)
			return analytics.Report{TotalFeedbacks: 9}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/analytics/dashboard", "", uuid.NewString(), true)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Period string `json:"period"`
		Data   struct {
			TotalFeedbacks int `json:"totalFeedbacks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "daily", response.Period)
	assert.Equal(t, 9, response.Data.TotalFeedbacks)
}

func TestHandleDashboard_InvalidPeriodFromService(t *testing.T) {
	svc := &mockService{
		dashboardFn: func(_ context.Context, period string, _ civilday.Day) (analytics.Report, error) {
			return analytics.Report{}, apperrors.ValidationError("Invalid period. Use daily or weekly")
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/analytics/dashboard?period=monthly", "", uuid.NewString(), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDashboard_RequiresAdmin(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodGet, "/api/analytics/dashboard", "", uuid.NewString(), false)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// --- Deep analysis ---

func TestHandleDailyAnalysis_DelegatePassthrough(t *testing.T) {
	raw := json.RawMessage(`{"status":"success","type":"daily","data":{"insights":["ok"]}}`)
	svc := &mockService{
		dailyAnalysisFn: func(_ context.Context, day civilday.Day) (app.AnalysisResult, error) {
			assert.Equal(t, today, day)
			return app.AnalysisResult{
				Source:   app.SourceDelegate,
				Delegate: &delegate.Response{Status: delegate.StatusSuccess, Raw: raw},
			}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/analytics/daily-analysis", "", uuid.NewString(), true)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Source string          `json:"source"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "delegate", response.Source)
	assert.JSONEq(t, string(raw), string(response.Data))
}

func TestHandleWeeklyAnalysis_DegradedFallback(t *testing.T) {
	svc := &mockService{
		weeklyAnalysisFn: func(_ context.Context, _ civilday.Day) (app.AnalysisResult, error) {
			return app.AnalysisResult{
				Source:   app.SourceInternal,
				Report:   &analytics.Report{TotalFeedbacks: 3},
				Degraded: "script timed out",
			}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/analytics/weekly-analysis", "", uuid.NewString(), true)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Source   string `json:"source"`
		Degraded string `json:"degraded"`
		Data     struct {
			TotalFeedbacks int `json:"totalFeedbacks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "internal", response.Source)
	assert.Equal(t, "script timed out", response.Degraded)
	assert.Equal(t, 3, response.Data.TotalFeedbacks)
}

func TestHandleHistoricalAnalysis(t *testing.T) {
	svc := &mockService{
		historicalAnalysisFn: func(_ context.Context, window civilday.Window, mode delegate.Mode) (app.AnalysisResult, error) {
			assert.Equal(t, civilday.Day{Year: 2024, Month: time.March, Date: 1}, window.Start)
			assert.Equal(t, civilday.Day{Year: 2024, Month: time.March, Date: 7}, window.End)
			assert.Equal(t, delegate.ModeTrend, mode)
			return app.AnalysisResult{Source: app.SourceInternal, Report: &analytics.Report{}}, nil
		},
	}
	srv := newTestServer(svc)

	rec := doRequest(srv, http.MethodGet, "/api/analytics/historical-analysis?startDate=2024-03-01&endDate=2024-03-07&mode=trend", "", uuid.NewString(), true)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleHistoricalAnalysis_MissingDates(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodGet, "/api/analytics/historical-analysis", "", uuid.NewString(), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHistoricalAnalysis_InvalidMode(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodGet, "/api/analytics/historical-analysis?startDate=2024-03-01&endDate=2024-03-07&mode=vibes", "", uuid.NewString(), true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Health ---

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(&mockService{})

	rec := doRequest(srv, http.MethodGet, "/health/live", "", "", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

func TestHandleReadiness_FailingCheck(t *testing.T) {
	cfg := &config.Config{AppEnv: "test", Port: "0", RateLimitPerMinute: 100000}
	clock := civilday.NewClock(clockwork.NewFakeClockAt(testInstant))
	srv := NewServer(cfg, &mockService{}, clock, nil, nil, []HealthCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return fmt.Errorf("connection refused") }},
	})

	rec := doRequest(srv, http.MethodGet, "/health/ready", "", "", false)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "unhealthy", response["status"])
	assert.Equal(t, "postgres", response["failed_check"])
}
