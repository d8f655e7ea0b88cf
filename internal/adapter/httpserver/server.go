// Package httpserver exposes the feedback and analytics API over HTTP.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Karthick9298/hostel-flavour/internal/analytics"
	"github.com/Karthick9298/hostel-flavour/internal/app"
	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/delegate"
	"github.com/Karthick9298/hostel-flavour/internal/domain"
	"github.com/Karthick9298/hostel-flavour/internal/platform/config"
)

type feedbackService interface {
	SubmitFeedback(ctx context.Context, residentID uuid.UUID, meal domain.MealType, rating float64, comment string) (app.SubmissionResult, error)
	Today(ctx context.Context, residentID uuid.UUID) (app.TodayFeedback, error)
	Participation(ctx context.Context, day civilday.Day) (app.DayParticipation, error)
	ListFeedback(ctx context.Context, window civilday.Window, residentID *uuid.UUID, meal *domain.MealType, page, perPage int) (app.FeedbackPage, error)
	Dashboard(ctx context.Context, period string, day civilday.Day) (analytics.Report, error)
	Comments(ctx context.Context, window civilday.Window, meal *domain.MealType) ([]app.MealComment, error)
	DailyAnalysis(ctx context.Context, day civilday.Day) (app.AnalysisResult, error)
	WeeklyAnalysis(ctx context.Context, day civilday.Day) (app.AnalysisResult, error)
	HistoricalAnalysis(ctx context.Context, window civilday.Window, mode delegate.Mode) (app.AnalysisResult, error)
}

// HealthCheck is a named health check function.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app   feedbackService
	clock civilday.Clock

	metricsHandler http.Handler
	middlewares    []echo.MiddlewareFunc
	healthChecks   []HealthCheck
	startTime      time.Time
}

// NewServer wires the HTTP layer. The extra middlewares run for every
// route, after recovery and request logging.
func NewServer(cfg *config.Config, app feedbackService, clock civilday.Clock, metricsHandler http.Handler, middlewares []echo.MiddlewareFunc, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            app,
		clock:          clock,
		metricsHandler: metricsHandler,
		middlewares:    middlewares,
		healthChecks:   healthChecks,
		startTime:      time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
