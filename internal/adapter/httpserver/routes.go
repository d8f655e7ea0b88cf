package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apperrors "github.com/Karthick9298/hostel-flavour/internal/platform/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         63072000, // 2 years; only sent over HTTPS
		HSTSPreloadEnabled: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	for _, m := range s.middlewares {
		s.echo.Use(m)
	}
	s.echo.Use(newRateLimiter(float64(s.config.RateLimitPerMinute)/60.0, s.config.RateLimitPerMinute))

	s.registerHealthRoutes()

	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	feedback := s.echo.Group("/api/feedback", s.requireResident)
	feedback.POST("/submit", s.handleSubmitFeedback)
	feedback.GET("/my-feedback", s.handleMyFeedback)
	feedback.GET("/submission-stats", s.handleSubmissionStats, s.requireAdmin)
	feedback.GET("/all", s.handleListFeedback, s.requireAdmin)

	analytics := s.echo.Group("/api/analytics", s.requireResident, s.requireAdmin)
	analytics.GET("/dashboard", s.handleDashboard)
	analytics.GET("/comments", s.handleComments)
	analytics.GET("/daily-analysis", s.handleDailyAnalysis)
	analytics.GET("/weekly-analysis", s.handleWeeklyAnalysis)
	analytics.GET("/historical-analysis", s.handleHistoricalAnalysis)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}
