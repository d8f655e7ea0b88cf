package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Karthick9298/hostel-flavour/internal/app"
	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/delegate"
	apperrors "github.com/Karthick9298/hostel-flavour/internal/platform/errors"
)

func (s *Server) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()

	period := c.QueryParam("period")
	if period == "" {
		period = app.PeriodDaily
	}

	day, err := s.dayParam(c, "date")
	if err != nil {
		return err
	}

	report, err := s.app.Dashboard(ctx, period, day)
	if err != nil {
		return err
	}

	response := map[string]any{"status": "success", "period": period, "date": day, "data": report}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleComments(c echo.Context) error {
	ctx := c.Request().Context()

	var window civilday.Window
	if raw := c.QueryParam("date"); raw != "" {
		day, err := parseDay(raw)
		if err != nil {
			return err
		}
		window = civilday.SingleDay(day)
	} else {
		end := s.clock.Today()
		w, err := civilday.NewWindow(end.AddDays(-(defaultListDays - 1)), end)
		if err != nil {
			return apperrors.InternalError("invalid comment window", err)
		}
		window = w
	}

	meal, err := mealParam(c)
	if err != nil {
		return err
	}

	comments, err := s.app.Comments(ctx, window, meal)
	if err != nil {
		return err
	}

	response := map[string]any{
		"status": "success",
		"data": map[string]any{
			"comments":      comments,
			"totalComments": len(comments),
		},
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleDailyAnalysis(c echo.Context) error {
	day, err := s.dayParam(c, "date")
	if err != nil {
		return err
	}

	result, err := s.app.DailyAnalysis(c.Request().Context(), day)
	if err != nil {
		return err
	}
	return s.writeAnalysis(c, result)
}

func (s *Server) handleWeeklyAnalysis(c echo.Context) error {
	day, err := s.dayParam(c, "date")
	if err != nil {
		return err
	}

	result, err := s.app.WeeklyAnalysis(c.Request().Context(), day)
	if err != nil {
		return err
	}
	return s.writeAnalysis(c, result)
}

func (s *Server) handleHistoricalAnalysis(c echo.Context) error {
	start, err := parseDay(c.QueryParam("startDate"))
	if err != nil {
		return err
	}
	end, err := parseDay(c.QueryParam("endDate"))
	if err != nil {
		return err
	}
	window, err := civilday.NewWindow(start, end)
	if err != nil {
		return apperrors.ValidationError("startDate must not be after endDate")
	}

	mode := delegate.ModeComparison
	if raw := c.QueryParam("mode"); raw != "" {
		if mode, err = delegate.ParseMode(raw); err != nil {
			return apperrors.ValidationError("Invalid mode. Use comparison, trend or pattern").WithContext("mode", raw)
		}
	}

	result, err := s.app.HistoricalAnalysis(c.Request().Context(), window, mode)
	if err != nil {
		return err
	}
	return s.writeAnalysis(c, result)
}

// writeAnalysis renders an analysis result. Delegate responses pass through
// with their own envelope; internal results carry the aggregation report and
// the reason the delegate was bypassed.
func (s *Server) writeAnalysis(c echo.Context, result app.AnalysisResult) error {
	response := map[string]any{
		"status": "success",
		"source": result.Source,
	}
	if result.Source == app.SourceDelegate {
		response["data"] = result.Delegate.Raw
	} else {
		response["data"] = result.Report
		if result.Degraded != "" {
			response["degraded"] = result.Degraded
		}
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
