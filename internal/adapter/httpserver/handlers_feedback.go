package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Karthick9298/hostel-flavour/internal/civilday"
	"github.com/Karthick9298/hostel-flavour/internal/domain"
	apperrors "github.com/Karthick9298/hostel-flavour/internal/platform/errors"
)

// defaultListDays bounds an unqualified range listing.
const defaultListDays = 30

type submitRequest struct {
	MealType string  `json:"mealType"`
	Rating   float64 `json:"rating"`
	Comment  string  `json:"comment"`
}

func (s *Server) handleSubmitFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	rid, err := residentID(c)
	if err != nil {
		return err
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	meal, err := domain.ParseMealType(req.MealType)
	if err != nil {
		return apperrors.ValidationError("Invalid meal type").WithContext("meal_type", req.MealType)
	}

	result, err := s.app.SubmitFeedback(ctx, rid, meal, req.Rating, req.Comment)
	if err != nil {
		return err
	}

	response := map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("%s meal feedback submitted successfully", meal.Title()),
		"data":    result,
	}
	if err := c.JSON(http.StatusCreated, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleMyFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	rid, err := residentID(c)
	if err != nil {
		return err
	}

	result, err := s.app.Today(ctx, rid)
	if err != nil {
		return err
	}

	response := map[string]any{"status": "success", "data": result}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSubmissionStats(c echo.Context) error {
	ctx := c.Request().Context()

	day, err := s.dayParam(c, "date")
	if err != nil {
		return err
	}

	result, err := s.app.Participation(ctx, day)
	if err != nil {
		return err
	}

	response := map[string]any{"status": "success", "data": result}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	end := s.clock.Today()
	start := end.AddDays(-(defaultListDays - 1))
	var err error
	if raw := c.QueryParam("endDate"); raw != "" {
		if end, err = parseDay(raw); err != nil {
			return err
		}
	}
	if raw := c.QueryParam("startDate"); raw != "" {
		if start, err = parseDay(raw); err != nil {
			return err
		}
	}

	window, err := civilday.NewWindow(start, end)
	if err != nil {
		return apperrors.ValidationError("startDate must not be after endDate")
	}

	var filter *uuid.UUID
	if raw := c.QueryParam("residentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.ValidationError("invalid resident ID").WithContext("resident_id", raw)
		}
		filter = &id
	}

	mealFilter, err := mealParam(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := s.app.ListFeedback(ctx, window, filter, mealFilter, page, perPage)
	if err != nil {
		return err
	}

	response := map[string]any{
		"status": "success",
		"data": map[string]any{
			"feedbacks": result.Records,
			"pagination": map[string]int{
				"currentPage":  result.Page,
				"totalPages":   result.TotalPages,
				"totalItems":   result.TotalItems,
				"itemsPerPage": result.PerPage,
			},
		},
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// mealParam reads the optional mealType query parameter.
func mealParam(c echo.Context) (*domain.MealType, error) {
	raw := c.QueryParam("mealType")
	if raw == "" {
		return nil, nil
	}
	meal, err := domain.ParseMealType(raw)
	if err != nil {
		return nil, apperrors.ValidationError("Invalid meal type").WithContext("meal_type", raw)
	}
	return &meal, nil
}

// dayParam reads a YYYY-MM-DD query parameter, defaulting to today.
func (s *Server) dayParam(c echo.Context, name string) (civilday.Day, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return s.clock.Today(), nil
	}
	return parseDay(raw)
}

func parseDay(raw string) (civilday.Day, error) {
	day, err := civilday.Parse(raw)
	if err != nil {
		return civilday.Day{}, apperrors.ValidationError("Invalid date format. Use YYYY-MM-DD").WithContext("date", raw)
	}
	return day, nil
}
