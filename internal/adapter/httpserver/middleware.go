package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Karthick9298/hostel-flavour/internal/platform/correlation"
	apperrors "github.com/Karthick9298/hostel-flavour/internal/platform/errors"
)

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// Identity headers, set by the authenticating gateway in front of this
// service.
const (
	headerResidentID   = "X-Resident-ID"
	headerResidentRole = "X-Resident-Role"

	roleAdmin = "admin"

	contextKeyResidentID = "residentID"
	contextKeyRole       = "residentRole"
)

// requireResident extracts the caller's identity from the gateway headers
// and stores it in the request context.
func (s *Server) requireResident(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(headerResidentID)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing resident identity")
		}
		residentID, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.ValidationError("invalid resident ID").WithContext("resident_id", raw)
		}

		c.Set(contextKeyResidentID, residentID)
		c.Set(contextKeyRole, c.Request().Header.Get(headerResidentRole))
		return next(c)
	}
}

// requireAdmin restricts a route to admin callers. Must run after
// requireResident.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get(contextKeyRole).(string)
		if role != roleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func residentID(c echo.Context) (uuid.UUID, error) {
	id, ok := c.Get(contextKeyResidentID).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid resident ID in context", nil)
	}
	return id, nil
}
