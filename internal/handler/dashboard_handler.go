package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/quizdesk-api/internal/service"
	"github.com/noah-isme/quizdesk-api/internal/utils"
)

// DashboardHandler serves the student progress dashboard.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler builds a dashboard handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/students/me/dashboard", h.studentDashboard)
}

func (h *DashboardHandler) studentDashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.StudentDashboard(c.UserContext(), principalFromContext(c))
	if err != nil {
		if errors.Is(err, service.ErrStudentOnly) {
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
