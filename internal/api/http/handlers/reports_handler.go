package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// ReportsHandler serves the stale-ticket report and the activity log.
type ReportsHandler struct {
	tickets  *service.TicketService
	recorder audit.Recorder
	reports  config.ReportsConfig
}

// NewReportsHandler constructs handler.
func NewReportsHandler(ticketService *service.TicketService, recorder audit.Recorder, reports config.ReportsConfig) *ReportsHandler {
	return &ReportsHandler{tickets: ticketService, recorder: recorder, reports: reports}
}

// StaleTickets GET /reports/stale-tickets.
func (h *ReportsHandler) StaleTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	cutoff := h.reports.StaleCutoff(time.Now())
	tickets, err := h.tickets.ListStaleTickets(c.Context(), principal, cutoff)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items, "cutoff": cutoff})
}

// ActivityLog GET /admin/activity-log. Newest entries come first.
func (h *ReportsHandler) ActivityLog(c *fiber.Ctx) error {
	limit := parseInt(c.Query("limit"), 200)
	lines, err := h.recorder.Recent(limit)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": lines})
}
