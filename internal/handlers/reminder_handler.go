package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/httpresp"
	"github.com/BruksfildServices01/coaching-sessions/internal/middleware"
	ucsession "github.com/BruksfildServices01/coaching-sessions/internal/usecase/session"
)

// ======================================================
// HANDLER
// ======================================================

type ReminderHandler struct {
	scheduler *ucsession.ReminderScheduler
}

func NewReminderHandler(scheduler *ucsession.ReminderScheduler) *ReminderHandler {
	return &ReminderHandler{scheduler: scheduler}
}

type SetRemindersRequest struct {
	Reminders []ucsession.ReminderInput `json:"reminders"`
}

// ======================================================
// PARTICIPANT
// ======================================================

func (h *ReminderHandler) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	reminders, err := h.scheduler.ListReminders(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.List(c, reminders)
}

func (h *ReminderHandler) Set(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SetRemindersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Body must be {\"reminders\": [...]}.")
		return
	}

	reminders, err := h.scheduler.SetReminders(c.Request.Context(), id, middleware.UserID(c), req.Reminders)
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.List(c, reminders)
}

// ======================================================
// DISPATCHER
// ======================================================

func (h *ReminderHandler) Due(c *gin.Context) {
	limit := intQuery(c, "limit", 100, 500)

	due, err := h.scheduler.DueReminders(c.Request.Context(), h.scheduler.Now(), limit)
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.List(c, due)
}

func (h *ReminderHandler) MarkSent(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.scheduler.MarkSent(c.Request.Context(), id, h.scheduler.Now()); err != nil {
		fail(c, err)
		return
	}

	c.Status(204)
}
