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

type SessionHandler struct {
	reschedule  *ucsession.RescheduleSession
	eligibility *ucsession.GetRescheduleEligibility
	history     *ucsession.ListRescheduleHistory
}

func NewSessionHandler(
	reschedule *ucsession.RescheduleSession,
	eligibility *ucsession.GetRescheduleEligibility,
	history *ucsession.ListRescheduleHistory,
) *SessionHandler {
	return &SessionHandler{
		reschedule:  reschedule,
		eligibility: eligibility,
		history:     history,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type RescheduleRequest struct {
	SessionID    uint   `json:"sessionId" binding:"required"`
	NewDate      string `json:"newDate" binding:"required"`
	NewStartTime string `json:"newStartTime" binding:"required"`
	NewEndTime   string `json:"newEndTime"`
	Reason       string `json:"reason" binding:"max=500"`
}

// ======================================================
// RESCHEDULE
// ======================================================

func (h *SessionHandler) Reschedule(c *gin.Context) {
	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{
			"success":   false,
			"errorCode": "invalid_request",
			"message":   "sessionId, newDate and newStartTime are required.",
		})
		return
	}

	res, err := h.reschedule.Execute(c.Request.Context(), ucsession.RescheduleInput{
		SessionID:    req.SessionID,
		RequesterID:  middleware.UserID(c),
		NewDate:      req.NewDate,
		NewStartTime: req.NewStartTime,
		NewEndTime:   req.NewEndTime,
		Reason:       req.Reason,
	})
	if err != nil {
		if !httperr.IsBusinessError(err) {
			_ = c.Error(err)
		}
		httperr.FromError(c, err, gin.H{"success": false})
		return
	}

	httpresp.OK(c, gin.H{
		"success":              true,
		"message":              "Session rescheduled.",
		"newDate":              res.NewDate,
		"remainingReschedules": res.RemainingReschedules,
		"session":              res.Session,
	})
}

func (h *SessionHandler) Eligibility(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	out, err := h.eligibility.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, out)
}

func (h *SessionHandler) History(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	history, err := h.history.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.List(c, history)
}

// fail records unexpected errors for the request logger before responding.
func fail(c *gin.Context, err error) {
	if !httperr.IsBusinessError(err) {
		_ = c.Error(err)
	}
	httperr.FromError(c, err, nil)
}
