package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/coaching-sessions/internal/audit"
	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	store audit.Store
	loc   *time.Location
}

func NewAuditLogsHandler(store audit.Store, loc *time.Location) *AuditLogsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AuditLogsHandler{store: store, loc: loc}
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	f := audit.Filter{
		Action: c.Query("action"),
		Entity: c.Query("entity"),
		Page:   intQuery(c, "page", 1, 0),
		Limit:  intQuery(c, "limit", 50, 200),
	}

	// --------------------------------------------------
	// Optional filters
	// --------------------------------------------------

	if s := c.Query("session"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "invalid_session", "Invalid session filter.")
			return
		}
		sessionID := uint(id)
		f.Entity = "session"
		f.EntityID = &sessionID
	}

	if s := c.Query("from"); s != "" {
		if from, err := timezone.ParseDate(s, h.loc); err == nil {
			f.From = &from
		}
	}

	if s := c.Query("to"); s != "" {
		if to, err := timezone.ParseDate(s, h.loc); err == nil {
			end := to.AddDate(0, 0, 1)
			f.To = &end
		}
	}

	// --------------------------------------------------
	// Listing
	// --------------------------------------------------

	logs, total, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		_ = c.Error(err)
		httperr.Internal(c, "audit_list_failed", "Could not list audit logs.")
		return
	}

	c.JSON(200, gin.H{
		"page":  f.Page,
		"limit": f.Limit,
		"total": total,
		"logs":  logs,
	})
}
