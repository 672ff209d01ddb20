package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/coaching-sessions/internal/httpresp"
	"github.com/BruksfildServices01/coaching-sessions/internal/middleware"
	ucsession "github.com/BruksfildServices01/coaching-sessions/internal/usecase/session"
)

// ======================================================
// HANDLER
// ======================================================

type MeetingHandler struct {
	admission *ucsession.GetAdmission
	join      *ucsession.JoinSession
	end       *ucsession.EndMeeting
}

func NewMeetingHandler(
	admission *ucsession.GetAdmission,
	join *ucsession.JoinSession,
	end *ucsession.EndMeeting,
) *MeetingHandler {
	return &MeetingHandler{
		admission: admission,
		join:      join,
		end:       end,
	}
}

// Admission is polled by the waiting room, so it never caches.
func (h *MeetingHandler) Admission(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	out, err := h.admission.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	httpresp.OK(c, out)
}

func (h *MeetingHandler) Join(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	out, err := h.join.Execute(c.Request.Context(), id, middleware.UserID(c), middleware.UserName(c))
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, out)
}

func (h *MeetingHandler) End(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	s, err := h.end.Execute(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.OK(c, s)
}
