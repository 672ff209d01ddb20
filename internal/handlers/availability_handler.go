package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/httpresp"
	ucsession "github.com/BruksfildServices01/coaching-sessions/internal/usecase/session"
)

type AvailabilityHandler struct {
	index *ucsession.AvailabilityIndex
}

func NewAvailabilityHandler(index *ucsession.AvailabilityIndex) *AvailabilityHandler {
	return &AvailabilityHandler{index: index}
}

func (h *AvailabilityHandler) OpenSlots(c *gin.Context) {
	consultantID, ok := idParam(c, "id")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "invalid_date", "Query parameter date is required (YYYY-MM-DD).")
		return
	}

	slots, err := h.index.OpenSlots(c.Request.Context(), consultantID, date)
	if err != nil {
		fail(c, err)
		return
	}

	httpresp.List(c, slots)
}
