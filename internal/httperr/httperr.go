package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"errorCode"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// StatusFor maps a business error kind to its HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindPolicyViolation, KindInvalidState:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err as a JSON response. Business errors keep their code and
// details; anything else becomes a generic 500.
func FromError(c *gin.Context, err error, extra gin.H) {
	be, ok := AsBusiness(err)
	if !ok {
		body := gin.H{"errorCode": "internal_error", "message": "Unexpected error."}
		for k, v := range extra {
			body[k] = v
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	message := be.Message
	if message == "" {
		message = defaultMessages[be.Code]
	}

	body := gin.H{
		"errorCode": be.Code,
		"message":   message,
	}
	for k, v := range be.Details {
		body[k] = v
	}
	for k, v := range extra {
		body[k] = v
	}

	c.JSON(StatusFor(be.Kind), body)
}

var defaultMessages = map[string]string{
	"session_not_found":   "Session not found.",
	"reminder_not_found":  "Reminder not found.",
	"not_a_participant":   "You are not a participant of this session.",
	"consultant_only":     "Only the consultant can perform this action.",
	"invalid_request":     "Invalid request.",
	"invalid_new_time":    "Invalid new date or time.",
	"invalid_reminder":    "Invalid reminder.",
	"invalid_date":        "Invalid date.",
	"slot_taken":          "The selected time slot is no longer available.",
	"reschedule_conflict": "The session was modified concurrently. Please retry.",
}
