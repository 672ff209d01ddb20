package session

import (
	"fmt"
	"time"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
	"github.com/BruksfildServices01/coaching-sessions/internal/timezone"
)

// Calendar resolves stored wall-clock fields in the practice timezone and
// supplies the current time.
type Calendar struct {
	Location *time.Location
	Clock    func() time.Time
}

func NewCalendar(loc *time.Location, clock func() time.Time) Calendar {
	if loc == nil {
		loc = timezone.Location(timezone.DefaultTimezone)
	}
	if clock == nil {
		clock = timezone.Clock(loc)
	}
	return Calendar{Location: loc, Clock: clock}
}

func (c Calendar) Now() time.Time {
	return c.Clock().In(c.Location)
}

// Window returns the scheduled span of s.
func (c Calendar) Window(s *models.Session) (domain.Window, error) {
	w, err := domain.NewWindow(s.SessionDate, s.StartTime, s.EndTime, c.Location)
	if err != nil {
		return domain.Window{}, fmt.Errorf("session %d has an invalid schedule: %w", s.ID, err)
	}
	return w, nil
}
