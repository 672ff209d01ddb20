package session

import (
	"context"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
)

type AdmissionView struct {
	SessionID     uint   `json:"sessionId"`
	SessionStatus string `json:"sessionStatus"`
	IsConsultant  bool   `json:"isConsultant"`
	RoomReady     bool   `json:"roomReady"`
	domain.AdmissionStatus
}

// GetAdmission recomputes the join state of a session for one participant.
// Nothing is cached; clients poll it.
type GetAdmission struct {
	repo     domain.Repository
	calendar Calendar
}

func NewGetAdmission(repo domain.Repository, calendar Calendar) *GetAdmission {
	return &GetAdmission{repo: repo, calendar: calendar}
}

func (uc *GetAdmission) Execute(
	ctx context.Context,
	sessionID uint,
	userID uint,
) (*AdmissionView, error) {

	s, err := loadForParticipant(ctx, uc.repo, sessionID, userID)
	if err != nil {
		return nil, err
	}

	w, err := uc.calendar.Window(s)
	if err != nil {
		return nil, err
	}

	st := domain.Admission(uc.calendar.Now(), w)

	if err := domain.CanJoin(domain.Status(s.Status)); err != nil {
		st.State = domain.StateEnded
		st.CanJoin = false
		st.Countdown = 0
		st.Seconds = 0
		if be, ok := httperr.AsBusiness(err); ok {
			st.Message = be.Message
		}
	}

	return &AdmissionView{
		SessionID:       s.ID,
		SessionStatus:   s.Status,
		IsConsultant:    userID == s.ConsultantID,
		RoomReady:       s.DailyRoomURL != "",
		AdmissionStatus: st,
	}, nil
}
