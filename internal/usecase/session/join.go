package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/coaching-sessions/internal/audit"
	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

type JoinResult struct {
	Admission domain.AdmissionStatus `json:"admission"`
	*JoinInfo
}

type JoinSession struct {
	repo        domain.Repository
	provisioner *RoomProvisioner
	audit       *audit.Dispatcher
	calendar    Calendar
	logger      *zap.Logger
}

func NewJoinSession(
	repo domain.Repository,
	provisioner *RoomProvisioner,
	audit *audit.Dispatcher,
	calendar Calendar,
	logger *zap.Logger,
) *JoinSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JoinSession{
		repo:        repo,
		provisioner: provisioner,
		audit:       audit,
		calendar:    calendar,
		logger:      logger,
	}
}

func (uc *JoinSession) Execute(
	ctx context.Context,
	sessionID uint,
	userID uint,
	displayName string,
) (*JoinResult, error) {

	s, err := loadForParticipant(ctx, uc.repo, sessionID, userID)
	if err != nil {
		return nil, err
	}

	if err := domain.CanJoin(domain.Status(s.Status)); err != nil {
		return nil, err
	}

	w, err := uc.calendar.Window(s)
	if err != nil {
		return nil, err
	}

	now := uc.calendar.Now()
	st := domain.Admission(now, w)
	if !st.CanJoin {
		code := "join_not_open"
		if st.State == domain.StateEnded {
			code = "session_ended"
		}
		return nil, httperr.ErrPolicy(code, st.Message, map[string]any{
			"state":            st.State,
			"opensAt":          st.OpensAt,
			"countdownSeconds": st.Seconds,
		})
	}

	who := Participant{
		UserID:       userID,
		Name:         displayName,
		IsConsultant: userID == s.ConsultantID,
	}

	info, err := uc.provisioner.Provision(ctx, s, who)
	if err != nil {
		return nil, err
	}

	if s.MeetingStartedAt == nil && !info.Degraded {
		if err := uc.repo.MarkMeetingStarted(ctx, s.ID, now); err != nil {
			uc.logger.Warn("could not record meeting start",
				zap.Uint("session_id", s.ID),
				zap.Error(err))
		}
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &userID,
		Action:   "meeting_joined",
		Entity:   "session",
		EntityID: &s.ID,
		Metadata: map[string]any{
			"room":     info.RoomName,
			"degraded": info.Degraded,
			"warnings": info.Warnings,
		},
	})

	return &JoinResult{Admission: st, JoinInfo: info}, nil
}

// EndMeeting records when the consultant closed the meeting.
type EndMeeting struct {
	repo     domain.Repository
	audit    *audit.Dispatcher
	calendar Calendar
}

func NewEndMeeting(
	repo domain.Repository,
	audit *audit.Dispatcher,
	calendar Calendar,
) *EndMeeting {
	return &EndMeeting{
		repo:     repo,
		audit:    audit,
		calendar: calendar,
	}
}

func (uc *EndMeeting) Execute(
	ctx context.Context,
	sessionID uint,
	userID uint,
) (*models.Session, error) {

	s, err := loadForParticipant(ctx, uc.repo, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if userID != s.ConsultantID {
		return nil, httperr.ErrForbidden("consultant_only")
	}
	if s.Status == string(domain.StatusCancelled) {
		return nil, httperr.ErrInvalidState("session_cancelled", "This session was cancelled.")
	}

	if err := uc.repo.MarkMeetingEnded(ctx, s.ID, uc.calendar.Now()); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, httperr.ErrNotFound("session_not_found")
		}
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  &userID,
		Action:   "meeting_ended",
		Entity:   "session",
		EntityID: &s.ID,
	})

	return uc.repo.GetSession(ctx, s.ID)
}
