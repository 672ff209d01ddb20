package session

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

const (
	WarningProviderUnavailable = "provider_unavailable"
	WarningPersistenceFailure  = "persistence_failure"
	WarningTokenUnavailable    = "token_unavailable"
)

const defaultProviderTimeout = 5 * time.Second

type Participant struct {
	UserID       uint
	Name         string
	IsConsultant bool
}

type JoinInfo struct {
	RoomName       string     `json:"roomName"`
	RoomURL        string     `json:"roomUrl"`
	Token          string     `json:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
	IsOwner        bool       `json:"isOwner"`
	Degraded       bool       `json:"degraded"`
	Warnings       []string   `json:"warnings,omitempty"`
}

func (j *JoinInfo) warn(code string) {
	for _, w := range j.Warnings {
		if w == code {
			return
		}
	}
	j.Warnings = append(j.Warnings, code)
}

// RoomProvisioner creates or reuses the video room of a session and issues
// participant tokens. Provider and store failures degrade the result instead
// of failing the join.
type RoomProvisioner struct {
	repo     domain.Repository
	provider domain.VideoProvider
	cache    domain.RoomCache
	calendar Calendar
	timeout  time.Duration
	logger   *zap.Logger
}

func NewRoomProvisioner(
	repo domain.Repository,
	provider domain.VideoProvider,
	cache domain.RoomCache,
	calendar Calendar,
	timeout time.Duration,
	logger *zap.Logger,
) *RoomProvisioner {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomProvisioner{
		repo:     repo,
		provider: provider,
		cache:    cache,
		calendar: calendar,
		timeout:  timeout,
		logger:   logger,
	}
}

// Provision resolves the room for s and a token for who. s is updated in place
// with whatever was persisted.
func (p *RoomProvisioner) Provision(
	ctx context.Context,
	s *models.Session,
	who Participant,
) (*JoinInfo, error) {

	info := &JoinInfo{IsOwner: who.IsConsultant}

	room := p.resolveRoom(ctx, s, info)
	info.RoomName = room.Name
	info.RoomURL = room.URL

	if info.Degraded {
		return info, nil
	}

	p.issueToken(ctx, s, room, who, info)
	return info, nil
}

// --------------------------------------------------
// Room
// --------------------------------------------------

func (p *RoomProvisioner) resolveRoom(
	ctx context.Context,
	s *models.Session,
	info *JoinInfo,
) domain.Room {

	if s.DailyRoomURL != "" {
		name := s.DailyRoomName
		if name == "" {
			name = domain.RoomName(s.ID)
		}
		return domain.Room{Name: name, URL: s.DailyRoomURL}
	}

	if room := p.cachedRoom(ctx, s.ID); room != nil {
		p.persistRoom(ctx, s, *room, info)
		return domain.Room{Name: s.DailyRoomName, URL: s.DailyRoomURL}
	}

	name := domain.RoomName(s.ID)
	opts := domain.RoomOptions{
		MaxParticipants: 2,
		EnableChat:      true,
	}
	if w, err := p.calendar.Window(s); err == nil {
		opts.ExpiresAt = w.End.Add(domain.RoomExpiryGrace)
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	room, err := p.provider.CreateRoom(cctx, name, opts)
	cancel()

	switch {
	case err == nil:
	case domain.IsRoomExists(err):
		room = &domain.Room{Name: name, URL: p.provider.RoomURL(name)}
	default:
		p.logger.Warn("video provider unavailable, using synthetic room",
			zap.Uint("session_id", s.ID),
			zap.String("room", name),
			zap.Error(err))
		info.Degraded = true
		info.warn(WarningProviderUnavailable)
		return domain.Room{Name: name, URL: p.provider.RoomURL(name)}
	}

	if room.Name == "" {
		room.Name = name
	}
	if room.URL == "" {
		room.URL = p.provider.RoomURL(room.Name)
	}

	p.persistRoom(ctx, s, *room, info)
	return domain.Room{Name: s.DailyRoomName, URL: s.DailyRoomURL}
}

func (p *RoomProvisioner) cachedRoom(ctx context.Context, sessionID uint) *domain.Room {
	if p.cache == nil {
		return nil
	}
	room, err := p.cache.GetRoom(ctx, sessionID)
	if err != nil {
		p.logger.Debug("room cache lookup failed", zap.Uint("session_id", sessionID), zap.Error(err))
		return nil
	}
	return room
}

// persistRoom records room on the session once. When another request won the
// write, the stored room is adopted.
func (p *RoomProvisioner) persistRoom(
	ctx context.Context,
	s *models.Session,
	room domain.Room,
	info *JoinInfo,
) {
	s.DailyRoomName = room.Name
	s.DailyRoomURL = room.URL

	wrote, err := p.repo.SetRoomIfAbsent(ctx, s.ID, room)
	switch {
	case err != nil:
		p.logger.Warn("room persistence failed",
			zap.Uint("session_id", s.ID),
			zap.String("room", room.Name),
			zap.Error(err))
		info.warn(WarningPersistenceFailure)
	case !wrote:
		if stored, err := p.repo.GetSession(ctx, s.ID); err == nil && stored.DailyRoomURL != "" {
			s.DailyRoomName = stored.DailyRoomName
			s.DailyRoomURL = stored.DailyRoomURL
		}
	}

	if p.cache != nil {
		ttl := domain.TokenTTL
		if w, err := p.calendar.Window(s); err == nil {
			if until := w.End.Add(domain.RoomExpiryGrace).Sub(p.calendar.Now()); until > ttl {
				ttl = until
			}
		}
		stored := domain.Room{Name: s.DailyRoomName, URL: s.DailyRoomURL}
		if err := p.cache.PutRoom(ctx, s.ID, stored, ttl); err != nil {
			p.logger.Debug("room cache write failed", zap.Uint("session_id", s.ID), zap.Error(err))
		}
	}
}

// --------------------------------------------------
// Token
// --------------------------------------------------

func (p *RoomProvisioner) issueToken(
	ctx context.Context,
	s *models.Session,
	room domain.Room,
	who Participant,
	info *JoinInfo,
) {
	now := p.calendar.Now()

	if who.IsConsultant {
		if exp, ok := reusableToken(s.DailyMeetingToken, now); ok {
			info.Token = s.DailyMeetingToken
			info.TokenExpiresAt = &exp
			return
		}
	}

	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	tok, err := p.provider.CreateToken(cctx, domain.TokenOptions{
		RoomName: room.Name,
		UserName: who.Name,
		IsOwner:  who.IsConsultant,
		TTL:      domain.TokenTTL,
	})
	cancel()

	if err != nil {
		p.logger.Warn("meeting token request failed",
			zap.Uint("session_id", s.ID),
			zap.Bool("owner", who.IsConsultant),
			zap.Error(err))
		info.warn(WarningTokenUnavailable)
		return
	}

	info.Token = tok.Token
	if !tok.ExpiresAt.IsZero() {
		exp := tok.ExpiresAt
		info.TokenExpiresAt = &exp
	}

	if !who.IsConsultant {
		return
	}

	if err := p.repo.SaveConsultantToken(ctx, s.ID, tok.Token); err != nil {
		p.logger.Warn("consultant token persistence failed",
			zap.Uint("session_id", s.ID),
			zap.Error(err))
		info.warn(WarningPersistenceFailure)
		return
	}
	s.DailyMeetingToken = tok.Token
}

var placeholderTokens = []string{"placeholder", "fallback", "mock", "pending"}

// reusableToken accepts a cached token only when it is a real JWT whose exp is
// comfortably in the future. The provider signed it, so only the claims are read.
func reusableToken(token string, now time.Time) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, false
	}

	lower := strings.ToLower(token)
	for _, p := range placeholderTokens {
		if strings.HasPrefix(lower, p) {
			return time.Time{}, false
		}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	if !exp.Time.After(now.Add(domain.TokenRefreshMargin)) {
		return time.Time{}, false
	}

	return exp.Time, true
}
