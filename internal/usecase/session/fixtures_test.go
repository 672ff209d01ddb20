package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/httperr"
	"github.com/BruksfildServices01/coaching-sessions/internal/infra/repository"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

const (
	clientID     uint = 1
	consultantID uint = 9
	strangerID   uint = 42
)

var errStoreDown = errors.New("store unavailable")

// 2025-03-10 09:00 UTC
var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedCalendar(now time.Time) Calendar {
	return NewCalendar(time.UTC, func() time.Time { return now })
}

func newRepo(t *testing.T) *repository.MemorySessionRepository {
	t.Helper()
	return repository.NewMemorySessionRepository()
}

func seedSession(repo *repository.MemorySessionRepository, date, start, end, status string, count int) *models.Session {
	return repo.AddSession(models.Session{
		ClientID:        clientID,
		ConsultantID:    consultantID,
		SessionDate:     date,
		StartTime:       start,
		EndTime:         end,
		Status:          status,
		RescheduleCount: count,
	})
}

func requireKind(t *testing.T, err error, kind httperr.Kind, code string) httperr.BusinessError {
	t.Helper()
	be, ok := httperr.AsBusiness(err)
	require.True(t, ok, "expected business error, got %v", err)
	require.Equal(t, kind, be.Kind)
	require.Equal(t, code, be.Code)
	return be
}

// --------------------------------------------------
// Failing repository
// --------------------------------------------------

type faultyRepo struct {
	domain.Repository

	failCount   bool
	failDay     bool
	failHistory bool
	failRoom    bool
	failToken   bool
}

func (r *faultyRepo) CountActiveAtSlot(ctx context.Context, consultantID uint, slot domain.SlotKey, exclude uint) (int64, error) {
	if r.failCount {
		return 0, errStoreDown
	}
	return r.Repository.CountActiveAtSlot(ctx, consultantID, slot, exclude)
}

func (r *faultyRepo) ListActiveSessionsForDay(ctx context.Context, consultantID uint, date string) ([]models.Session, error) {
	if r.failDay {
		return nil, errStoreDown
	}
	return r.Repository.ListActiveSessionsForDay(ctx, consultantID, date)
}

func (r *faultyRepo) AppendRescheduleHistory(ctx context.Context, h *models.RescheduleHistory) error {
	if r.failHistory {
		return errStoreDown
	}
	return r.Repository.AppendRescheduleHistory(ctx, h)
}

func (r *faultyRepo) SetRoomIfAbsent(ctx context.Context, id uint, room domain.Room) (bool, error) {
	if r.failRoom {
		return false, errStoreDown
	}
	return r.Repository.SetRoomIfAbsent(ctx, id, room)
}

func (r *faultyRepo) SaveConsultantToken(ctx context.Context, id uint, token string) error {
	if r.failToken {
		return errStoreDown
	}
	return r.Repository.SaveConsultantToken(ctx, id, token)
}

// --------------------------------------------------
// Video provider
// --------------------------------------------------

type fakeProvider struct {
	mu sync.Mutex

	now      time.Time
	rooms    map[string]domain.RoomOptions
	creates  int
	tokens   int
	failRoom error
	failTok  error
}

func newFakeProvider(now time.Time) *fakeProvider {
	return &fakeProvider{now: now, rooms: make(map[string]domain.RoomOptions)}
}

func (p *fakeProvider) CreateRoom(_ context.Context, name string, opts domain.RoomOptions) (*domain.Room, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failRoom != nil {
		return nil, p.failRoom
	}
	if _, ok := p.rooms[name]; ok {
		return nil, domain.ErrRoomExists
	}
	p.creates++
	p.rooms[name] = opts
	return &domain.Room{Name: name, URL: p.RoomURL(name)}, nil
}

func (p *fakeProvider) CreateToken(_ context.Context, opts domain.TokenOptions) (*domain.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failTok != nil {
		return nil, p.failTok
	}
	p.tokens++

	exp := p.now.Add(opts.TTL)
	return &domain.Token{Token: signedToken(exp, opts.UserName), ExpiresAt: exp}, nil
}

func (p *fakeProvider) RoomURL(name string) string {
	return "https://practice.daily.co/" + name
}

func (p *fakeProvider) counts() (creates, tokens int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates, p.tokens
}

func signedToken(exp time.Time, user string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":   exp.Unix(),
		"u":     user,
		"nonce": time.Now().UnixNano(),
	})
	s, _ := tok.SignedString([]byte("provider-key"))
	return s
}

// --------------------------------------------------
// Room cache
// --------------------------------------------------

type memoryCache struct {
	mu    sync.Mutex
	rooms map[uint]domain.Room
}

func newMemoryCache() *memoryCache {
	return &memoryCache{rooms: make(map[uint]domain.Room)}
}

func (c *memoryCache) GetRoom(_ context.Context, id uint) (*domain.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	room, ok := c.rooms[id]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (c *memoryCache) PutRoom(_ context.Context, id uint, room domain.Room, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[id] = room
	return nil
}
