package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
)

func newProvisioner(repo domain.Repository, provider domain.VideoProvider, cache domain.RoomCache) *RoomProvisioner {
	return NewRoomProvisioner(repo, provider, cache, fixedCalendar(fixedNow), time.Second, nil)
}

var (
	asClient     = Participant{UserID: clientID, Name: "Client"}
	asConsultant = Participant{UserID: consultantID, Name: "Coach", IsConsultant: true}
)

func TestProvisionCreatesRoomOnce(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seeded := seedSession(repo, "2025-03-10", "09:10", "10:10", "confirmed", 0)
	provider := newFakeProvider(fixedNow)
	p := newProvisioner(repo, provider, nil)

	s, _ := repo.GetSession(ctx, seeded.ID)
	first, err := p.Provision(ctx, s, asClient)
	require.NoError(t, err)
	assert.Equal(t, "session-1", first.RoomName)
	assert.Equal(t, "https://practice.daily.co/session-1", first.RoomURL)
	assert.False(t, first.Degraded)
	assert.Empty(t, first.Warnings)

	opts := provider.rooms["session-1"]
	assert.Equal(t, 2, opts.MaxParticipants)
	assert.True(t, opts.EnableChat)
	assert.Equal(t, time.Date(2025, 3, 10, 11, 10, 0, 0, time.UTC), opts.ExpiresAt)

	s, _ = repo.GetSession(ctx, seeded.ID)
	second, err := p.Provision(ctx, s, asConsultant)
	require.NoError(t, err)
	assert.Equal(t, first.RoomURL, second.RoomURL)

	creates, _ := provider.counts()
	assert.Equal(t, 1, creates)
}

func TestProvisionConcurrentJoinsShareRoom(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seeded := seedSession(repo, "2025-03-10", "09:10", "10:10", "confirmed", 0)
	provider := newFakeProvider(fixedNow)
	p := newProvisioner(repo, provider, newMemoryCache())

	const joiners = 8
	urls := make([]string, joiners)

	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := repo.GetSession(ctx, seeded.ID)
			if err != nil {
				return
			}
			info, err := p.Provision(ctx, s, asClient)
			if err == nil {
				urls[i] = info.RoomURL
			}
		}(i)
	}
	wg.Wait()

	for _, u := range urls {
		assert.Equal(t, "https://practice.daily.co/session-1", u)
	}

	creates, _ := provider.counts()
	assert.Equal(t, 1, creates)

	stored, _ := repo.GetSession(ctx, seeded.ID)
	assert.Equal(t, "https://practice.daily.co/session-1", stored.DailyRoomURL)
}

func TestProvisionTreatsExistingRoomAsSuccess(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	s := seedSession(repo, "2025-03-10", "09:10", "10:10", "confirmed", 0)
	provider := newFakeProvider(fixedNow)
	provider.rooms["session-1"] = domain.RoomOptions{}

	info, err := newProvisioner(repo, provider, nil).Provision(ctx, s, asClient)
	require.NoError(t, err)
	assert.False(t, info.Degraded)
	assert.Equal(t, provider.RoomURL("session-1"), info.RoomURL)

	stored, _ := repo.GetSession(ctx, s.ID)
	assert.Equal(t, info.RoomURL, stored.DailyRoomURL)
}

func TestProvisionDegradesWhenProviderFails(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	s := seedSession(repo, "2025-03-10", "09:10", "10:10", "confirmed", 0)
	provider := newFakeProvider(fixedNow)
	provider.failRoom = errors.New("connection refused")

	info, err := newProvisioner(repo, provider, nil).Provision(ctx, s, asConsultant)
	require.NoError(t, err)

	assert.True(t, info.Degraded)
	assert.Contains(t, info.Warnings, WarningProviderUnavailable)
	assert.Equal(t, provider.RoomURL("session-1"), info.RoomURL)
	assert.Empty(t, info.Token)

	_, tokens := provider.counts()
	assert.Zero(t, tokens)

	stored, _ := repo.GetSession(ctx, s.ID)
	assert.Empty(t, stored.DailyRoomURL)
}

func TestProvisionFallsBackToCacheWhenPersistenceFails(t *testing.T) {
	ctx := context.Background()
	mem := newRepo(t)
	seeded := seedSession(mem, "2025-03-10", "09:10", "10:10", "confirmed", 0)
	repo := &faultyRepo{Repository: mem, failRoom: true}
	provider := newFakeProvider(fixedNow)
	cache := newMemoryCache()
	p := newProvisioner(repo, provider, cache)

	s, _ := mem.GetSession(ctx, seeded.ID)
	info, err := p.Provision(ctx, s, asClient)
	require.NoError(t, err)
	assert.Contains(t, info.Warnings, WarningPersistenceFailure)
	assert.False(t, info.Degraded)
	assert.NotEmpty(t, info.RoomURL)
	assert.NotEmpty(t, info.Token)

	cached, _ := cache.GetRoom(ctx, seeded.ID)
	require.NotNil(t, cached)
	assert.Equal(t, info.RoomURL, cached.URL)

	s, _ = mem.GetSession(ctx, seeded.ID)
	again, err := p.Provision(ctx, s, asClient)
	require.NoError(t, err)
	assert.Equal(t, info.RoomURL, again.RoomURL)

	creates, _ := provider.counts()
	assert.Equal(t, 1, creates)
}

func TestProvisionReusesConsultantToken(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seeded := seedSession(repo, "2025-03-10", "09:10", "10:10", "confirmed", 0)
	provider := newFakeProvider(fixedNow)
	p := newProvisioner(repo, provider, nil)

	s, _ := repo.GetSession(ctx, seeded.ID)
	first, err := p.Provision(ctx, s, asConsultant)
	require.NoError(t, err)
	require.NotEmpty(t, first.Token)
	assert.True(t, first.IsOwner)

	s, _ = repo.GetSession(ctx, seeded.ID)
	assert.Equal(t, first.Token, s.DailyMeetingToken)

	second, err := p.Provision(ctx, s, asConsultant)
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)

	_, tokens := provider.counts()
	assert.Equal(t, 1, tokens)
}

func TestProvisionRefreshesUnusableConsultantToken(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		token string
	}{
		{"placeholder", "placeholder-token"},
		{"not a jwt", "abc.def"},
		{"expiring within margin", signedToken(fixedNow.Add(3*time.Minute), "Coach")},
		{"expired", signedToken(fixedNow.Add(-time.Hour), "Coach")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newRepo(t)
			seeded := seedSession(repo, "2025-03-10", "09:10", "10:10", "confirmed", 0)
			require.NoError(t, repo.SaveConsultantToken(ctx, seeded.ID, tc.token))
			provider := newFakeProvider(fixedNow)

			s, _ := repo.GetSession(ctx, seeded.ID)
			info, err := newProvisioner(repo, provider, nil).Provision(ctx, s, asConsultant)
			require.NoError(t, err)
			assert.NotEqual(t, tc.token, info.Token)

			_, tokens := provider.counts()
			assert.Equal(t, 1, tokens)

			stored, _ := repo.GetSession(ctx, seeded.ID)
			assert.Equal(t, info.Token, stored.DailyMeetingToken)
		})
	}
}

func TestProvisionNeverPersistsClientToken(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	s := seedSession(repo, "2025-03-10", "09:10", "10:10", "confirmed", 0)

	info, err := newProvisioner(repo, newFakeProvider(fixedNow), nil).Provision(ctx, s, asClient)
	require.NoError(t, err)
	assert.NotEmpty(t, info.Token)
	assert.False(t, info.IsOwner)

	stored, _ := repo.GetSession(ctx, s.ID)
	assert.Empty(t, stored.DailyMeetingToken)
}

func TestProvisionWithoutToken(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	s := seedSession(repo, "2025-03-10", "09:10", "10:10", "confirmed", 0)
	provider := newFakeProvider(fixedNow)
	provider.failTok = errors.New("rate limited")

	info, err := newProvisioner(repo, provider, nil).Provision(ctx, s, asConsultant)
	require.NoError(t, err)
	assert.False(t, info.Degraded)
	assert.NotEmpty(t, info.RoomURL)
	assert.Empty(t, info.Token)
	assert.Contains(t, info.Warnings, WarningTokenUnavailable)
}

func TestReusableToken(t *testing.T) {
	exp := fixedNow.Add(time.Hour)

	got, ok := reusableToken(signedToken(exp, "Coach"), fixedNow)
	assert.True(t, ok)
	assert.Equal(t, exp.Unix(), got.Unix())

	_, ok = reusableToken("", fixedNow)
	assert.False(t, ok)
	_, ok = reusableToken("  ", fixedNow)
	assert.False(t, ok)
	_, ok = reusableToken("FALLBACK-123", fixedNow)
	assert.False(t, ok)
	_, ok = reusableToken(signedToken(fixedNow.Add(domain.TokenRefreshMargin), "Coach"), fixedNow)
	assert.False(t, ok)
}
