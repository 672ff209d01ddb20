package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

func TestMemoryApplyRescheduleRejectsTakenSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()

	repo.AddSession(models.Session{ConsultantID: 9, ClientID: 1, SessionDate: "2025-03-15", StartTime: "11:00", EndTime: "12:00", Status: "confirmed"})
	moving := repo.AddSession(models.Session{ConsultantID: 9, ClientID: 2, SessionDate: "2025-03-10", StartTime: "10:00", EndTime: "11:00", Status: "confirmed"})

	_, err := repo.ApplyReschedule(ctx, domain.RescheduleUpdate{
		SessionID: moving.ID, Date: "2025-03-15", StartTime: "11:00", EndTime: "12:00",
	})
	assert.ErrorIs(t, err, domain.ErrSlotTaken)
}

func TestMemoryApplyRescheduleCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	s := repo.AddSession(models.Session{ConsultantID: 9, ClientID: 2, SessionDate: "2025-03-10", StartTime: "10:00", EndTime: "11:00"})

	upd := domain.RescheduleUpdate{
		SessionID: s.ID, ExpectedCount: 0, Date: "2025-03-15", StartTime: "11:00", EndTime: "12:00",
		RescheduledAt: time.Now(), RescheduledBy: 2,
	}
	got, err := repo.ApplyReschedule(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RescheduleCount)

	_, err = repo.ApplyReschedule(ctx, upd)
	assert.ErrorIs(t, err, domain.ErrStaleSession)
}

func TestMemorySetRoomIfAbsentWritesOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	s := repo.AddSession(models.Session{ConsultantID: 9, ClientID: 2})

	wrote, err := repo.SetRoomIfAbsent(ctx, s.ID, domain.Room{Name: "a", URL: "https://x/a"})
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = repo.SetRoomIfAbsent(ctx, s.ID, domain.Room{Name: "b", URL: "https://x/b"})
	require.NoError(t, err)
	assert.False(t, wrote)

	got, _ := repo.GetSession(ctx, s.ID)
	assert.Equal(t, "https://x/a", got.DailyRoomURL)
}

func TestMemoryReplaceRemindersIsScopedToUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	s := repo.AddSession(models.Session{ConsultantID: 9, ClientID: 2, Status: "confirmed"})

	require.NoError(t, repo.ReplaceReminders(ctx, s.ID, 2, []models.SessionReminder{{Channel: "email", TimingMinutes: 60}}))
	require.NoError(t, repo.ReplaceReminders(ctx, s.ID, 9, []models.SessionReminder{{Channel: "sms", TimingMinutes: 15}}))
	require.NoError(t, repo.ReplaceReminders(ctx, s.ID, 2, []models.SessionReminder{{Channel: "push", TimingMinutes: 30}}))

	client, _ := repo.ListReminders(ctx, s.ID, 2)
	require.Len(t, client, 1)
	assert.Equal(t, "push", client[0].Channel)

	consultant, _ := repo.ListReminders(ctx, s.ID, 9)
	require.Len(t, consultant, 1)

	pending, _ := repo.ListPendingReminders(ctx)
	assert.Len(t, pending, 2)
}
