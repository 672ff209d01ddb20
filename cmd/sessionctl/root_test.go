package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/coaching-sessions/internal/app"
	"github.com/BruksfildServices01/coaching-sessions/internal/config"
	"github.com/BruksfildServices01/coaching-sessions/internal/infra/repository"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
	ucsession "github.com/BruksfildServices01/coaching-sessions/internal/usecase/session"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func memoryApp(t *testing.T) (*app.App, *repository.MemorySessionRepository) {
	t.Helper()

	a, err := app.New(&config.Config{
		StoreDriver:  config.StoreMemory,
		JWTSecret:    "s",
		Timezone:     "UTC",
		VideoTimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	a.Calendar = ucsession.NewCalendar(time.UTC, func() time.Time { return now })
	return a, a.Repo.(*repository.MemorySessionRepository)
}

func executeCLI(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(func() (*app.App, error) { return a, nil })
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())

	err := cmd.Execute()
	return out.String(), err
}

func TestAdmissionCommand(t *testing.T) {
	a, repo := memoryApp(t)
	s := repo.AddSession(models.Session{ClientID: 1, ConsultantID: 9, SessionDate: "2025-03-10", StartTime: "09:10", EndTime: "10:10", Status: "confirmed"})

	out, err := executeCLI(t, a, "admission", "--session", "1", "--user", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "can_join")
	assert.Contains(t, out, "can join: true")

	a2, repo2 := memoryApp(t)
	repo2.AddSession(*s)
	out, err = executeCLI(t, a2, "admission", "--session", "1", "--user", "9", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, `"isConsultant": true`)
}

func TestAdmissionCommandRequiresFlags(t *testing.T) {
	a, _ := memoryApp(t)
	_, err := executeCLI(t, a, "admission", "--session", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "user" not set`)
}

func TestRemindersDueCommand(t *testing.T) {
	a, repo := memoryApp(t)
	s := repo.AddSession(models.Session{ClientID: 1, ConsultantID: 9, SessionDate: "2025-03-10", StartTime: "11:00", EndTime: "12:00", Status: "confirmed"})
	require.NoError(t, repo.ReplaceReminders(context.Background(), s.ID, 1, []models.SessionReminder{
		{Channel: "email", TimingMinutes: 180},
		{Channel: "sms", TimingMinutes: 30},
	}))

	out, err := executeCLI(t, a, "reminders", "due")
	require.NoError(t, err)
	assert.Contains(t, out, "due reminders: 1")
	assert.Contains(t, out, "via email (due 2025-03-10 08:00)")
}

func TestMigrateCommandWithMemoryStore(t *testing.T) {
	a, _ := memoryApp(t)
	out, err := executeCLI(t, a, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")
}
