package session

import (
	"fmt"
	"time"

	"github.com/BruksfildServices01/coaching-sessions/internal/timezone"
)

// AdmissionState is the join state of a session at a point in time.
type AdmissionState string

const (
	StateTooEarly   AdmissionState = "too_early"
	StateCanJoin    AdmissionState = "can_join"
	StateInProgress AdmissionState = "in_progress"
	StateEnded      AdmissionState = "ended"
)

// Stage orders the states; admission never moves to a lower stage as time advances.
func (s AdmissionState) Stage() int {
	switch s {
	case StateTooEarly:
		return 0
	case StateCanJoin:
		return 1
	case StateInProgress:
		return 2
	case StateEnded:
		return 3
	}
	return -1
}

// Window is the scheduled span of a session.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window from the stored wall-clock fields. An end time
// that is not after the start is taken to be on the following day.
func NewWindow(date, startTime, endTime string, loc *time.Location) (Window, error) {
	start, err := parseClockOn(date, startTime, loc)
	if err != nil {
		return Window{}, err
	}
	end, err := parseClockOn(date, endTime, loc)
	if err != nil {
		return Window{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return Window{Start: start, End: end}, nil
}

func parseClockOn(date, clock string, loc *time.Location) (time.Time, error) {
	normalized, err := NormalizeClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	t, err := timezone.ParseDateTime(date, normalized, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session date %q: %w", date, err)
	}
	return t, nil
}

// OpensAt is the first instant at which participants may join.
func (w Window) OpensAt() time.Time {
	return w.Start.Add(-JoinWindowLead)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

type AdmissionStatus struct {
	State     AdmissionState `json:"state"`
	CanJoin   bool           `json:"canJoin"`
	OpensAt   time.Time      `json:"opensAt"`
	StartsAt  time.Time      `json:"startsAt"`
	EndsAt    time.Time      `json:"endsAt"`
	Countdown time.Duration  `json:"-"`
	Seconds   int64          `json:"countdownSeconds"`
	Message   string         `json:"message"`
}

// Admission computes the join state for now. It has no side effects and must be
// re-evaluated on every tick.
func Admission(now time.Time, w Window) AdmissionStatus {
	st := AdmissionStatus{
		OpensAt:  w.OpensAt(),
		StartsAt: w.Start,
		EndsAt:   w.End,
	}

	switch {
	case now.Before(st.OpensAt):
		st.State = StateTooEarly
		st.Countdown = st.OpensAt.Sub(now)
		st.Message = "Join opens in " + FormatCountdown(st.Countdown)
	case now.Before(w.Start):
		st.State = StateCanJoin
		st.Countdown = w.Start.Sub(now)
		st.Message = "Session starts in " + FormatCountdown(st.Countdown)
	case now.Before(w.End):
		st.State = StateInProgress
		st.Countdown = w.End.Sub(now)
		st.Message = "Session in progress, " + FormatCountdown(st.Countdown) + " remaining"
	default:
		st.State = StateEnded
		st.Message = "Session has ended"
	}

	st.CanJoin = st.State == StateCanJoin || st.State == StateInProgress
	st.Seconds = int64(st.Countdown.Round(time.Second) / time.Second)
	return st
}

// FormatCountdown renders a duration the way the waiting room shows it.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
