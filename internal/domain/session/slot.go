package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BruksfildServices01/coaching-sessions/internal/timezone"
)

// SlotKey identifies a consultant slot by its date and start time in the
// normalized forms the store compares against.
type SlotKey struct {
	Date      string
	StartTime string
}

// NewSlotKey validates and normalizes a date and a wall-clock start time.
// Accepted clock forms: "9:00", "09:00", "09:00:00".
func NewSlotKey(date, clock string) (SlotKey, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(timezone.DateLayout, date); err != nil {
		return SlotKey{}, fmt.Errorf("invalid date %q", date)
	}

	normalized, err := NormalizeClock(clock)
	if err != nil {
		return SlotKey{}, err
	}

	return SlotKey{Date: date, StartTime: normalized}, nil
}

// Key is the combined timestamp string used to compare slots.
func (k SlotKey) Key() string {
	return k.Date + "T" + k.StartTime
}

func (k SlotKey) String() string {
	return k.Key()
}

// In resolves the slot start as an instant in loc.
func (k SlotKey) In(loc *time.Location) (time.Time, error) {
	return timezone.ParseDateTime(k.Date, k.StartTime, loc)
}

// NormalizeClock turns a wall-clock string into HH:MM.
func NormalizeClock(clock string) (string, error) {
	clock = strings.TrimSpace(clock)
	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", fmt.Errorf("invalid time %q", clock)
	}
	for _, p := range parts {
		if !digitsOnly(p) {
			return "", fmt.Errorf("invalid time %q", clock)
		}
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h > 23 || len(parts[0]) > 2 {
		return "", fmt.Errorf("invalid time %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m > 59 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid time %q", clock)
	}
	if len(parts) == 3 {
		s, err := strconv.Atoi(parts[2])
		if err != nil || s > 59 || len(parts[2]) != 2 {
			return "", fmt.Errorf("invalid time %q", clock)
		}
	}

	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
