package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
	"github.com/BruksfildServices01/coaching-sessions/internal/models"
)

// MemorySessionRepository keeps everything in process. It backs
// STORE_DRIVER=memory and the use case tests, and enforces the same
// active-slot uniqueness the postgres index does.
type MemorySessionRepository struct {
	mu sync.Mutex

	sessions  map[uint]models.Session
	slots     []models.TimeSlot
	reminders map[uint]models.SessionReminder
	history   []models.RescheduleHistory

	nextID uint
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions:  make(map[uint]models.Session),
		reminders: make(map[uint]models.SessionReminder),
	}
}

func (r *MemorySessionRepository) id() uint {
	r.nextID++
	return r.nextID
}

// --------------------------------------------------
// Seeding
// --------------------------------------------------

// AddSession stores s, assigning an ID when it has none.
func (r *MemorySessionRepository) AddSession(s models.Session) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == 0 {
		s.ID = r.id()
	} else if s.ID > r.nextID {
		r.nextID = s.ID
	}
	if s.Status == "" {
		s.Status = string(domain.StatusPending)
	}
	r.sessions[s.ID] = s
	return &s
}

func (r *MemorySessionRepository) AddTimeSlot(slot models.TimeSlot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot.ID == 0 {
		slot.ID = r.id()
	}
	r.slots = append(r.slots, slot)
}

// --------------------------------------------------
// Session
// --------------------------------------------------

func (r *MemorySessionRepository) GetSession(_ context.Context, id uint) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *MemorySessionRepository) CountActiveAtSlot(
	_ context.Context,
	consultantID uint,
	slot domain.SlotKey,
	excludeSessionID uint,
) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(r.activeAt(consultantID, slot.Date, slot.StartTime, excludeSessionID)), nil
}

func (r *MemorySessionRepository) activeAt(consultantID uint, date, start string, exclude uint) int {
	n := 0
	for _, s := range r.sessions {
		if s.ID == exclude || s.ConsultantID != consultantID {
			continue
		}
		if s.SessionDate == date && s.StartTime == start && domain.Status(s.Status).IsActive() {
			n++
		}
	}
	return n
}

func (r *MemorySessionRepository) ListActiveSessionsForDay(
	_ context.Context,
	consultantID uint,
	date string,
) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Session
	for _, s := range r.sessions {
		if s.ConsultantID == consultantID && s.SessionDate == date && domain.Status(s.Status).IsActive() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *MemorySessionRepository) ApplyReschedule(
	_ context.Context,
	upd domain.RescheduleUpdate,
) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[upd.SessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.RescheduleCount != upd.ExpectedCount || !domain.Status(s.Status).IsActive() {
		return nil, domain.ErrStaleSession
	}
	if r.activeAt(s.ConsultantID, upd.Date, upd.StartTime, s.ID) > 0 {
		return nil, domain.ErrSlotTaken
	}

	at := upd.RescheduledAt
	by := upd.RescheduledBy

	s.SessionDate = upd.Date
	s.StartTime = upd.StartTime
	s.EndTime = upd.EndTime
	s.RescheduleCount++
	s.RescheduleReason = upd.Reason
	s.RescheduledAt = &at
	s.RescheduledBy = &by
	s.UpdatedAt = at
	if upd.OriginalSessionDate != nil {
		original := *upd.OriginalSessionDate
		s.OriginalSessionDate = &original
	}

	r.sessions[s.ID] = s
	return &s, nil
}

func (r *MemorySessionRepository) AppendRescheduleHistory(_ context.Context, h *models.RescheduleHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h.ID = r.id()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	r.history = append(r.history, *h)
	return nil
}

func (r *MemorySessionRepository) ListRescheduleHistory(_ context.Context, sessionID uint) ([]models.RescheduleHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.RescheduleHistory
	for _, h := range r.history {
		if h.SessionID == sessionID {
			out = append(out, h)
		}
	}
	return out, nil
}

// --------------------------------------------------
// Video
// --------------------------------------------------

func (r *MemorySessionRepository) SetRoomIfAbsent(_ context.Context, sessionID uint, room domain.Room) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return false, domain.ErrSessionNotFound
	}
	if s.DailyRoomURL != "" {
		return false, nil
	}
	s.DailyRoomName = room.Name
	s.DailyRoomURL = room.URL
	r.sessions[sessionID] = s
	return true, nil
}

func (r *MemorySessionRepository) SaveConsultantToken(_ context.Context, sessionID uint, token string) error {
	return r.update(sessionID, func(s *models.Session) { s.DailyMeetingToken = token })
}

func (r *MemorySessionRepository) MarkMeetingStarted(_ context.Context, sessionID uint, at time.Time) error {
	return r.update(sessionID, func(s *models.Session) {
		if s.MeetingStartedAt == nil {
			s.MeetingStartedAt = &at
		}
	})
}

func (r *MemorySessionRepository) MarkMeetingEnded(_ context.Context, sessionID uint, at time.Time) error {
	return r.update(sessionID, func(s *models.Session) {
		if s.MeetingEndedAt == nil {
			s.MeetingEndedAt = &at
		}
	})
}

func (r *MemorySessionRepository) update(sessionID uint, fn func(*models.Session)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	fn(&s)
	r.sessions[sessionID] = s
	return nil
}

// --------------------------------------------------
// Availability
// --------------------------------------------------

func (r *MemorySessionRepository) ListTimeSlots(_ context.Context, consultantID uint, date string) ([]models.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.TimeSlot
	for _, slot := range r.slots {
		if slot.ConsultantID == consultantID && slot.Date == date {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

// --------------------------------------------------
// Reminders
// --------------------------------------------------

func (r *MemorySessionRepository) ReplaceReminders(
	_ context.Context,
	sessionID uint,
	userID uint,
	reminders []models.SessionReminder,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rem := range r.reminders {
		if rem.SessionID == sessionID && rem.UserID == userID {
			delete(r.reminders, id)
		}
	}
	for i := range reminders {
		rem := reminders[i]
		rem.ID = r.id()
		rem.SessionID = sessionID
		rem.UserID = userID
		r.reminders[rem.ID] = rem
		reminders[i].ID = rem.ID
	}
	return nil
}

func (r *MemorySessionRepository) ListReminders(_ context.Context, sessionID uint, userID uint) ([]models.SessionReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.SessionReminder
	for _, rem := range r.reminders {
		if rem.SessionID == sessionID && rem.UserID == userID {
			out = append(out, rem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimingMinutes > out[j].TimingMinutes })
	return out, nil
}

func (r *MemorySessionRepository) ListPendingReminders(_ context.Context) ([]models.SessionReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.SessionReminder
	for _, rem := range r.reminders {
		if rem.IsSent {
			continue
		}
		s, ok := r.sessions[rem.SessionID]
		if !ok || !domain.Status(s.Status).IsActive() {
			continue
		}
		rem.Session = s
		out = append(out, rem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemorySessionRepository) MarkReminderSent(_ context.Context, reminderID uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.reminders[reminderID]
	if !ok {
		return domain.ErrReminderNotFound
	}
	if rem.IsSent {
		return nil
	}
	rem.IsSent = true
	rem.SentAt = &at
	r.reminders[reminderID] = rem
	return nil
}

var _ domain.Repository = (*MemorySessionRepository)(nil)
