package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

type ledgerKey struct {
	userID    string
	date      string
	subject   string
	startTime string
}

func newLedgerKey(userID, date, subject, startTime string) ledgerKey {
	return ledgerKey{
		userID:    strings.TrimSpace(userID),
		date:      strings.TrimSpace(date),
		subject:   strings.TrimSpace(subject),
		startTime: strings.TrimSpace(startTime),
	}
}

// AttendanceLedger is a read-only view over recorded marks.
type AttendanceLedger struct {
	marks map[ledgerKey]models.AttendanceMark
}

// NewAttendanceLedger indexes marks by (user, date, subject, start time). The first mark wins.
func NewAttendanceLedger(marks []models.AttendanceMark) *AttendanceLedger {
	l := &AttendanceLedger{marks: make(map[ledgerKey]models.AttendanceMark, len(marks))}
	for _, m := range marks {
		key := newLedgerKey(m.UserID, m.Date, m.Subject, m.StartTime)
		if _, seen := l.marks[key]; !seen {
			l.marks[key] = m
		}
	}
	return l
}

// Lookup returns the mark recorded for a lecture occurrence.
func (l *AttendanceLedger) Lookup(userID string, date time.Time, subject, startTime string) (models.AttendanceMark, bool) {
	if l == nil {
		return models.AttendanceMark{}, false
	}
	m, ok := l.marks[newLedgerKey(userID, formatDate(date), subject, startTime)]
	return m, ok
}

// TimetableIndex groups weekly slots by user and weekday, preserving insertion order.
type TimetableIndex struct {
	slots map[string][]indexedSlot
}

type indexedSlot struct {
	slot    models.TimetableSlot
	weekday time.Weekday
}

// NewTimetableIndex validates stored day names and clock values while indexing.
func NewTimetableIndex(slots []models.TimetableSlot) (*TimetableIndex, error) {
	idx := &TimetableIndex{slots: make(map[string][]indexedSlot)}
	for _, s := range slots {
		weekday, ok := parseWeekday(s.Day)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("invalid stored day %q for slot %s", s.Day, s.ID))
		}
		if _, err := parseStoredClock(s.StartTime); err != nil {
			return nil, err
		}
		if _, err := parseStoredClock(s.EndTime); err != nil {
			return nil, err
		}
		idx.slots[s.UserID] = append(idx.slots[s.UserID], indexedSlot{slot: s, weekday: weekday})
	}
	return idx, nil
}

// Users returns every user owning at least one slot.
func (i *TimetableIndex) Users() []string {
	users := make([]string, 0, len(i.slots))
	for userID := range i.slots {
		users = append(users, userID)
	}
	return users
}

// ForDay returns the user's slots recurring on weekday.
func (i *TimetableIndex) ForDay(userID string, weekday time.Weekday) []models.TimetableSlot {
	if i == nil {
		return nil
	}
	var out []models.TimetableSlot
	for _, s := range i.slots[userID] {
		if s.weekday == weekday {
			out = append(out, s.slot)
		}
	}
	return out
}
