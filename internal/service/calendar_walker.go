package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

// CalendarWalker expands weekly slots into dated lecture occurrences.
type CalendarWalker struct {
	holidays  *HolidayOracle
	ledger    *AttendanceLedger
	timetable *TimetableIndex
}

// NewCalendarWalker wires the three read-only views together.
func NewCalendarWalker(holidays *HolidayOracle, ledger *AttendanceLedger, timetable *TimetableIndex) *CalendarWalker {
	return &CalendarWalker{holidays: holidays, ledger: ledger, timetable: timetable}
}

// Enumerate lists every occurrence of the user's slots in [from, to], both ends inclusive.
// Occurrences are ordered by date, then by slot order within the day.
func (w *CalendarWalker) Enumerate(userID string, from, to time.Time) ([]models.LectureOccurrence, error) {
	start, end := civilDate(from), civilDate(to)
	var out []models.LectureOccurrence
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		slots := w.timetable.ForDay(userID, day.Weekday())
		if len(slots) == 0 {
			continue
		}
		holiday, title, isHoliday := w.holidays.HolidayOn(userID, day)
		for _, slot := range slots {
			occ := models.LectureOccurrence{
				UserID:    userID,
				Date:      day,
				Subject:   slot.Subject,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
			}
			if isHoliday {
				occ.Classification = holiday
				occ.HolidayTitle = title
				out = append(out, occ)
				continue
			}
			classification, err := w.classifyMark(userID, day, slot)
			if err != nil {
				return nil, err
			}
			occ.Classification = classification
			out = append(out, occ)
		}
	}
	return out, nil
}

func (w *CalendarWalker) classifyMark(userID string, day time.Time, slot models.TimetableSlot) (models.LectureClassification, error) {
	mark, ok := w.ledger.Lookup(userID, day, slot.Subject, slot.StartTime)
	if !ok {
		return models.ClassificationUnmarked, nil
	}
	switch mark.Status {
	case models.AttendanceStatusYes:
		return models.ClassificationPresent, nil
	case models.AttendanceStatusNo:
		return models.ClassificationAbsent, nil
	case models.AttendanceStatusOff:
		return models.ClassificationOff, nil
	default:
		return "", appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("invalid attendance status %q on %s", mark.Status, formatDate(day)))
	}
}

// occurrenceTally counts occurrences by classification.
type occurrenceTally struct {
	present  int
	absent   int
	unmarked int
	off      int
	holidays int
}

func tallyOccurrences(occurrences []models.LectureOccurrence) occurrenceTally {
	var t occurrenceTally
	for _, occ := range occurrences {
		switch occ.Classification {
		case models.ClassificationPresent:
			t.present++
		case models.ClassificationAbsent:
			t.absent++
		case models.ClassificationUnmarked:
			t.unmarked++
		case models.ClassificationOff:
			t.off++
		case models.ClassificationNationalHoliday, models.ClassificationUserHoliday:
			t.holidays++
		}
	}
	return t
}

// total counts lectures that took place or should have: unmarked, present and absent.
func (t occurrenceTally) total() int {
	return t.present + t.absent + t.unmarked
}
