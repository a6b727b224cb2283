package service

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// parseStoredDate parses a YYYY-MM-DD value read from storage. Failures are data-integrity errors.
func parseStoredDate(raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, fmt.Sprintf("invalid stored date %q", raw))
	}
	return d, nil
}

// parseStoredClock parses a HH:MM value read from storage.
func parseStoredClock(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status, fmt.Sprintf("invalid stored time %q", raw))
	}
	return t, nil
}

// parseWeekday maps an English day name onto time.Weekday.
func parseWeekday(raw string) (time.Weekday, bool) {
	name := strings.TrimSpace(raw)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, true
		}
	}
	return time.Sunday, false
}

// civilDate truncates t to its calendar date in t's own location, expressed at UTC midnight.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// atClock combines a calendar date with a HH:MM clock in loc.
func atClock(date time.Time, clock time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}
