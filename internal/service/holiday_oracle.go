package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

type holidayRange struct {
	start time.Time
	end   time.Time
	title string
}

// HolidayOracle answers holiday questions against a snapshot of national and personal holidays.
type HolidayOracle struct {
	national map[time.Time]string
	personal map[string][]holidayRange
}

// NewHolidayOracle indexes the provided records. The first title seen for a date wins.
func NewHolidayOracle(national []models.NationalHoliday, personal []models.UserHoliday) (*HolidayOracle, error) {
	o := &HolidayOracle{
		national: make(map[time.Time]string, len(national)),
		personal: make(map[string][]holidayRange),
	}
	for _, h := range national {
		date, err := parseStoredDate(h.Date)
		if err != nil {
			return nil, err
		}
		if _, seen := o.national[date]; !seen {
			o.national[date] = h.Title
		}
	}
	for _, h := range personal {
		start, err := parseStoredDate(h.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseStoredDate(h.EndDate)
		if err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, appErrors.Clone(appErrors.ErrDataIntegrity, fmt.Sprintf("holiday %s ends before it starts", h.ID))
		}
		o.personal[h.UserID] = append(o.personal[h.UserID], holidayRange{start: start, end: end, title: h.Title})
	}
	return o, nil
}

// IsNationalHoliday returns the national holiday title for date, if any.
func (o *HolidayOracle) IsNationalHoliday(date time.Time) (string, bool) {
	if o == nil {
		return "", false
	}
	title, ok := o.national[civilDate(date)]
	return title, ok
}

// IsUserHoliday returns the title of the first personal holiday of userID covering date.
func (o *HolidayOracle) IsUserHoliday(userID string, date time.Time) (string, bool) {
	if o == nil {
		return "", false
	}
	day := civilDate(date)
	for _, r := range o.personal[userID] {
		if !day.Before(r.start) && !day.After(r.end) {
			return r.title, true
		}
	}
	return "", false
}

// HolidayOn checks the national calendar first, then the user's own ranges.
func (o *HolidayOracle) HolidayOn(userID string, date time.Time) (models.LectureClassification, string, bool) {
	if title, ok := o.IsNationalHoliday(date); ok {
		return models.ClassificationNationalHoliday, title, true
	}
	if title, ok := o.IsUserHoliday(userID, date); ok {
		return models.ClassificationUserHoliday, title, true
	}
	return "", "", false
}
