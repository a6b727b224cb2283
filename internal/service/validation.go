package service

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/attendsmart-api/internal/models"
)

// registerValidations installs the custom tags shared by request payloads.
// Registering twice on the same validator replaces the previous function.
func registerValidations(v *validator.Validate) {
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := normalizeWeekday(fl.Field().String())
		return ok
	})
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(timeLayout, strings.TrimSpace(fl.Field().String()))
		return err == nil
	})
	v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(dateLayout, strings.TrimSpace(fl.Field().String()))
		return err == nil
	})
	v.RegisterValidation("holiday_category", func(fl validator.FieldLevel) bool {
		return models.HolidayCategory(strings.ToLower(fl.Field().String())).Valid()
	})
	v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		_, ok := normalizeStatus(fl.Field().String())
		return ok
	})
}

// normalizeWeekday maps any casing of Monday..Saturday onto its canonical name.
func normalizeWeekday(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	for _, day := range models.Weekdays {
		if strings.EqualFold(day, name) {
			return day, true
		}
	}
	return "", false
}

func normalizeStatus(raw string) (models.AttendanceStatus, bool) {
	value := strings.TrimSpace(raw)
	for _, status := range []models.AttendanceStatus{models.AttendanceStatusYes, models.AttendanceStatusNo, models.AttendanceStatusOff} {
		if strings.EqualFold(string(status), value) {
			return status, true
		}
	}
	return "", false
}
