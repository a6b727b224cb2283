package dto

// HolidayImportResult summarises an iCalendar import of national holidays.
type HolidayImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Dates    []string `json:"dates"`
}
