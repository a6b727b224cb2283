package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/noah-isme/attendsmart-api/internal/models"
)

const (
	icsMaxFeedSize   = 2 * 1024 * 1024
	icsFetchTimeout  = 20 * time.Second
	icsMaxEventDays  = 31
	icsCompactLayout = "20060102"
)

// FetchHolidayCalendar downloads an iCalendar feed. webcal:// links are fetched over https.
func FetchHolidayCalendar(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u := strings.TrimSpace(rawURL)
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return nil, fmt.Errorf("unsupported calendar url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build calendar request: %w", err)
	}
	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch calendar: HTTP %d", resp.StatusCode)
	}
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFeedSize),
		Closer: resp.Body,
	}, nil
}

// ParseHolidayCalendar turns VEVENTs into one national holiday per covered date.
// DTEND is exclusive as in RFC 5545; events without a summary are skipped.
func ParseHolidayCalendar(feed io.Reader) ([]models.NationalHoliday, error) {
	cal, err := ics.ParseCalendar(feed)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var out []models.NationalHoliday
	seen := make(map[string]bool)
	for _, evt := range cal.Events() {
		summary := evt.GetProperty(ics.ComponentPropertySummary)
		if summary == nil || strings.TrimSpace(summary.Value) == "" {
			continue
		}
		start, ok := icsDate(evt.GetProperty(ics.ComponentPropertyDtStart))
		if !ok {
			continue
		}
		end := start.AddDate(0, 0, 1)
		if e, ok := icsDate(evt.GetProperty(ics.ComponentPropertyDtEnd)); ok && e.After(start) {
			end = e
		}
		if limit := start.AddDate(0, 0, icsMaxEventDays); end.After(limit) {
			end = limit
		}

		title := strings.TrimSpace(summary.Value)
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			date := formatDate(d)
			if seen[date] {
				continue
			}
			seen[date] = true
			out = append(out, models.NationalHoliday{Date: date, Title: title})
		}
	}
	return out, nil
}

func icsDate(prop *ics.IANAProperty) (time.Time, bool) {
	if prop == nil || len(prop.Value) < len(icsCompactLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(icsCompactLayout, prop.Value[:len(icsCompactLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
