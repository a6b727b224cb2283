package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendsmart-api/internal/models"
	appErrors "github.com/noah-isme/attendsmart-api/pkg/errors"
)

type memoryUserHolidayRepo struct {
	holidays []models.UserHoliday
}

func (m *memoryUserHolidayRepo) ListByUser(ctx context.Context, userID string) ([]models.UserHoliday, error) {
	var out []models.UserHoliday
	for _, h := range m.holidays {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memoryUserHolidayRepo) FindByID(ctx context.Context, id string) (*models.UserHoliday, error) {
	for _, h := range m.holidays {
		if h.ID == id {
			copy := h
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryUserHolidayRepo) Create(ctx context.Context, holiday *models.UserHoliday) error {
	m.holidays = append(m.holidays, *holiday)
	return nil
}

func (m *memoryUserHolidayRepo) Update(ctx context.Context, holiday *models.UserHoliday) error {
	for i := range m.holidays {
		if m.holidays[i].ID == holiday.ID {
			m.holidays[i] = *holiday
		}
	}
	return nil
}

func (m *memoryUserHolidayRepo) Delete(ctx context.Context, id string) error {
	for i := range m.holidays {
		if m.holidays[i].ID == id {
			m.holidays = append(m.holidays[:i], m.holidays[i+1:]...)
			return nil
		}
	}
	return nil
}

type memoryNationalRepo struct {
	holidays  []models.NationalHoliday
	listCalls int
}

func (m *memoryNationalRepo) List(ctx context.Context) ([]models.NationalHoliday, error) {
	m.listCalls++
	return append([]models.NationalHoliday(nil), m.holidays...), nil
}

func (m *memoryNationalRepo) Create(ctx context.Context, holiday *models.NationalHoliday) error {
	m.holidays = append(m.holidays, *holiday)
	return nil
}

func (m *memoryNationalRepo) ExistingDates(ctx context.Context) (map[string]bool, error) {
	dates := make(map[string]bool, len(m.holidays))
	for _, h := range m.holidays {
		dates[h.Date] = true
	}
	return dates, nil
}

type memoryCache struct {
	entries     map[string][]byte
	invalidated []string
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) Invalidate(ctx context.Context, pattern string) error {
	delete(m.entries, pattern)
	m.invalidated = append(m.invalidated, pattern)
	return nil
}

func TestHolidayServiceNationalHolidaysCached(t *testing.T) {
	national := &memoryNationalRepo{holidays: []models.NationalHoliday{{ID: "n1", Date: "2024-01-26", Title: "Republic Day"}}}
	cache := &memoryCache{}
	svc := NewHolidayService(&memoryUserHolidayRepo{}, national, cache, time.Minute, nil, nil)

	first, err := svc.NationalHolidays(context.Background())
	require.NoError(t, err)
	second, err := svc.NationalHolidays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, national.listCalls)

	_, err = svc.CreateNational(context.Background(), NationalHolidayRequest{Date: "2024-08-15", Title: "Independence Day"})
	require.NoError(t, err)
	assert.Equal(t, []string{nationalHolidayCacheKey}, cache.invalidated)

	third, err := svc.NationalHolidays(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, national.listCalls)
}

func TestHolidayServicePersonalCRUD(t *testing.T) {
	repo := &memoryUserHolidayRepo{}
	svc := NewHolidayService(repo, &memoryNationalRepo{}, nil, 0, nil, nil)

	created, err := svc.CreatePersonal(context.Background(), "user-1", UserHolidayRequest{StartDate: "2024-02-01", EndDate: "2024-02-03", Title: "Trip"})
	require.NoError(t, err)
	assert.Equal(t, models.HolidayCategoryPersonal, created.Category)

	updated, err := svc.UpdatePersonal(context.Background(), "user-1", created.ID, UserHolidayRequest{StartDate: "2024-02-01", EndDate: "2024-02-05", Title: "Campus closed", Category: "Institutional"})
	require.NoError(t, err)
	assert.Equal(t, models.HolidayCategoryInstitutional, updated.Category)
	assert.Equal(t, "2024-02-05", repo.holidays[0].EndDate)

	_, err = svc.UpdatePersonal(context.Background(), "user-2", created.ID, UserHolidayRequest{StartDate: "2024-02-01", EndDate: "2024-02-05", Title: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.DeletePersonal(context.Background(), "user-1", created.ID))
	listed, err := svc.ListPersonal(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestHolidayServicePersonalValidation(t *testing.T) {
	svc := NewHolidayService(&memoryUserHolidayRepo{}, &memoryNationalRepo{}, nil, 0, nil, nil)

	cases := []UserHolidayRequest{
		{StartDate: "2024-02-03", EndDate: "2024-02-01", Title: "Backwards"},
		{StartDate: "2024-02-01", EndDate: "2024-02-03", Title: "Trip", Category: "vacation"},
		{StartDate: "2024-02-01", EndDate: "2024-02-03"},
	}
	for _, req := range cases {
		_, err := svc.CreatePersonal(context.Background(), "user-1", req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

const sampleHolidayFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//Holidays//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:new-year@example.com\r\n" +
	"DTSTART;VALUE=DATE:20240101\r\n" +
	"DTEND;VALUE=DATE:20240102\r\n" +
	"SUMMARY:New Year\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:festival@example.com\r\n" +
	"DTSTART;VALUE=DATE:20240310\r\n" +
	"DTEND;VALUE=DATE:20240312\r\n" +
	"SUMMARY:Spring Festival\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:untitled@example.com\r\n" +
	"DTSTART;VALUE=DATE:20240401\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseHolidayCalendar(t *testing.T) {
	holidays, err := ParseHolidayCalendar(strings.NewReader(sampleHolidayFeed))
	require.NoError(t, err)
	assert.Equal(t, []models.NationalHoliday{
		{Date: "2024-01-01", Title: "New Year"},
		{Date: "2024-03-10", Title: "Spring Festival"},
		{Date: "2024-03-11", Title: "Spring Festival"},
	}, holidays)
}

func TestHolidayServiceImportNationalSkipsExisting(t *testing.T) {
	national := &memoryNationalRepo{holidays: []models.NationalHoliday{{ID: "n1", Date: "2024-01-01", Title: "New Year"}}}
	cache := &memoryCache{}
	svc := NewHolidayService(&memoryUserHolidayRepo{}, national, cache, 0, nil, nil)

	result, err := svc.ImportNational(context.Background(), strings.NewReader(sampleHolidayFeed))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{"2024-03-10", "2024-03-11"}, result.Dates)
	assert.Len(t, national.holidays, 3)
	assert.NotEmpty(t, cache.invalidated)
}

func TestHolidayServiceImportRejectsGarbage(t *testing.T) {
	svc := NewHolidayService(&memoryUserHolidayRepo{}, &memoryNationalRepo{}, nil, 0, nil, nil)

	_, err := svc.ImportNationalFromURL(context.Background(), "ftp://example.com/holidays.ics")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
