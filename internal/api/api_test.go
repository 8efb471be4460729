/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kljensen/icaltoday/internal/availability"
	"github.com/kljensen/icaltoday/internal/calendar"
	"github.com/kljensen/icaltoday/internal/events"
	"github.com/kljensen/icaltoday/internal/ical"
	"github.com/kljensen/icaltoday/internal/models"
)

const workCalendar = "BEGIN:VCALENDAR\r\n" +
	"BEGIN:VEVENT\r\nUID:review@example.com\r\nSUMMARY:Review\r\n" +
	"DTSTART:20260302T100000Z\r\nDTEND:20260302T110000Z\r\n" +
	"ATTENDEE:mailto:ada@example.com\r\nEND:VEVENT\r\n" +
	"BEGIN:VEVENT\r\nUID:offsite@example.com\r\nSUMMARY:Offsite\r\n" +
	"DTSTART;VALUE=DATE:20260303\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

type recordingPublisher struct {
	published []events.Payload
}

func (p *recordingPublisher) Publish(eventType events.EventType, payload events.Payload) {
	if eventType == events.EventCalendarImported {
		p.published = append(p.published, payload)
	}
}

func newTestAPI(t *testing.T) (*API, http.Handler, *recordingPublisher) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Calendar{}, &models.Event{}, &models.Attendee{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := zerolog.Nop()
	store := calendar.NewStore(db, logger)
	svc := availability.NewService(store, nil, time.UTC, logger)
	importer := ical.NewImporter(db, time.UTC, logger)
	inv := &recordingPublisher{}

	a := New(db, store, svc, importer, inv, Defaults{}, logger)
	a.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	a.Routes(r)
	return a, r, inv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func importWork(t *testing.T, h http.Handler) {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/v1/calendars/Work/import", workCalendar)
	if rr.Code != http.StatusOK {
		t.Fatalf("import status = %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHealth(t *testing.T) {
	_, h, _ := newTestAPI(t)
	rr := do(t, h, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestImportThenListCalendars(t *testing.T) {
	_, h, inv := newTestAPI(t)
	importWork(t, h)

	if len(inv.published) != 1 || inv.published[0]["calendar"] != "Work" || inv.published[0]["created"] != 2 {
		t.Fatalf("published = %v, want one import of Work", inv.published)
	}

	rr := do(t, h, http.MethodGet, "/api/v1/calendars", "")
	var names []string
	if err := json.Unmarshal(rr.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) != 1 || names[0] != "Work" {
		t.Fatalf("calendars = %v, want [Work]", names)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	_, h, inv := newTestAPI(t)
	rr := do(t, h, http.MethodPost, "/api/v1/calendars/Work/import", "not a calendar")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if len(inv.published) != 0 {
		t.Fatal("import event published after failed import")
	}
}

func TestEventsList(t *testing.T) {
	_, h, _ := newTestAPI(t)
	importWork(t, h)

	rr := do(t, h, http.MethodGet, "/api/v1/events?start=2026-03-02&end=2026-03-03", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var events []calendar.SimpleEvent
	if err := json.Unmarshal(rr.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Name != "Review" || !events[0].IsToday {
		t.Fatalf("events = %+v", events)
	}
	if len(events[0].AttendeeEmails) != 1 || events[0].AttendeeEmails[0] != "ada@example.com" {
		t.Fatalf("attendeeEmails = %v", events[0].AttendeeEmails)
	}

	if rr := do(t, h, http.MethodGet, "/api/v1/events?start=yesterday&end=2026-03-03", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad start status = %d, want 400", rr.Code)
	}
}

func TestAvailability(t *testing.T) {
	_, h, _ := newTestAPI(t)
	importWork(t, h)

	tests := []struct {
		name  string
		query string
		want  []availability.Slot
	}{
		{
			name:  "all calendars",
			query: "start_date=2026-03-02&end_date=2026-03-03&start_time=09:00&end_time=17:00",
			want: []availability.Slot{
				{Start: "2026-03-02T09:00:00Z", End: "2026-03-02T10:00:00Z"},
				{Start: "2026-03-02T11:00:00Z", End: "2026-03-02T17:00:00Z"},
			},
		},
		{
			name:  "all-day excluded",
			query: "start_date=2026-03-02&end_date=2026-03-03&start_time=09:00&end_time=17:00&exclude_all_day=true&local=true",
			want: []availability.Slot{
				{Start: "2026-03-02 09:00", End: "2026-03-02 10:00"},
				{Start: "2026-03-02 11:00", End: "2026-03-02 17:00"},
				{Start: "2026-03-03 09:00", End: "2026-03-03 17:00"},
			},
		},
		{
			name:  "calendar excluded",
			query: "start_date=2026-03-02&end_date=2026-03-02&start_time=09:00&end_time=17:00&exclude=Work",
			want: []availability.Slot{
				{Start: "2026-03-02T09:00:00Z", End: "2026-03-02T17:00:00Z"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, "/api/v1/availability?"+tt.query, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
			}
			var got []availability.Slot
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("slots = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("slot %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAvailabilityICal(t *testing.T) {
	_, h, _ := newTestAPI(t)
	rr := do(t, h, http.MethodGet, "/api/v1/availability?start_date=2026-03-02&end_date=2026-03-02&start_time=09:00&end_time=17:00&format=ical", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != ical.ContentType {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "DTSTART:20260302T090000Z") {
		t.Fatalf("body missing free window: %s", rr.Body.String())
	}
}

func TestAvailabilityBadRequests(t *testing.T) {
	_, h, _ := newTestAPI(t)

	tests := []struct {
		name  string
		query string
	}{
		{"missing params", ""},
		{"inverted dates", "start_date=2026-03-05&end_date=2026-03-02&start_time=09:00&end_time=17:00"},
		{"inverted times", "start_date=2026-03-02&end_date=2026-03-03&start_time=17:00&end_time=09:00"},
		{"bad hour", "start_date=2026-03-02&end_date=2026-03-03&start_time=25:00&end_time=26:00"},
		{"bad format", "start_date=2026-03-02&end_date=2026-03-03&start_time=09:00&end_time=17:00&format=xml"},
		{"bad bool", "start_date=2026-03-02&end_date=2026-03-03&start_time=09:00&end_time=17:00&local=maybe"},
		{"span too long", "start_date=0001-01-01&end_date=9999-12-31&start_time=09:00&end_time=17:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, "/api/v1/availability?"+tt.query, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body=%s)", rr.Code, rr.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Fatalf("body = %s, want {\"error\": ...}", rr.Body.String())
			}
		})
	}
}

func TestImportCancellationFreesTime(t *testing.T) {
	_, h, _ := newTestAPI(t)
	importWork(t, h)

	cancelled := strings.Replace(workCalendar, "SUMMARY:Review\r\n", "SUMMARY:Review\r\nSTATUS:CANCELLED\r\n", 1)
	rr := do(t, h, http.MethodPost, "/api/v1/calendars/Work/import", cancelled)
	if rr.Code != http.StatusOK {
		t.Fatalf("import status = %d body=%s", rr.Code, rr.Body.String())
	}
	var summary map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary["pruned"] != float64(1) {
		t.Fatalf("pruned = %v, want 1", summary["pruned"])
	}

	rr = do(t, h, http.MethodGet, "/api/v1/availability?start_date=2026-03-02&end_date=2026-03-02&start_time=09:00&end_time=12:00", "")
	var got []availability.Slot
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, rr.Body.String())
	}
	want := availability.Slot{Start: "2026-03-02T09:00:00Z", End: "2026-03-02T12:00:00Z"}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("slots = %+v, want [%+v]", got, want)
	}
}

func TestImportKeepsValidEventsBesideBadOnes(t *testing.T) {
	_, h, _ := newTestAPI(t)

	doc := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\nUID:good@example.com\r\nSUMMARY:Good\r\nDTSTART:20260302T100000Z\r\nDTEND:20260302T110000Z\r\nEND:VEVENT\r\n" +
		"BEGIN:VEVENT\r\nUID:bad@example.com\r\nSUMMARY:Bad\r\nDTSTART:2026-03-02\r\nEND:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	rr := do(t, h, http.MethodPost, "/api/v1/calendars/Work/import", doc)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	var summary struct {
		Created int      `json:"created"`
		Skipped int      `json:"skipped"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Created != 1 || summary.Skipped != 1 || len(summary.Errors) != 1 {
		t.Fatalf("summary = %+v, want 1 created, 1 skipped, 1 error", summary)
	}
}
