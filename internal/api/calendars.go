/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kljensen/icaltoday/internal/calendar"
	"github.com/kljensen/icaltoday/internal/events"
	"github.com/kljensen/icaltoday/internal/ical"
	"github.com/kljensen/icaltoday/internal/window"
)

// maxImportBytes caps the size of an uploaded .ics body.
const maxImportBytes = 10 << 20

func (a *API) handleCalendarsList(w http.ResponseWriter, r *http.Request) {
	calendars, err := a.store.ListCalendars(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("list calendars failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	names := make([]string, len(calendars))
	for i, c := range calendars {
		names[i] = c.Name
	}
	writeJSON(w, http.StatusOK, names)
}

func (a *API) handleEventsList(w http.ResponseWriter, r *http.Request) {
	loc := a.availability.Location()
	start, err := window.ParseInstant(r.URL.Query().Get("start"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, err := window.ParseInstant(r.URL.Query().Get("end"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end before start")
		return
	}

	events, err := a.store.EventsFor(r.Context(), start, end, queryList(r, "calendar"))
	if err != nil {
		a.logger.Error().Err(err).Msg("list events failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, calendar.SimpleEvents(events, a.now().In(loc)))
}

func (a *API) handleCalendarImport(w http.ResponseWriter, r *http.Request) {
	if a.importer == nil {
		writeError(w, http.StatusNotImplemented, "import disabled")
		return
	}
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "calendar name required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	result, err := a.importer.Import(r.Context(), name, "api", body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		case errors.Is(err, ical.ErrInvalidData):
			writeError(w, http.StatusBadRequest, "invalid iCalendar data")
		default:
			a.logger.Error().Err(err).Str("calendar", name).Msg("calendar import failed")
			writeError(w, http.StatusInternalServerError, "import_failed")
		}
		return
	}

	if a.bus != nil {
		a.bus.Publish(events.EventCalendarImported, events.Payload{
			"calendar":    name,
			"calendar_id": result.CalendarID,
			"created":     result.Created,
			"updated":     result.Updated,
			"pruned":      result.Pruned,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"calendar_id": result.CalendarID,
		"created":     result.Created,
		"updated":     result.Updated,
		"skipped":     result.Skipped,
		"pruned":      result.Pruned,
		"errors":      result.Errors,
	})
}
