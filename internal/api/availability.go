/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"

	"github.com/kljensen/icaltoday/internal/availability"
	"github.com/kljensen/icaltoday/internal/ical"
	"github.com/kljensen/icaltoday/internal/window"
)

func (a *API) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := availability.ParseRequest(q.Get("start_date"), q.Get("end_date"), q.Get("start_time"), q.Get("end_time"))
	if err != nil {
		if errors.Is(err, window.ErrInvalidRange) {
			writeError(w, http.StatusBadRequest, "invalid range")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Include = queryList(r, "include")
	req.Exclude = queryList(r, "exclude")
	if len(req.Exclude) == 0 {
		req.Exclude = a.defaults.ExcludeCalendars
	}
	if req.ExcludeAllDay, err = queryBool(r, "exclude_all_day", a.defaults.ExcludeAllDay); err != nil {
		writeError(w, http.StatusBadRequest, "invalid exclude_all_day")
		return
	}
	local, err := queryBool(r, "local", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid local")
		return
	}

	format := q.Get("format")
	if format != "" && format != "json" && format != "ical" {
		writeError(w, http.StatusBadRequest, "invalid format")
		return
	}

	free, err := a.availability.List(r.Context(), req)
	if err != nil {
		a.logger.Error().Err(err).Msg("availability failed")
		writeError(w, http.StatusInternalServerError, "availability_failed")
		return
	}

	if format == "ical" {
		w.Header().Set("Content-Type", ical.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="availability.ics"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(ical.ExportFree("Availability", free, a.now()))
		return
	}

	layout := availability.LayoutRFC3339
	if local {
		layout = availability.LayoutLocal
	}
	writeJSON(w, http.StatusOK, availability.Slots(free, layout, a.availability.Location()))
}
