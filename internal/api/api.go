/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes calendars, events and availability over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kljensen/icaltoday/internal/availability"
	"github.com/kljensen/icaltoday/internal/calendar"
	"github.com/kljensen/icaltoday/internal/events"
	"github.com/kljensen/icaltoday/internal/ical"
)

// Defaults are applied to availability requests that don't override them.
type Defaults struct {
	ExcludeCalendars []string
	ExcludeAllDay    bool
}

// API exposes HTTP handlers.
type API struct {
	db           *gorm.DB
	store        *calendar.Store
	availability *availability.Service
	importer     *ical.Importer
	bus          events.Publisher
	defaults     Defaults
	now          func() time.Time
	logger       zerolog.Logger
}

// New creates the API router wrapper. bus may be nil.
func New(db *gorm.DB, store *calendar.Store, svc *availability.Service, importer *ical.Importer, bus events.Publisher, defaults Defaults, logger zerolog.Logger) *API {
	return &API{
		db:           db,
		store:        store,
		availability: svc,
		importer:     importer,
		bus:          bus,
		defaults:     defaults,
		now:          time.Now,
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers API routes on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/calendars", func(r chi.Router) {
			r.Get("/", a.handleCalendarsList)
			r.Post("/{name}/import", a.handleCalendarImport)
		})
		r.Get("/events", a.handleEventsList)
		r.Get("/availability", a.handleAvailability)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		a.logger.Warn().Err(err).Msg("health check: database unreachable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// queryList collects a repeated parameter, also splitting comma-separated values.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryBool(r *http.Request, key string, def bool) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseBool(raw)
}
