/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package calendar reads calendars and events from the local store.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kljensen/icaltoday/internal/availability"
	"github.com/kljensen/icaltoday/internal/interval"
	"github.com/kljensen/icaltoday/internal/models"
)

// Store provides read access to stored calendars and their events.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewStore constructs a calendar store.
func NewStore(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger.With().Str("component", "calendar").Logger()}
}

// ListCalendars returns every calendar ordered by name.
func (s *Store) ListCalendars(ctx context.Context) ([]models.Calendar, error) {
	var calendars []models.Calendar
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&calendars).Error; err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	return calendars, nil
}

// MatchingCalendars returns the calendars whose names are listed. An empty list
// matches every calendar. Unknown names are ignored.
func (s *Store) MatchingCalendars(ctx context.Context, names []string) ([]models.Calendar, error) {
	if len(names) == 0 {
		return s.ListCalendars(ctx)
	}

	var calendars []models.Calendar
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Order("name ASC").Find(&calendars).Error; err != nil {
		return nil, fmt.Errorf("match calendars: %w", err)
	}

	if len(calendars) < len(names) {
		found := make(map[string]bool, len(calendars))
		for _, c := range calendars {
			found[c.Name] = true
		}
		for _, n := range names {
			if !found[n] {
				s.logger.Warn().Str("calendar", n).Msg("calendar not found")
			}
		}
	}
	return calendars, nil
}

// Events returns events on the given calendars that overlap [start, end),
// ordered by start time with attendees and calendar loaded.
func (s *Store) Events(ctx context.Context, start, end time.Time, calendarIDs []string) ([]models.Event, error) {
	if len(calendarIDs) == 0 {
		return nil, nil
	}

	var events []models.Event
	err := s.db.WithContext(ctx).
		Preload("Attendees").
		Preload("Calendar").
		Where("calendar_id IN ?", calendarIDs).
		Where("starts_at < ? AND ends_at > ?", end.UTC(), start.UTC()).
		Order("starts_at ASC, ends_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}

// EventsFor resolves calendar names and returns their events in [start, end).
func (s *Store) EventsFor(ctx context.Context, start, end time.Time, names []string) ([]models.Event, error) {
	calendars, err := s.MatchingCalendars(ctx, names)
	if err != nil {
		return nil, err
	}
	return s.Events(ctx, start, end, calendarIDs(calendars))
}

// Busy returns the busy intervals of the named calendars (all when empty) that
// overlap [start, end), labelled with their calendar name.
func (s *Store) Busy(ctx context.Context, start, end time.Time, include []string) ([]availability.Busy, error) {
	events, err := s.EventsFor(ctx, start, end, include)
	if err != nil {
		return nil, err
	}

	busy := make([]availability.Busy, 0, len(events))
	for _, ev := range events {
		iv, err := interval.New(ev.StartsAt, ev.EndsAt)
		if err != nil {
			s.logger.Warn().Str("event_id", ev.ID).Str("uid", ev.UID).Msg("skipping event that ends before it starts")
			continue
		}
		busy = append(busy, availability.Busy{
			Interval: iv,
			Calendar: ev.Calendar.Name,
			Title:    ev.Title,
			AllDay:   ev.AllDay,
		})
	}

	s.logger.Debug().
		Int("events", len(events)).
		Time("start", start).
		Time("end", end).
		Msg("loaded busy intervals")
	return busy, nil
}

func calendarIDs(calendars []models.Calendar) []string {
	ids := make([]string, len(calendars))
	for i, c := range calendars {
		ids[i] = c.ID
	}
	return ids
}
