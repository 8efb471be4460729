/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ical

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kljensen/icaltoday/internal/models"
	"github.com/kljensen/icaltoday/internal/telemetry"
)

// uidNamespace seeds deterministic UIDs for events that lack one.
var uidNamespace = uuid.MustParse("6f0e4c8a-3b8e-4f7c-9d55-1e2f0b6a7c31")

// Importer loads iCalendar data into the calendar store.
type Importer struct {
	db     *gorm.DB
	logger zerolog.Logger
	loc    *time.Location

	// Prune deletes events of the calendar that are absent from the import.
	Prune bool
}

// NewImporter creates an importer. Floating times are read in loc.
func NewImporter(db *gorm.DB, loc *time.Location, logger zerolog.Logger) *Importer {
	if loc == nil {
		loc = time.Local
	}
	return &Importer{
		db:     db,
		loc:    loc,
		logger: logger.With().Str("component", "ical_import").Logger(),
	}
}

// ImportResult summarises an import.
type ImportResult struct {
	CalendarID string
	Created    int
	Updated    int
	Skipped    int
	Pruned     int
	Errors     []string
}

// Import parses r and upserts its events into the named calendar, creating the
// calendar if needed. Events are matched by UID within the calendar.
func (im *Importer) Import(ctx context.Context, calendarName, source string, r io.Reader) (*ImportResult, error) {
	if calendarName == "" {
		return nil, errors.New("calendar name is required")
	}

	events, err := Parse(r, im.loc)
	if err != nil {
		return nil, fmt.Errorf("parse iCal data: %w", err)
	}

	result := &ImportResult{}
	err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cal, err := findOrCreateCalendar(tx, calendarName, source)
		if err != nil {
			return err
		}
		result.CalendarID = cal.ID

		seen := make([]string, 0, len(events))
		for i, ev := range events {
			if ev.Err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("event %q: %v", ev.UID, ev.Err))
				continue
			}
			// Cancelled or transparent events drop any earlier busy copy.
			if !ev.Blocks() {
				removed := false
				if ev.UID != "" {
					if removed, err = removeEvent(tx, cal.ID, ev.UID); err != nil {
						return err
					}
				}
				if removed {
					result.Pruned++
				} else {
					result.Skipped++
				}
				continue
			}
			if ev.Summary == "" || ev.Start.IsZero() || ev.End.IsZero() || ev.End.Before(ev.Start) {
				result.Skipped++
				continue
			}
			if ev.UID == "" {
				ev.UID = uuid.NewSHA1(uidNamespace, []byte(ev.Summary+"|"+formatTime(ev.Start)+"|"+formatTime(ev.End))).String()
			}

			savepoint := fmt.Sprintf("ical_event_%d", i)
			if err := tx.SavePoint(savepoint).Error; err != nil {
				return fmt.Errorf("create savepoint: %w", err)
			}
			created, err := upsertEvent(tx, cal.ID, ev)
			if err != nil {
				if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
					return fmt.Errorf("roll back event %s: %w", ev.UID, rbErr)
				}
				result.Errors = append(result.Errors, fmt.Sprintf("event %s: %v", ev.UID, err))
				continue
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
			seen = append(seen, ev.UID)
		}

		if im.Prune {
			pruned, err := pruneEvents(tx, cal.ID, seen)
			if err != nil {
				return err
			}
			result.Pruned += pruned
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.EventsImportedTotal.WithLabelValues("created").Add(float64(result.Created))
	telemetry.EventsImportedTotal.WithLabelValues("updated").Add(float64(result.Updated))
	telemetry.EventsImportedTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
	telemetry.EventsImportedTotal.WithLabelValues("pruned").Add(float64(result.Pruned))

	im.logger.Info().
		Str("calendar", calendarName).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("pruned", result.Pruned).
		Int("errors", len(result.Errors)).
		Msg("iCal import completed")

	return result, nil
}

func findOrCreateCalendar(tx *gorm.DB, name, source string) (models.Calendar, error) {
	var cal models.Calendar
	err := tx.Where("name = ?", name).First(&cal).Error
	if err == nil {
		if source != "" && cal.Source != source {
			if err := tx.Model(&cal).Update("source", source).Error; err != nil {
				return cal, fmt.Errorf("update calendar source: %w", err)
			}
		}
		return cal, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return cal, fmt.Errorf("find calendar: %w", err)
	}

	cal = models.Calendar{ID: uuid.NewString(), Name: name, Source: source}
	if err := tx.Create(&cal).Error; err != nil {
		return cal, fmt.Errorf("create calendar: %w", err)
	}
	return cal, nil
}

func upsertEvent(tx *gorm.DB, calendarID string, ev Event) (bool, error) {
	var existing models.Event
	err := tx.Where("calendar_id = ? AND uid = ?", calendarID, ev.UID).First(&existing).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, err
	}

	id := existing.ID
	if created {
		id = uuid.NewString()
	}
	if created {
		row := models.Event{
			ID:         id,
			CalendarID: calendarID,
			UID:        ev.UID,
			Title:      ev.Summary,
			Location:   ev.Location,
			StartsAt:   ev.Start.UTC(),
			EndsAt:     ev.End.UTC(),
			AllDay:     ev.AllDay,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return false, err
		}
	} else {
		// Map form so false and empty values are written too.
		if err := tx.Model(&existing).Updates(map[string]any{
			"title":     ev.Summary,
			"location":  ev.Location,
			"starts_at": ev.Start.UTC(),
			"ends_at":   ev.End.UTC(),
			"all_day":   ev.AllDay,
		}).Error; err != nil {
			return false, err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.Attendee{}).Error; err != nil {
			return false, err
		}
	}

	for _, a := range ev.Attendees {
		att := models.Attendee{ID: uuid.NewString(), EventID: id, Name: a.Name, Email: a.Email}
		if err := tx.Create(&att).Error; err != nil {
			return false, err
		}
	}
	return created, nil
}

// removeEvent deletes the event with uid and its attendees.
func removeEvent(tx *gorm.DB, calendarID, uid string) (bool, error) {
	var ids []string
	if err := tx.Model(&models.Event{}).Where("calendar_id = ? AND uid = ?", calendarID, uid).Pluck("id", &ids).Error; err != nil {
		return false, fmt.Errorf("find event %s: %w", uid, err)
	}
	if len(ids) == 0 {
		return false, nil
	}
	if err := tx.Where("event_id IN ?", ids).Delete(&models.Attendee{}).Error; err != nil {
		return false, fmt.Errorf("remove attendees of %s: %w", uid, err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Event{}).Error; err != nil {
		return false, fmt.Errorf("remove event %s: %w", uid, err)
	}
	return true, nil
}

func pruneEvents(tx *gorm.DB, calendarID string, keep []string) (int, error) {
	var stale []string
	q := tx.Model(&models.Event{}).Where("calendar_id = ?", calendarID)
	if len(keep) > 0 {
		q = q.Where("uid NOT IN ?", keep)
	}
	if err := q.Pluck("id", &stale).Error; err != nil {
		return 0, fmt.Errorf("find stale events: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := tx.Where("event_id IN ?", stale).Delete(&models.Attendee{}).Error; err != nil {
		return 0, fmt.Errorf("prune attendees: %w", err)
	}
	if err := tx.Where("id IN ?", stale).Delete(&models.Event{}).Error; err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return len(stale), nil
}
