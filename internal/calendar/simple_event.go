/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package calendar

import (
	"encoding/base64"
	"time"

	"github.com/kljensen/icaltoday/internal/models"
	"github.com/kljensen/icaltoday/internal/window"
)

// SimpleEvent is the JSON shape printed by "events list". Fields are declared
// in key order so the encoded object has sorted keys.
type SimpleEvent struct {
	AttendeeEmails []string `json:"attendeeEmails"`
	Date           string   `json:"date"`
	IsToday        bool     `json:"isToday"`
	Name           string   `json:"name"`
	UID            string   `json:"uid"`
	UIDAsBase64    string   `json:"uidAsBase64"`
}

// NewSimpleEvent projects ev. Today is judged by the civil date of now, in now's
// location.
func NewSimpleEvent(ev models.Event, now time.Time) SimpleEvent {
	return SimpleEvent{
		AttendeeEmails: ev.AttendeeEmails(),
		Date:           ev.StartsAt.UTC().Format(time.RFC3339),
		IsToday:        window.DateOf(ev.StartsAt.In(now.Location())) == window.DateOf(now),
		Name:           ev.Title,
		UID:            ev.UID,
		UIDAsBase64:    base64.StdEncoding.EncodeToString([]byte(ev.UID)),
	}
}

// SimpleEvents projects events in order.
func SimpleEvents(events []models.Event, now time.Time) []SimpleEvent {
	out := make([]SimpleEvent, len(events))
	for i, ev := range events {
		out[i] = NewSimpleEvent(ev, now)
	}
	return out
}
