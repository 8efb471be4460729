/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"strings"
	"time"
)

// Calendar is a named collection of events, usually loaded from one .ics source.
type Calendar struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	Name      string `gorm:"size:255;uniqueIndex;not null"`
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event is a single busy block on a calendar. UID is the identifier from the
// source feed and is unique per calendar.
type Event struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	CalendarID string    `gorm:"type:char(36);uniqueIndex:idx_events_calendar_uid;not null"`
	Calendar   Calendar  `gorm:"foreignKey:CalendarID;constraint:OnDelete:CASCADE"`
	UID        string    `gorm:"size:255;uniqueIndex:idx_events_calendar_uid;not null"`
	Title      string    `gorm:"type:text"`
	Location   string    `gorm:"type:text"`
	StartsAt   time.Time `gorm:"index;not null"`
	EndsAt     time.Time `gorm:"index;not null"`
	AllDay     bool
	Attendees  []Attendee `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Attendee is a participant listed on an event.
type Attendee struct {
	ID      string `gorm:"type:char(36);primaryKey"`
	EventID string `gorm:"type:char(36);index;not null"`
	Name    string
	Email   string `gorm:"size:255;index"`
}

// AttendeeEmails returns the non-empty attendee addresses in listing order.
func (e Event) AttendeeEmails() []string {
	emails := make([]string, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		if email := strings.TrimSpace(a.Email); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
