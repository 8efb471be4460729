/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kljensen/icaltoday/internal/window"
)

// MaxSpanDays bounds the number of civil days one request may cover.
const MaxSpanDays = 366

// Request describes one availability query.
type Request struct {
	From, To             window.Date
	DailyStart, DailyEnd window.TimeOfDay
	Include              []string
	Exclude              []string
	ExcludeAllDay        bool
}

// Filter builds the exclusion filter for the request.
func (r Request) Filter() Filter {
	var allDay Filter
	if r.ExcludeAllDay {
		allDay = ExcludeAllDay()
	}
	return AnyOf(ExcludeCalendars(r.Exclude...), allDay)
}

// Key is a canonical description of the request in loc, independent of the
// order calendar names were given in.
func (r Request) Key(loc *time.Location) string {
	include := slices.Clone(r.Include)
	exclude := slices.Clone(r.Exclude)
	slices.Sort(include)
	slices.Sort(exclude)
	return fmt.Sprintf("%s|%s|%s|%s|%s|i=%s|e=%s|allday=%t",
		loc, r.From, r.To, r.DailyStart, r.DailyEnd,
		strings.Join(include, ","), strings.Join(exclude, ","), r.ExcludeAllDay)
}

// Validate checks the date and clock ranges and the span limit.
func (r Request) Validate() error {
	if err := window.Validate(r.From, r.To, r.DailyStart, r.DailyEnd); err != nil {
		return err
	}
	if r.To.After(r.From.AddDays(MaxSpanDays - 1)) {
		return fmt.Errorf("%w: %s to %s covers more than %d days", window.ErrInvalidRange, r.From, r.To, MaxSpanDays)
	}
	return nil
}

// ParseRequest builds a request from its textual arguments: two YYYY-MM-DD
// dates and two HH:MM clock times. The ranges are validated here so callers can
// report bad input before touching the store.
func ParseRequest(startDate, endDate, startTime, endTime string) (Request, error) {
	from, err := window.ParseDate(startDate)
	if err != nil {
		return Request{}, err
	}
	to, err := window.ParseDate(endDate)
	if err != nil {
		return Request{}, err
	}
	dailyStart, err := window.ParseTimeOfDay(startTime)
	if err != nil {
		return Request{}, err
	}
	dailyEnd, err := window.ParseTimeOfDay(endTime)
	if err != nil {
		return Request{}, err
	}
	req := Request{From: from, To: to, DailyStart: dailyStart, DailyEnd: dailyEnd}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}
