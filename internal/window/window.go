/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package window expands a date range and a daily clock range into candidate
// availability windows.
package window

import (
	"errors"
	"fmt"
	"time"

	"github.com/kljensen/icaltoday/internal/interval"
)

// ErrInvalidRange is returned for inverted date ranges and for daily ranges whose
// start is not strictly before their end.
var ErrInvalidRange = errors.New("invalid range")

// Validate checks a date range and daily clock range without generating windows.
func Validate(from, to Date, dailyStart, dailyEnd TimeOfDay) error {
	if from.After(to) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidRange, from, to)
	}
	if !dailyStart.Before(dailyEnd) {
		return fmt.Errorf("%w: start time %s must be before end time %s", ErrInvalidRange, dailyStart, dailyEnd)
	}
	return nil
}

// Generate returns one window per civil day from from to to inclusive, spanning
// dailyStart to dailyEnd in loc. The clock time is applied per day, so a window
// crossing a DST change is an hour shorter or longer than the others.
func Generate(from, to Date, dailyStart, dailyEnd TimeOfDay, loc *time.Location) ([]interval.Interval, error) {
	if err := Validate(from, to, dailyStart, dailyEnd); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	var windows []interval.Interval
	for day := from; !day.After(to); day = day.AddDays(1) {
		w, err := interval.New(day.At(dailyStart, loc), day.At(dailyEnd, loc))
		if err != nil {
			// Only reachable when a DST gap swallows the whole window.
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// Span returns the interval from the first window's start to the last window's end.
func Span(windows []interval.Interval) (interval.Interval, bool) {
	if len(windows) == 0 {
		return interval.Interval{}, false
	}
	return interval.Interval{Start: windows[0].Start, End: windows[len(windows)-1].End}, true
}
