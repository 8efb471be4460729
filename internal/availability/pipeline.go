/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package availability turns candidate windows and busy calendar time into free time.
package availability

import (
	"github.com/kljensen/icaltoday/internal/interval"
)

// Busy is a busy interval with the labels the calendar store attached to it.
type Busy struct {
	Interval interval.Interval
	Calendar string
	Title    string
	AllDay   bool
}

// Filter reports whether a busy entry should be ignored.
type Filter func(Busy) bool

// ExcludeCalendars ignores busy time from the named calendars.
func ExcludeCalendars(names ...string) Filter {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(b Busy) bool {
		_, ok := set[b.Calendar]
		return ok
	}
}

// ExcludeAllDay ignores all-day events.
func ExcludeAllDay() Filter {
	return func(b Busy) bool { return b.AllDay }
}

// AnyOf excludes an entry when any non-nil filter matches.
func AnyOf(filters ...Filter) Filter {
	var active []Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(b Busy) bool {
		for _, f := range active {
			if f(b) {
				return true
			}
		}
		return false
	}
}

// Compute returns the parts of the candidate windows not covered by busy time.
// Busy entries matched by exclude are dropped first; a nil exclude keeps all.
// Results follow candidate order and carry no labels.
func Compute(candidates []interval.Interval, busy []Busy, exclude Filter) []interval.Interval {
	if len(candidates) == 0 {
		return nil
	}

	blocking := make([]interval.Interval, 0, len(busy))
	for _, b := range busy {
		if exclude != nil && exclude(b) {
			continue
		}
		blocking = append(blocking, b.Interval)
	}
	merged := interval.Merge(blocking)

	free := make([]interval.Interval, 0, len(candidates))
	for _, w := range candidates {
		free = append(free, interval.SubtractMany(w, merged)...)
	}
	return free
}
