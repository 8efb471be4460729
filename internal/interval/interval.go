/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package interval implements the time-interval algebra used for availability:
// pairwise comparison, subtraction and merging of half-open [Start, End) spans.
package interval

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedInterval is returned when an interval would end before it starts.
	ErrMalformedInterval = errors.New("interval: start is after end")

	// ErrUnreachableComparison signals a defect in Compare. It is raised as a panic.
	ErrUnreachableComparison = errors.New("interval: comparison matched no rule")
)

// Interval is a half-open span of time [Start, End).
// An interval with Start equal to End is empty.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New validates and builds an interval.
func New(start, end time.Time) (Interval, error) {
	if start.After(end) {
		return Interval{}, fmt.Errorf("%w: %s > %s", ErrMalformedInterval,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// IsEmpty reports whether the interval covers no time.
func (i Interval) IsEmpty() bool {
	return i.Start.Equal(i.End)
}

// Equal reports whether both endpoints denote the same instants.
func (i Interval) Equal(other Interval) bool {
	return i.Start.Equal(other.Start) && i.End.Equal(other.End)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// TotalDuration sums the durations of the given intervals.
func TotalDuration(intervals []Interval) time.Duration {
	var total time.Duration
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
