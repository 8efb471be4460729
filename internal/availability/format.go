/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import (
	"time"

	"github.com/kljensen/icaltoday/internal/interval"
)

// Output layouts for Slots.
const (
	LayoutRFC3339 = time.RFC3339
	LayoutLocal   = "2006-01-02 15:04"
)

// Slot is the printed form of a free interval.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Slots renders free intervals in loc using layout.
func Slots(free []interval.Interval, layout string, loc *time.Location) []Slot {
	if loc == nil {
		loc = time.Local
	}
	slots := make([]Slot, len(free))
	for i, iv := range free {
		slots[i] = Slot{
			Start: iv.Start.In(loc).Format(layout),
			End:   iv.End.In(loc).Format(layout),
		}
	}
	return slots
}
