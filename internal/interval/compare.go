/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package interval

import "fmt"

// Comparison describes how interval a relates to interval b.
// It is not symmetric: Before and After are inverses, Same is its own inverse.
type Comparison int

const (
	Same Comparison = iota
	Before
	After
	// OverlapsAtStart: a begins at or before b and ends strictly inside it.
	OverlapsAtStart
	// OverlapsAtEnd: a begins strictly inside b and ends at or after it.
	OverlapsAtEnd
	Within
	Encompasses
)

var comparisonNames = [...]string{
	Same:            "same",
	Before:          "before",
	After:           "after",
	OverlapsAtStart: "overlaps_at_start",
	OverlapsAtEnd:   "overlaps_at_end",
	Within:          "within",
	Encompasses:     "encompasses",
}

func (c Comparison) String() string {
	if c < 0 || int(c) >= len(comparisonNames) {
		return fmt.Sprintf("Comparison(%d)", int(c))
	}
	return comparisonNames[c]
}

// Compare classifies a against b. Rules are applied in order and the first match
// wins. Touching intervals (a.End == b.Start) are Before, never overlapping.
func Compare(a, b Interval) Comparison {
	switch {
	case a.Start.Equal(b.Start) && a.End.Equal(b.End):
		return Same
	case !a.End.After(b.Start):
		return Before
	case !a.Start.Before(b.End):
		return After
	case !a.Start.After(b.Start) && a.End.Before(b.End):
		return OverlapsAtStart
	case a.Start.After(b.Start) && !a.End.Before(b.End):
		return OverlapsAtEnd
	case !a.Start.After(b.Start) && !a.End.Before(b.End):
		return Encompasses
	case !a.Start.Before(b.Start) && !a.End.After(b.End):
		return Within
	}
	panic(fmt.Errorf("%w: a=%s b=%s", ErrUnreachableComparison, a, b))
}
