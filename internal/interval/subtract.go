/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package interval

// SubtractOne removes other from self and returns what is left, in order.
// The result has zero, one or two fragments and never contains an empty interval.
// An empty other removes nothing.
func SubtractOne(self, other Interval) []Interval {
	if self.IsEmpty() {
		return nil
	}
	if other.IsEmpty() {
		return []Interval{self}
	}

	switch Compare(self, other) {
	case Same, Within:
		return nil
	case Before, After:
		return []Interval{self}
	case OverlapsAtStart:
		return nonEmpty(Interval{Start: self.Start, End: other.Start})
	case OverlapsAtEnd:
		return nonEmpty(Interval{Start: other.End, End: self.End})
	case Encompasses:
		return nonEmpty(
			Interval{Start: self.Start, End: other.Start},
			Interval{Start: other.End, End: self.End},
		)
	}
	return nil
}

// SubtractMany removes every interval in others from self, one after another.
func SubtractMany(self Interval, others []Interval) []Interval {
	remaining := nonEmpty(self)
	for _, other := range others {
		if len(remaining) == 0 {
			break
		}
		next := make([]Interval, 0, len(remaining)+1)
		for _, fragment := range remaining {
			next = append(next, SubtractOne(fragment, other)...)
		}
		remaining = next
	}
	return remaining
}

func nonEmpty(candidates ...Interval) []Interval {
	var out []Interval
	for _, c := range candidates {
		if c.Start.Before(c.End) {
			out = append(out, c)
		}
	}
	return out
}
