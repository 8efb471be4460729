/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package window

import (
	"errors"
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", s, err)
	}
	return tod
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestGenerateThreeWorkdays(t *testing.T) {
	windows, err := Generate(mustDate(t, "2026-03-02"), mustDate(t, "2026-03-04"),
		mustTime(t, "09:00"), mustTime(t, "17:00"), time.UTC)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("len(windows) = %d, want 3", len(windows))
	}
	for i, w := range windows {
		wantStart := time.Date(2026, 3, 2+i, 9, 0, 0, 0, time.UTC)
		if !w.Start.Equal(wantStart) {
			t.Errorf("windows[%d].Start = %v, want %v", i, w.Start, wantStart)
		}
		if w.Duration() != 8*time.Hour {
			t.Errorf("windows[%d].Duration() = %v, want 8h", i, w.Duration())
		}
	}
}

func TestGenerateSingleDay(t *testing.T) {
	d := mustDate(t, "2026-03-02")
	windows, err := Generate(d, d, mustTime(t, "00:00"), mustTime(t, "23:59"), time.UTC)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("len(windows) = %d, want 1", len(windows))
	}
}

func TestGenerateInvalidRange(t *testing.T) {
	tests := []struct {
		name       string
		from, to   string
		start, end string
	}{
		{"dates inverted", "2026-03-05", "2026-03-04", "09:00", "17:00"},
		{"times inverted", "2026-03-02", "2026-03-04", "17:00", "09:00"},
		{"times equal", "2026-03-02", "2026-03-04", "09:00", "09:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(mustDate(t, tt.from), mustDate(t, tt.to),
				mustTime(t, tt.start), mustTime(t, tt.end), time.UTC)
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("err = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestGenerateAcrossDSTUsesWallClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// US clocks spring forward on 2026-03-08 at 02:00.
	windows, err := Generate(mustDate(t, "2026-03-07"), mustDate(t, "2026-03-09"),
		mustTime(t, "01:00"), mustTime(t, "05:00"), loc)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("len(windows) = %d, want 3", len(windows))
	}
	want := []time.Duration{4 * time.Hour, 3 * time.Hour, 4 * time.Hour}
	for i, w := range windows {
		if w.Duration() != want[i] {
			t.Errorf("windows[%d].Duration() = %v, want %v", i, w.Duration(), want[i])
		}
		if got := w.Start.In(loc).Hour(); got != 1 {
			t.Errorf("windows[%d] starts at hour %d, want 1", i, got)
		}
	}
}

func TestGenerateCrossesMonthBoundary(t *testing.T) {
	windows, err := Generate(mustDate(t, "2026-02-27"), mustDate(t, "2026-03-02"),
		mustTime(t, "09:00"), mustTime(t, "10:00"), time.UTC)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(windows) != 4 {
		t.Fatalf("len(windows) = %d, want 4", len(windows))
	}
	if got := DateOf(windows[3].Start).String(); got != "2026-03-02" {
		t.Fatalf("last window day = %s, want 2026-03-02", got)
	}
}

func TestSpan(t *testing.T) {
	if _, ok := Span(nil); ok {
		t.Fatal("Span(nil) ok = true, want false")
	}
	windows, _ := Generate(mustDate(t, "2026-03-02"), mustDate(t, "2026-03-03"),
		mustTime(t, "09:00"), mustTime(t, "17:00"), time.UTC)
	span, ok := Span(windows)
	if !ok {
		t.Fatal("Span ok = false")
	}
	if want := time.Date(2026, 3, 3, 17, 0, 0, 0, time.UTC); !span.End.Equal(want) {
		t.Fatalf("span.End = %v, want %v", span.End, want)
	}
}
