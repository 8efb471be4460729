/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kljensen/icaltoday/internal/interval"
)

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	if c.IsAvailable() {
		t.Fatal("nil cache reports available")
	}
	if _, ok := c.GetAvailability(context.Background(), "x"); ok {
		t.Fatal("nil cache returned a hit")
	}
	if err := c.SetAvailability(context.Background(), "x", nil); err != nil {
		t.Fatalf("SetAvailability on nil cache: %v", err)
	}
	if err := c.InvalidateAvailability(context.Background()); err != nil {
		t.Fatalf("InvalidateAvailability on nil cache: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil cache: %v", err)
	}
}

func TestDisabledCacheMisses(t *testing.T) {
	c := Disabled(zerolog.Nop())
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	free := []interval.Interval{{Start: now, End: now.Add(time.Hour)}}

	if err := c.SetAvailability(ctx, "req", free); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	if _, ok := c.GetAvailability(ctx, "req"); ok {
		t.Fatal("disabled cache returned a hit")
	}
}

func TestAvailabilityKey(t *testing.T) {
	a := AvailabilityKey("2026-03-02|2026-03-04|09:00|17:00")
	b := AvailabilityKey("2026-03-02|2026-03-04|09:00|17:00")
	c := AvailabilityKey("2026-03-02|2026-03-04|09:00|18:00")

	if a != b {
		t.Fatalf("same request produced different keys: %s vs %s", a, b)
	}
	if a == c {
		t.Fatal("different requests produced the same key")
	}
	if !strings.HasPrefix(a, KeyAvailability) {
		t.Fatalf("key %q lacks prefix %q", a, KeyAvailability)
	}
}
