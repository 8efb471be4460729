/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kljensen/icaltoday/internal/interval"
	"github.com/kljensen/icaltoday/internal/telemetry"
	"github.com/kljensen/icaltoday/internal/window"
)

// BusySource loads busy time overlapping [start, end) from the named calendars,
// or from every calendar when include is empty.
type BusySource interface {
	Busy(ctx context.Context, start, end time.Time, include []string) ([]Busy, error)
}

// ResultCache stores computed answers keyed by a canonical request string.
type ResultCache interface {
	GetAvailability(ctx context.Context, key string) ([]interval.Interval, bool)
	SetAvailability(ctx context.Context, key string, free []interval.Interval) error
}

// Service answers availability requests against a calendar store.
type Service struct {
	source BusySource
	cache  ResultCache
	loc    *time.Location
	logger zerolog.Logger
}

// NewService creates an availability service. cache may be nil.
func NewService(source BusySource, cache ResultCache, loc *time.Location, logger zerolog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		source: source,
		cache:  cache,
		loc:    loc,
		logger: logger.With().Str("component", "availability").Logger(),
	}
}

// Location is the zone civil dates and clock times are interpreted in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// List returns the free intervals for req, ordered by start.
func (s *Service) List(ctx context.Context, req Request) ([]interval.Interval, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "availability.List")
	defer span.End()

	telemetry.AddSpanAttributes(span, map[string]any{
		"availability.from":        req.From.String(),
		"availability.to":          req.To.String(),
		"availability.daily_start": req.DailyStart.String(),
		"availability.daily_end":   req.DailyEnd.String(),
		"availability.include":     req.Include,
		"availability.exclude":     req.Exclude,
		"availability.all_day":     req.ExcludeAllDay,
	})

	if err := req.Validate(); err != nil {
		telemetry.RecordError(span, err)
		telemetry.AvailabilityRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	candidates, err := window.Generate(req.From, req.To, req.DailyStart, req.DailyEnd, s.loc)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.AvailabilityRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	key := req.Key(s.loc)
	if s.cache != nil {
		if free, ok := s.cache.GetAvailability(ctx, key); ok {
			telemetry.AvailabilityRequestsTotal.WithLabelValues("cached").Inc()
			telemetry.AddSpanAttributes(span, map[string]any{"availability.cached": true})
			return free, nil
		}
	}

	bounds, ok := window.Span(candidates)
	if !ok {
		telemetry.AvailabilityRequestsTotal.WithLabelValues("computed").Inc()
		return nil, nil
	}

	busy, err := s.source.Busy(ctx, bounds.Start, bounds.End, req.Include)
	if err != nil {
		err = fmt.Errorf("load busy time: %w", err)
		telemetry.RecordError(span, err)
		telemetry.AvailabilityRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	free := Compute(candidates, busy, req.Filter())

	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, key, free); err != nil {
			s.logger.Debug().Err(err).Msg("failed to cache availability")
		}
	}

	elapsed := time.Since(start)
	telemetry.AvailabilityComputeDuration.Observe(elapsed.Seconds())
	telemetry.AvailabilityRequestsTotal.WithLabelValues("computed").Inc()
	telemetry.AvailabilityFreeIntervals.Observe(float64(len(free)))
	telemetry.AddSpanAttributes(span, map[string]any{
		"availability.windows": len(candidates),
		"availability.busy":    len(busy),
		"availability.free":    len(free),
	})

	s.logger.Debug().
		Int("windows", len(candidates)).
		Int("busy", len(busy)).
		Int("free", len(free)).
		Dur("elapsed", elapsed).
		Msg("availability computed")

	return free, nil
}
