/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kljensen/icaltoday/internal/calendar"
	"github.com/kljensen/icaltoday/internal/window"
)

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "Work with calendars",
}

var calendarsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print calendar names as a JSON array",
	Args:  cobra.NoArgs,
	RunE:  runCalendarsList,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Work with events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list START END",
	Short: "Print events overlapping START..END as JSON",
	Long: "Print events overlapping START..END as JSON. START and END accept " +
		"YYYY-MM-DD, YYYY-MM-DD HH:MM or YYYY-MM-DD HH:MM:SS in the configured timezone.",
	Args: cobra.ExactArgs(2),
	RunE: runEventsList,
}

var eventsCalendars []string

func init() {
	rootCmd.AddCommand(calendarsCmd)
	calendarsCmd.AddCommand(calendarsListCmd)

	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)
	eventsListCmd.Flags().StringArrayVarP(&eventsCalendars, "calendar", "c", nil, "Only include events from this calendar (repeatable)")
}

func runCalendarsList(cmd *cobra.Command, args []string) error {
	store, _, cleanup, err := initStore()
	if err != nil {
		return err
	}
	defer cleanup()

	return listCalendars(cmd.Context(), cmd.OutOrStdout(), store)
}

func listCalendars(ctx context.Context, w io.Writer, store *calendar.Store) error {
	calendars, err := store.ListCalendars(ctx)
	if err != nil {
		return fmt.Errorf("list calendars: %w", err)
	}
	names := make([]string, len(calendars))
	for i, c := range calendars {
		names[i] = c.Name
	}
	return printJSON(w, names)
}

func runEventsList(cmd *cobra.Command, args []string) error {
	store, _, cleanup, err := initStore()
	if err != nil {
		return err
	}
	defer cleanup()

	return listEvents(cmd.Context(), cmd.OutOrStdout(), store, cfg.Location, args[0], args[1], eventsCalendars, time.Now())
}

func listEvents(ctx context.Context, w io.Writer, store *calendar.Store, loc *time.Location, startArg, endArg string, names []string, now time.Time) error {
	start, err := window.ParseInstant(startArg, loc)
	if err != nil {
		return fmt.Errorf("invalid start %q: %w", startArg, err)
	}
	end, err := window.ParseInstant(endArg, loc)
	if err != nil {
		return fmt.Errorf("invalid end %q: %w", endArg, err)
	}
	if end.Before(start) {
		return fmt.Errorf("end %s is before start %s", endArg, startArg)
	}

	events, err := store.EventsFor(ctx, start, end, names)
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}
	return printJSON(w, calendar.SimpleEvents(events, now))
}
