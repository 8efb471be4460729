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

	"github.com/kljensen/icaltoday/internal/availability"
	"github.com/kljensen/icaltoday/internal/ical"
)

var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Work with free time",
}

var availabilityListCmd = &cobra.Command{
	Use:   "list START_DATE END_DATE START_TIME END_TIME",
	Short: "Print free intervals inside a daily clock range",
	Long: "Print the free intervals between START_TIME and END_TIME (HH:MM) on every day " +
		"from START_DATE to END_DATE (YYYY-MM-DD) inclusive, after removing busy events.",
	Args: cobra.ExactArgs(4),
	RunE: runAvailabilityList,
}

// availabilityOptions are the flag values of availability list.
type availabilityOptions struct {
	Exclude       []string
	Include       []string
	ExcludeAllDay bool
	Format        string
	Local         bool
}

var availabilityOpts availabilityOptions

func init() {
	rootCmd.AddCommand(availabilityCmd)
	availabilityCmd.AddCommand(availabilityListCmd)

	flags := availabilityListCmd.Flags()
	flags.StringArrayVarP(&availabilityOpts.Exclude, "exclude", "e", nil, "Calendar whose events never block (repeatable)")
	flags.StringArrayVarP(&availabilityOpts.Include, "include", "i", nil, "Only consider events from this calendar (repeatable)")
	flags.BoolVar(&availabilityOpts.ExcludeAllDay, "exclude-all-day", false, "Ignore all-day events")
	flags.StringVar(&availabilityOpts.Format, "format", "json", "Output format: json or ical")
	flags.BoolVar(&availabilityOpts.Local, "local", false, "Print local civil times instead of RFC 3339 instants")
}

func runAvailabilityList(cmd *cobra.Command, args []string) error {
	opts := availabilityOpts
	if opts.Format != "json" && opts.Format != "ical" {
		return fmt.Errorf("invalid format %q: want json or ical", opts.Format)
	}

	req, err := availability.ParseRequest(args[0], args[1], args[2], args[3])
	if err != nil {
		return err
	}

	store, _, cleanup, err := initStore()
	if err != nil {
		return err
	}
	defer cleanup()

	req.Include = opts.Include
	req.Exclude = opts.Exclude
	if len(req.Exclude) == 0 {
		req.Exclude = cfg.ExcludeCalendars
	}
	req.ExcludeAllDay = opts.ExcludeAllDay
	if !cmd.Flags().Changed("exclude-all-day") {
		req.ExcludeAllDay = cfg.ExcludeAllDay
	}

	var results availability.ResultCache
	if c := initCache(); c != nil {
		defer c.Close()
		results = c
	}
	svc := availability.NewService(store, results, cfg.Location, logger)

	return listAvailability(cmd.Context(), cmd.OutOrStdout(), svc, req, opts, time.Now())
}

func listAvailability(ctx context.Context, w io.Writer, svc *availability.Service, req availability.Request, opts availabilityOptions, now time.Time) error {
	free, err := svc.List(ctx, req)
	if err != nil {
		return fmt.Errorf("compute availability: %w", err)
	}

	if opts.Format == "ical" {
		_, err := w.Write(ical.ExportFree("Availability", free, now))
		return err
	}

	layout := availability.LayoutRFC3339
	if opts.Local {
		layout = availability.LayoutLocal
	}
	return printJSON(w, availability.Slots(free, layout, svc.Location()))
}
