/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kljensen/icaltoday/internal/events"
	"github.com/kljensen/icaltoday/internal/ical"
	"github.com/kljensen/icaltoday/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import FILE|s3://BUCKET/KEY",
	Short: "Load an iCalendar (.ics) file into the store",
	Long: "Load the events of an iCalendar file or S3 object into the named calendar. Events are " +
		"matched by UID, so importing the same file again updates rather than duplicates.",
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importCalendar string
	importPrune    bool
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importCalendar, "calendar", "c", "", "Calendar to import into (required)")
	importCmd.Flags().BoolVar(&importPrune, "prune", false, "Delete events of the calendar that are missing from the file")
	_ = importCmd.MarkFlagRequired("calendar")
}

func runImport(cmd *cobra.Command, args []string) error {
	_, database, cleanup, err := initStore()
	if err != nil {
		return err
	}
	defer cleanup()

	importer := ical.NewImporter(database, cfg.Location, logger)
	importer.Prune = importPrune

	opener, err := newOpener(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	result, err := importSource(cmd.Context(), importer, opener, importCalendar, args[0])
	if err != nil {
		return err
	}

	if c := initCache(); c != nil {
		if err := c.InvalidateAvailability(cmd.Context()); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate availability cache")
		}
		_ = c.Close()
	}
	notify(events.EventCalendarImported, events.Payload{
		"calendar":    importCalendar,
		"calendar_id": result.CalendarID,
		"created":     result.Created,
		"updated":     result.Updated,
		"pruned":      result.Pruned,
	})

	return printImportResult(cmd.OutOrStdout(), importCalendar, result)
}

// newOpener returns a source opener; object storage is only set up for s3:// locations.
func newOpener(ctx context.Context, location string) (storage.Opener, error) {
	router := storage.Router{Files: storage.NewFilesystemStorage(logger)}
	if storage.IsS3URL(location) {
		objects, err := storage.NewS3Storage(ctx, storage.S3Config{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize object storage: %w", err)
		}
		router.Objects = objects
	}
	return router, nil
}

func importSource(ctx context.Context, importer *ical.Importer, opener storage.Opener, calendarName, location string) (*ical.ImportResult, error) {
	rc, source, err := opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	result, err := importer.Import(ctx, calendarName, source, rc)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", location, err)
	}
	return result, nil
}

func printImportResult(w io.Writer, calendarName string, result *ical.ImportResult) error {
	fmt.Fprintf(w, "Imported into %q:\n", calendarName)
	fmt.Fprintf(w, "  Created: %d\n", result.Created)
	fmt.Fprintf(w, "  Updated: %d\n", result.Updated)
	fmt.Fprintf(w, "  Skipped: %d\n", result.Skipped)
	if result.Pruned > 0 {
		fmt.Fprintf(w, "  Pruned:  %d\n", result.Pruned)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "  warning: %s\n", msg)
	}
	return nil
}
