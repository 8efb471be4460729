/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kljensen/icaltoday/internal/eventbus"
	"github.com/kljensen/icaltoday/internal/events"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the availability cache",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop cached availability here and on every listening server",
	Args:  cobra.NoArgs,
	RunE:  runCacheFlush,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheFlushCmd)
}

func runCacheFlush(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if c := initCache(); c != nil {
		defer c.Close()
		if err := c.FlushAll(cmd.Context()); err != nil {
			return fmt.Errorf("flush cache: %w", err)
		}
	}
	notify(events.EventCacheFlush, events.Payload{"reason": "cli"})

	_, err := fmt.Fprintln(cmd.OutOrStdout(), "cache flushed")
	return err
}

// notify publishes one event on the configured bus so running servers react
// to changes made from the command line.
func notify(eventType events.EventType, payload events.Payload) {
	bus, err := eventbus.New(eventbus.ConfigFrom(cfg), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("event bus unavailable")
		return
	}
	bus.Publish(eventType, payload)
	if err := bus.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close event bus")
	}
}
