/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kljensen/icaltoday/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.Calendar{},
		&models.Event{},
		&models.Attendee{},
	); err != nil {
		return err
	}

	if err := applyPostgresEventRangeGuard(database); err != nil {
		return err
	}

	return nil
}

// applyPostgresEventRangeGuard rejects events that end before they start.
// Zero-length events stay legal; they block nothing.
func applyPostgresEventRangeGuard(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}

	stmts := []string{
		`ALTER TABLE events DROP CONSTRAINT IF EXISTS chk_events_range`,
		`ALTER TABLE events ADD CONSTRAINT chk_events_range CHECK (ends_at >= starts_at)`,
	}
	for _, stmt := range stmts {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply postgres event range guard: %w", err)
		}
	}

	return nil
}
