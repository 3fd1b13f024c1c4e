package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds constraints and indexes the capacity and sweep
// paths depend on.
func MigrateConstraints(db *gorm.DB) error {
	// One session per variant per day; the lazy session creation in the
	// pipeline races on this and relies on the conflict to resolve it.
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_session_per_variant_date
		ON sessions (variant_id, date);
	`).Error
	if err != nil {
		return err
	}

	// Availability sums scan active holds per session.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_session_expiry
		ON holds (session_id, expires_at);
	`).Error
	if err != nil {
		return err
	}

	// Cleanup sweeper predicates.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_status_notified
		ON bookings (status, is_supplier_notified, updated_at);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
