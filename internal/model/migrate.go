package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Subscription{}); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	// Containment index so admin tooling can query the embedded ledgers by code.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_subscriptions_invite_codes " +
			"ON subscriptions USING gin (invite_codes jsonb_path_ops)",
	).Error
}
