package database

import (
	"github.com/rs/zerolog/log"
	"github.com/warden-io/warden-panel/models"
	"gorm.io/gorm"
)

// RunMigrations keeps the operation tables up to date.
func RunMigrations(db *gorm.DB) error {
	log.Debug().Msg("running database migrations")

	if err := db.AutoMigrate(&models.OperationRecord{}); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return err
	}
	return nil
}
