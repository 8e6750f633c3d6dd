package di

import (
	"fmt"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/config"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens allocation.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "allocation",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize allocation database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate allocation database: %w", err)
	}

	log.Info().Str("path", db.Path()).Msg("Allocation database ready")

	return &Container{AllocationDB: db}, nil
}
