package di

import (
	"fmt"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/config"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/customers"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/ladders"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/ratios"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/results"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories on the container's database
func InitializeRepositories(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.AllocationDB == nil {
		return fmt.Errorf("database not initialized")
	}

	fallback, err := cfg.DefaultLadder()
	if err != nil {
		return fmt.Errorf("invalid default ladder: %w", err)
	}

	conn := container.AllocationDB.Conn()
	container.CustomerRepo = customers.NewRepository(conn, log)
	container.RatioRepo = ratios.NewRepository(conn, log)
	container.LadderRepo = ladders.NewRepository(conn, fallback, log)
	container.ResultRepo = results.NewRepository(conn, log)

	log.Info().Msg("Repositories initialized")
	return nil
}
