package di

import (
	"fmt"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/config"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/distribution"
	distributionhandlers "github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/distribution/handlers"
	"github.com/rs/zerolog"
)

// InitializeServices creates the engine, the distribution service and its handler
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container.CustomerRepo == nil || container.ResultRepo == nil {
		return fmt.Errorf("repositories not initialized")
	}

	container.Engine = allocation.NewEngine(cfg.EngineOptions())
	container.DistributionService = distribution.NewService(
		container.Engine,
		container.CustomerRepo,
		container.RatioRepo,
		container.LadderRepo,
		container.ResultRepo,
		distribution.Config{
			BoostPhrase:  cfg.Allocation.BoostPhrase,
			BatchWorkers: cfg.Allocation.BatchWorkers,
		},
		log,
	)
	container.AllocationHandler = distributionhandlers.NewHandler(container.DistributionService, log)

	log.Info().
		Int32("quota_scale", container.Engine.Scale()).
		Int("batch_workers", cfg.Allocation.BatchWorkers).
		Msg("Services initialized")
	return nil
}
