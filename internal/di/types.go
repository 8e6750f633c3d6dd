// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/database"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/customers"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/distribution"
	distributionhandlers "github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/distribution/handlers"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/ladders"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/ratios"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/results"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Database
	AllocationDB *database.DB

	// Repositories
	CustomerRepo *customers.Repository
	RatioRepo    *ratios.Repository
	LadderRepo   *ladders.Repository
	ResultRepo   *results.Repository

	// Services
	Engine              *allocation.Engine
	DistributionService *distribution.Service
	AllocationHandler   *distributionhandlers.Handler

	// Background jobs
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds references to all registered jobs
type JobInstances struct {
	ResultCleanup  *scheduler.ResultCleanupJob
	WALCheckpoint  *scheduler.WALCheckpointJob
	IntegrityCheck *scheduler.IntegrityCheckJob
}

// Close releases the database connection
func (c *Container) Close() error {
	if c == nil || c.AllocationDB == nil {
		return nil
	}
	return c.AllocationDB.Close()
}
