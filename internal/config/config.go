// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir    string // Base directory for the database (always absolute)
	LogLevel   string
	Port       int
	DevMode    bool
	Allocation AllocationConfig
	Jobs       JobsConfig
}

// AllocationConfig holds defaults handed to the allocation engine and service
type AllocationConfig struct {
	QuotaScale   int    // Decimal places kept on fine-tuned quotas
	LadderHigh   string // Default highest usable grade, e.g. "D30"
	LadderLow    string // Default lowest usable grade, e.g. "D1"
	BoostPhrase  string // Remark phrase that selects boosted customer counts
	BatchWorkers int    // Parallel entity allocations per batch request
}

// JobsConfig holds scheduled housekeeping settings
type JobsConfig struct {
	ResultRetentionDays   int
	CleanupSchedule       string
	WALCheckpointSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Allocation: AllocationConfig{
			QuotaScale:   getEnvAsInt("QUOTA_SCALE", int(allocation.DefaultQuotaScale)),
			LadderHigh:   getEnv("LADDER_HIGH", "D30"),
			LadderLow:    getEnv("LADDER_LOW", "D1"),
			BoostPhrase:  getEnv("BOOST_PHRASE", allocation.DefaultBoostPhrase),
			BatchWorkers: getEnvAsInt("BATCH_WORKERS", 4),
		},
		Jobs: JobsConfig{
			ResultRetentionDays:   getEnvAsInt("RESULT_RETENTION_DAYS", 90),
			CleanupSchedule:       getEnv("CLEANUP_SCHEDULE", "0 30 3 * * *"),
			WALCheckpointSchedule: getEnv("WAL_CHECKPOINT_SCHEDULE", "0 */15 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DatabasePath is the location of the allocation database inside DataDir
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "allocation.db")
}

// DefaultLadder resolves the configured default grade range
func (c *Config) DefaultLadder() (allocation.GradeLadder, error) {
	return allocation.LadderFromGrades(c.Allocation.LadderHigh, c.Allocation.LadderLow)
}

// EngineOptions converts the allocation settings into engine options
func (c *Config) EngineOptions() allocation.Options {
	return allocation.Options{Scale: int32(c.Allocation.QuotaScale)}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Allocation.QuotaScale < 0 || c.Allocation.QuotaScale > 16 {
		return fmt.Errorf("QUOTA_SCALE must be between 0 and 16, got %d", c.Allocation.QuotaScale)
	}
	if c.Allocation.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1, got %d", c.Allocation.BatchWorkers)
	}
	if _, err := c.DefaultLadder(); err != nil {
		return fmt.Errorf("invalid default ladder: %w", err)
	}
	if c.Jobs.ResultRetentionDays < 1 {
		return fmt.Errorf("RESULT_RETENTION_DAYS must be at least 1, got %d", c.Jobs.ResultRetentionDays)
	}

	// Schedules use the seconds field, same as the scheduler
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Jobs.CleanupSchedule); err != nil {
		return fmt.Errorf("invalid CLEANUP_SCHEDULE: %w", err)
	}
	if _, err := parser.Parse(c.Jobs.WALCheckpointSchedule); err != nil {
		return fmt.Errorf("invalid WAL_CHECKPOINT_SCHEDULE: %w", err)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
