package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/database"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// JobRunner lists and triggers scheduled jobs (implemented by scheduler.Scheduler)
type JobRunner interface {
	Jobs() []scheduler.JobStatus
	RunByName(name string) error
}

// SystemHandlers handles system monitoring and job endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	db          *database.DB
	jobs        JobRunner
	startupTime time.Time
	systemStats func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, db *database.DB, jobs JobRunner) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		db:          db,
		jobs:        jobs,
		startupTime: time.Now(),
	}
	h.systemStats = h.getSystemStats
	return h
}

// DatabaseStatus is the database part of the system status
type DatabaseStatus struct {
	Name          string `json:"name"`
	Healthy       bool   `json:"healthy"`
	Error         string `json:"error,omitempty"`
	SizeBytes     int64  `json:"size_bytes"`
	WALSizeBytes  int64  `json:"wal_size_bytes"`
	PageCount     int64  `json:"page_count"`
	FreelistCount int64  `json:"freelist_count"`
}

// SystemStatusResponse is returned by GET /api/system/status
type SystemStatusResponse struct {
	Status      string                `json:"status"`
	UptimeHours float64               `json:"uptime_hours"`
	CPUPercent  float64               `json:"cpu_percent"`
	RAMPercent  float64               `json:"ram_percent"`
	Database    *DatabaseStatus       `json:"database,omitempty"`
	Jobs        []scheduler.JobStatus `json:"jobs,omitempty"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.systemStats()

	response := SystemStatusResponse{
		Status:      "healthy",
		UptimeHours: time.Since(h.startupTime).Hours(),
		CPUPercent:  cpuPercent,
		RAMPercent:  ramPercent,
	}

	if h.db != nil {
		response.Database = h.databaseStatus(r.Context())
		if !response.Database.Healthy {
			response.Status = "degraded"
		}
	}
	if h.jobs != nil {
		response.Jobs = h.jobs.Jobs()
		for _, job := range response.Jobs {
			if job.LastError != "" {
				response.Status = "degraded"
			}
		}
	}

	writeJSON(h.log, w, http.StatusOK, response)
}

// HandleListJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		writeJSON(h.log, w, http.StatusOK, map[string]interface{}{"jobs": []scheduler.JobStatus{}})
		return
	}
	writeJSON(h.log, w, http.StatusOK, map[string]interface{}{"jobs": h.jobs.Jobs()})
}

// HandleRunJob handles POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		writeJSON(h.log, w, http.StatusServiceUnavailable, map[string]string{"error": "scheduler not configured"})
		return
	}

	known := false
	for _, job := range h.jobs.Jobs() {
		if job.Name == name {
			known = true
			break
		}
	}
	if !known {
		writeJSON(h.log, w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	if err := h.jobs.RunByName(name); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		writeJSON(h.log, w, http.StatusInternalServerError, map[string]interface{}{
			"status": "failed",
			"job":    name,
			"error":  err.Error(),
		})
		return
	}

	writeJSON(h.log, w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"job":    name,
	})
}

func (h *SystemHandlers) databaseStatus(ctx context.Context) *DatabaseStatus {
	status := &DatabaseStatus{Name: h.db.Name(), Healthy: true}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.QuickCheck(ctx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
		return status
	}

	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
		status.Error = err.Error()
		return status
	}
	status.SizeBytes = stats.SizeBytes
	status.WALSizeBytes = stats.WALSizeBytes
	status.PageCount = stats.PageCount
	status.FreelistCount = stats.FreelistCount
	return status
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short 100ms sampling interval so the endpoint stays responsive
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	// Get memory statistics (instant, no blocking)
	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func writeJSON(log zerolog.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
