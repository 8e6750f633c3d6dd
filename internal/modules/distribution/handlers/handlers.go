// Package handlers provides HTTP handlers for quota allocation.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/distribution"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/results"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBatchItems = 500

// AllocationService is the part of distribution.Service the handlers use
type AllocationService interface {
	AllocateUniform(ctx context.Context, req distribution.Request) (*distribution.Result, error)
	AllocateMultiSegment(ctx context.Context, req distribution.Request) (*distribution.Result, error)
	AllocateWeighted(ctx context.Context, req distribution.Request) (*distribution.Result, error)
	AllocateBatch(ctx context.Context, items []distribution.BatchItem) (*distribution.BatchResult, error)
	AdjustBand(ctx context.Context, req distribution.BandRequest) (*distribution.BandResult, error)
	GetRun(runID string) (*results.Run, error)
	ListRuns(entityCode, partition string, limit int) ([]string, error)
}

// Handler handles allocation HTTP requests
type Handler struct {
	service AllocationService
	log     zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(service AllocationService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "allocation").Logger(),
	}
}

// BatchRequest is the body of POST /api/allocations/batch
type BatchRequest struct {
	Items []distribution.BatchItem `json:"items"`
}

// HandleUniform handles POST /api/allocations/uniform
func (h *Handler) HandleUniform(w http.ResponseWriter, r *http.Request) {
	h.handleSingle(w, r, h.service.AllocateUniform)
}

// HandleMultiSegment handles POST /api/allocations/multi-segment
func (h *Handler) HandleMultiSegment(w http.ResponseWriter, r *http.Request) {
	h.handleSingle(w, r, h.service.AllocateMultiSegment)
}

// HandleWeighted handles POST /api/allocations/weighted
func (h *Handler) HandleWeighted(w http.ResponseWriter, r *http.Request) {
	h.handleSingle(w, r, h.service.AllocateWeighted)
}

func (h *Handler) handleSingle(
	w http.ResponseWriter,
	r *http.Request,
	allocate func(context.Context, distribution.Request) (*distribution.Result, error),
) {
	var req distribution.Request
	if !h.readRequest(w, r, &req) {
		return
	}

	result, err := allocate(r.Context(), req)
	if err != nil {
		h.writeAllocationError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, result)
}

// HandleBatch handles POST /api/allocations/batch
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.readRequest(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		h.writeError(w, http.StatusBadRequest, "Batch has no items")
		return
	}
	if len(req.Items) > maxBatchItems {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Batch exceeds %d items", maxBatchItems))
		return
	}

	result, err := h.service.AllocateBatch(r.Context(), req.Items)
	if err != nil {
		h.writeAllocationError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, result)
}

// HandleTruncation handles POST /api/allocations/truncation
func (h *Handler) HandleTruncation(w http.ResponseWriter, r *http.Request) {
	var req distribution.BandRequest
	if !h.readRequest(w, r, &req) {
		return
	}

	result, err := h.service.AdjustBand(r.Context(), req)
	if err != nil {
		h.writeAllocationError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, result)
}

// HandleGetRun handles GET /api/allocations/runs/{runID}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := h.service.GetRun(runID)
	if errors.Is(err, results.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to load run")
		h.writeError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}

	h.writeData(w, http.StatusOK, run)
}

// HandleListRuns handles GET /api/allocations/runs?entity=...&partition=...&limit=...
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	ids, err := h.service.ListRuns(query.Get("entity"), query.Get("partition"), limit)
	if err != nil {
		h.writeAllocationError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"run_ids": ids,
		"count":   len(ids),
	})
}

// StatusFor maps an allocation error to an HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, allocation.ErrInvalidInput),
		errors.Is(err, allocation.ErrInvalidGroupRatio),
		errors.Is(err, allocation.ErrUnmappedGroup),
		errors.Is(err, allocation.ErrNoCustomerData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, allocation.ErrAllocationInfeasible),
		errors.Is(err, allocation.ErrDegenerateAllocation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// readRequest decodes the JSON body into v. Malformed JSON is a 400; a value
// the engine rejects while decoding, such as an oversized vector, is mapped
// like any other allocation error.
func (h *Handler) readRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	if errors.Is(err, allocation.ErrInvalidInput) {
		h.writeAllocationError(w, err)
		return false
	}
	h.writeError(w, http.StatusBadRequest, "Invalid request body")
	return false
}

func (h *Handler) writeAllocationError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Allocation request failed")
		h.writeError(w, status, "Allocation failed")
		return
	}

	h.writeJSON(w, status, map[string]string{
		"error":   err.Error(),
		"kind":    distribution.ErrorKind(err),
		"subject": allocation.SubjectOf(err),
	})
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
