// Package distribution orchestrates quota allocation: it resolves the grade
// ladder, loads the customer matrix and ratios, runs the engine and writes the
// result back.
package distribution

import (
	"context"
	"fmt"
	"strings"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/modules/results"
	"github.com/rs/zerolog"
)

// Config carries service level settings
type Config struct {
	BoostPhrase  string
	BatchWorkers int
}

// Service runs allocations against the configured data sources
type Service struct {
	engine    *allocation.Engine
	customers CustomerSource
	ratios    RatioSource
	ladders   LadderSource
	results   ResultStore
	cfg       Config
	log       zerolog.Logger
}

// NewService creates a new distribution service
func NewService(
	engine *allocation.Engine,
	customers CustomerSource,
	ratioSource RatioSource,
	ladders LadderSource,
	resultStore ResultStore,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if cfg.BatchWorkers <= 0 {
		cfg.BatchWorkers = 1
	}
	if strings.TrimSpace(cfg.BoostPhrase) == "" {
		cfg.BoostPhrase = allocation.DefaultBoostPhrase
	}
	return &Service{
		engine:    engine,
		customers: customers,
		ratios:    ratioSource,
		ladders:   ladders,
		results:   resultStore,
		cfg:       cfg,
		log:       log.With().Str("service", "distribution").Logger(),
	}
}

// AllocateUniform gives every segment the same quota vector
func (s *Service) AllocateUniform(ctx context.Context, req Request) (*Result, error) {
	return s.Allocate(ctx, results.ModeUniform, req)
}

// AllocateMultiSegment lets segments diverge when that lands closer to the target
func (s *Service) AllocateMultiSegment(ctx context.Context, req Request) (*Result, error) {
	return s.Allocate(ctx, results.ModeMultiSegment, req)
}

// AllocateWeighted splits the target across segment groups by ratio
func (s *Service) AllocateWeighted(ctx context.Context, req Request) (*Result, error) {
	return s.Allocate(ctx, results.ModeWeighted, req)
}

// Allocate dispatches a request to the allocator of mode
func (s *Service) Allocate(ctx context.Context, mode results.Mode, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.EntityCode) == "" {
		return nil, &allocation.AllocationError{
			Kind:    allocation.ErrInvalidInput,
			Message: "entity code is required",
		}
	}

	ladder, err := s.resolveLadder(req)
	if err != nil {
		return nil, err
	}

	matrix, err := s.loadMatrix(req)
	if err != nil {
		return nil, err
	}

	var out allocation.AllocationMatrix
	switch mode {
	case results.ModeUniform:
		out, err = s.engine.DistributeSingleLevel(matrix.Segments, matrix, req.Target, ladder)
	case results.ModeMultiSegment:
		out, err = s.engine.DistributeMultiSegment(matrix.Segments, matrix, req.Target, ladder, req.SegmentOrder)
	case results.ModeWeighted:
		out, err = s.allocateWeighted(req, matrix, ladder)
	default:
		return nil, &allocation.AllocationError{
			Kind:    allocation.ErrInvalidInput,
			Subject: req.EntityCode,
			Message: fmt.Sprintf("unknown allocation mode %q", mode),
		}
	}
	if err != nil {
		s.log.Debug().
			Err(err).
			Str("entity", req.EntityCode).
			Str("mode", string(mode)).
			Msg("Allocation failed")
		return nil, err
	}

	achieved := out.Achieved(matrix)
	result := &Result{
		EntityCode:    req.EntityCode,
		Partition:     req.Partition,
		Mode:          mode,
		Ladder:        ladder.String(),
		Target:        req.Target,
		Achieved:      achieved,
		AbsoluteError: achieved.Sub(req.Target).Abs(),
		Allocation:    out,
	}

	if req.Persist {
		runID, err := s.results.Save(results.Record{
			EntityCode: req.EntityCode,
			Partition:  req.Partition,
			Mode:       mode,
			Ladder:     ladder,
			Target:     req.Target,
			Achieved:   achieved,
			Allocation: out,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save allocation: %w", err)
		}
		result.RunID = runID
	}

	s.log.Info().
		Str("entity", req.EntityCode).
		Str("partition", req.Partition).
		Str("mode", string(mode)).
		Str("ladder", result.Ladder).
		Str("target", req.Target.String()).
		Str("achieved", achieved.String()).
		Msg("Allocation completed")

	return result, nil
}

// GetRun returns a persisted run
func (s *Service) GetRun(runID string) (*results.Run, error) {
	return s.results.GetRun(runID)
}

// ListRuns returns the newest run ids of an entity in a partition
func (s *Service) ListRuns(entityCode, partition string, limit int) ([]string, error) {
	if entityCode == "" {
		return nil, &allocation.AllocationError{
			Kind:    allocation.ErrInvalidInput,
			Message: "entity code is required",
		}
	}

	ids, err := s.results.ListRuns(entityCode, partition, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *Service) allocateWeighted(req Request, matrix allocation.CustomerMatrix, ladder allocation.GradeLadder) (allocation.AllocationMatrix, error) {
	if req.Scheme == "" {
		return allocation.AllocationMatrix{}, &allocation.AllocationError{
			Kind:    allocation.ErrInvalidInput,
			Subject: req.EntityCode,
			Message: "grouping scheme is required for weighted allocation",
		}
	}

	grouping, err := s.ratios.GetGrouping(req.Scheme)
	if err != nil {
		return allocation.AllocationMatrix{}, fmt.Errorf("failed to load grouping: %w", err)
	}

	var strategy allocation.RatioStrategy
	switch req.Strategy {
	case allocation.RatioCustomerProportional:
		strategy = allocation.CustomerProportionalRatios()
	case allocation.RatioFixed, "":
		fixed := req.Ratios
		if len(fixed) == 0 {
			fixed, err = s.ratios.GetRatios(req.Scheme)
			if err != nil {
				return allocation.AllocationMatrix{}, fmt.Errorf("failed to load group ratios: %w", err)
			}
		}
		strategy = allocation.FixedRatios(fixed)
	default:
		strategy = allocation.RatioStrategy{Kind: req.Strategy}
	}

	return s.engine.DistributeWithStrategy(matrix.Segments, matrix, req.Target, ladder, grouping, strategy)
}

func (s *Service) resolveLadder(req Request) (allocation.GradeLadder, error) {
	if req.HighGrade != "" || req.LowGrade != "" {
		return allocation.LadderFromGrades(req.HighGrade, req.LowGrade)
	}
	ladder, err := s.ladders.Resolve(req.EntityCode)
	if err != nil {
		return allocation.GradeLadder{}, fmt.Errorf("failed to resolve ladder: %w", err)
	}
	return ladder, nil
}

func (s *Service) loadMatrix(req Request) (allocation.CustomerMatrix, error) {
	segments := req.Segments
	if len(segments) == 0 {
		stored, err := s.customers.ListSegments(req.Partition)
		if err != nil {
			return allocation.CustomerMatrix{}, fmt.Errorf("failed to list segments: %w", err)
		}
		if len(stored) == 0 {
			return allocation.CustomerMatrix{}, &allocation.AllocationError{
				Kind:    allocation.ErrNoCustomerData,
				Subject: req.Partition,
				Message: "partition has no customer counts",
			}
		}
		segments = stored
	}

	matrix, err := s.customers.GetMatrix(req.Partition, segments)
	if err != nil {
		return allocation.CustomerMatrix{}, fmt.Errorf("failed to load customer matrix: %w", err)
	}
	return matrix, nil
}
