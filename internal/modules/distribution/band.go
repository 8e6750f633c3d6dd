package distribution

import (
	"context"
	"fmt"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"github.com/shopspring/decimal"
)

// AdjustBand groups a batch by price band and applies the lowest shared tier
// truncation to every band with more than one entity. Entities are adjusted
// in place on a copy; a failing band keeps its original allocations.
func (s *Service) AdjustBand(ctx context.Context, req BandRequest) (*BandResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Entities) == 0 {
		return nil, &allocation.AllocationError{
			Kind:    allocation.ErrInvalidInput,
			Message: "no entities to adjust",
		}
	}

	ladder, err := s.resolveBandLadder(req)
	if err != nil {
		return nil, err
	}
	weights, err := s.loadBandWeights(req)
	if err != nil {
		return nil, err
	}

	entities := make([]BandEntity, len(req.Entities))
	copy(entities, req.Entities)

	index := make(map[string]int, len(entities))
	keys := make([]string, len(entities))
	prices := make(map[string]decimal.Decimal, len(entities))
	for i, e := range entities {
		if _, dup := index[e.ID]; dup || e.ID == "" {
			return nil, &allocation.AllocationError{
				Kind:    allocation.ErrInvalidInput,
				Subject: e.ID,
				Message: "entity ids must be unique and non-empty",
			}
		}
		index[e.ID] = i
		keys[i] = e.ID
		prices[e.ID] = e.Price
		if !e.Boosted {
			entities[i].Boosted = allocation.NeedsBoost(e.Remark, s.cfg.BoostPhrase)
		}
	}

	groups, codes := allocation.GroupByBand(req.Bands, keys, prices)
	outcomes := make([]BandOutcome, 0, len(codes))

	for _, code := range codes {
		members := groups[code]
		outcome := BandOutcome{Code: code, Entities: members}

		if len(members) < 2 {
			outcome.Skipped = true
			outcomes = append(outcomes, outcome)
			continue
		}

		batch := make([]allocation.EntityAllocation, len(members))
		for j, id := range members {
			e := entities[index[id]]
			batch[j] = allocation.EntityAllocation{
				ID:         e.ID,
				Target:     e.Target,
				Allocation: e.Allocation,
				Boosted:    e.Boosted,
			}
		}

		truncation, err := s.engine.AdjustTruncation(batch, weights, ladder)
		if err != nil {
			outcome.Error = err.Error()
			outcome.ErrorKind = ErrorKind(err)
			s.log.Warn().
				Err(err).
				Int("band", code).
				Str("entity", allocation.SubjectOf(err)).
				Msg("Band truncation failed, allocations restored")
			outcomes = append(outcomes, outcome)
			continue
		}

		for _, adjusted := range batch {
			entities[index[adjusted.ID]].Allocation = adjusted.Allocation
		}
		outcome.Cutoff = allocation.GradeLabel(truncation.Cutoff)
		outcome.Truncated = truncation.Truncated
		outcome.Refilled = truncation.Refilled
		outcomes = append(outcomes, outcome)

		s.log.Debug().
			Int("band", code).
			Int("entities", len(members)).
			Str("cutoff", outcome.Cutoff).
			Int("refilled", len(truncation.Refilled)).
			Msg("Band truncated")
	}

	return &BandResult{Entities: entities, Bands: outcomes}, nil
}

func (s *Service) resolveBandLadder(req BandRequest) (allocation.GradeLadder, error) {
	if req.HighGrade != "" || req.LowGrade != "" || req.EntityCode == "" {
		return allocation.LadderFromGrades(req.HighGrade, req.LowGrade)
	}
	ladder, err := s.ladders.Resolve(req.EntityCode)
	if err != nil {
		return allocation.GradeLadder{}, fmt.Errorf("failed to resolve ladder: %w", err)
	}
	return ladder, nil
}

// loadBandWeights uses the request's weights and increments when present and
// falls back to the stored rows of req.Segment otherwise.
func (s *Service) loadBandWeights(req BandRequest) (allocation.TruncationWeights, error) {
	base := req.Weights
	increments := req.BoostIncrements
	stored := base.IsZeroRange(0, allocation.TierCount-1) || len(increments) == 0

	if stored && req.Segment != "" {
		if req.Partition == "" {
			return allocation.TruncationWeights{}, &allocation.AllocationError{
				Kind:    allocation.ErrInvalidInput,
				Subject: req.Segment,
				Message: "segment given without a partition",
			}
		}

		if base.IsZeroRange(0, allocation.TierCount-1) {
			matrix, err := s.customers.GetMatrix(req.Partition, []string{req.Segment})
			if err != nil {
				return allocation.TruncationWeights{}, fmt.Errorf("failed to load customer matrix: %w", err)
			}
			if len(matrix.Counts) != 1 || matrix.Counts[0].IsZeroRange(0, allocation.TierCount-1) {
				return allocation.TruncationWeights{}, &allocation.AllocationError{
					Kind:    allocation.ErrNoCustomerData,
					Subject: req.Segment,
					Message: fmt.Sprintf("no customer counts stored for partition %s", req.Partition),
				}
			}
			base = matrix.Counts[0]
		}

		if len(increments) == 0 {
			loaded, err := s.customers.GetBoostIncrements(req.Partition, req.Segment)
			if err != nil {
				return allocation.TruncationWeights{}, fmt.Errorf("failed to load boost increments: %w", err)
			}
			if !allocation.VectorFrom(loaded).IsZeroRange(0, allocation.TierCount-1) {
				increments = loaded
			}
		}
	}

	weights := allocation.TruncationWeights{Base: base}
	if len(increments) > 0 {
		boosted, err := allocation.BoostWeights(base, increments)
		if err != nil {
			return allocation.TruncationWeights{}, err
		}
		weights.Boosted = &boosted
	}
	return weights, nil
}
