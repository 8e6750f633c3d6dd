package distribution

import (
	"context"
	"errors"
	"math"

	"github.com/Robin-Jason/CigaretteDistributionSystem-sub003/internal/allocation"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// AllocateBatch runs independent entity allocations in parallel.
// A failing entity is recorded in its outcome and does not stop the others.
// Only context cancellation aborts the batch.
func (s *Service) AllocateBatch(ctx context.Context, items []BatchItem) (*BatchResult, error) {
	outcomes := make([]EntityOutcome, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchWorkers)

	for i := range items {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := items[i]
			outcome := EntityOutcome{EntityCode: item.Request.EntityCode}

			result, err := s.Allocate(gctx, item.Mode, item.Request)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				outcome.Error = err.Error()
				outcome.ErrorKind = ErrorKind(err)
				s.log.Warn().
					Err(err).
					Str("entity", item.Request.EntityCode).
					Msg("Batch entry failed")
			} else {
				outcome.Result = result
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := summarize(outcomes)
	s.log.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Float64("mean_relative_error", summary.MeanRelativeError).
		Msg("Batch allocation finished")

	return &BatchResult{Outcomes: outcomes, Summary: summary}, nil
}

func summarize(outcomes []EntityOutcome) BatchSummary {
	summary := BatchSummary{Total: len(outcomes)}

	var errs []float64
	for _, o := range outcomes {
		if o.Result == nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		rel := o.Result.RelativeError()
		errs = append(errs, rel)
		summary.MaxRelativeError = math.Max(summary.MaxRelativeError, rel)
	}

	switch len(errs) {
	case 0:
	case 1:
		summary.MeanRelativeError = errs[0]
	default:
		summary.MeanRelativeError, summary.StdRelativeError = stat.MeanStdDev(errs, nil)
	}
	return summary
}

// ErrorKind names the allocation error kind of err, or "internal"
func ErrorKind(err error) string {
	for _, kind := range []error{
		allocation.ErrInvalidInput,
		allocation.ErrNoCustomerData,
		allocation.ErrAllocationInfeasible,
		allocation.ErrInvalidGroupRatio,
		allocation.ErrUnmappedGroup,
		allocation.ErrDegenerateAllocation,
	} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal"
}
