// Package allocation implements the tiered quota allocation engine.
//
// A target amount is spread over segments × 30 ordinal tiers so that every
// segment's quota row is non-increasing from the highest grade (D30, index 0)
// to the lowest (D1, index 29) and the customer-weighted total lands as close
// to the target as the candidate search allows.
//
// The engine is pure: every call works on its arguments only and the Engine
// value itself is immutable, so one Engine may serve concurrent callers.
package allocation

// DefaultQuotaScale is the number of decimal places kept on fine-tuned quotas.
const DefaultQuotaScale int32 = 2

const maxQuotaScale int32 = 16

// Options are the per-engine numeric settings.
type Options struct {
	// Scale is the number of decimal places fine-tuned quotas are rounded
	// to (half-up). Whole-unit coarse increments are never rounded.
	Scale int32
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{Scale: DefaultQuotaScale}
}

// Engine runs the allocators with a fixed set of Options.
type Engine struct {
	scale int32
}

// NewEngine creates an engine. Scales outside [0, 16] fall back to the default.
func NewEngine(opts Options) *Engine {
	scale := opts.Scale
	if scale < 0 || scale > maxQuotaScale {
		scale = DefaultQuotaScale
	}
	return &Engine{scale: scale}
}

// Scale returns the rounding scale applied to fine-tuned quotas.
func (e *Engine) Scale() int32 {
	return e.scale
}
