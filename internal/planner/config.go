package planner

// Config holds planner tuning knobs. Callers pass it explicitly on every
// Generate call; there is no package-level mutable default.
type Config struct {
	// DefaultLookbackDays seeds the incremental range for models without a
	// watermark: start = as-of date minus this many days.
	DefaultLookbackDays int

	// DefaultRuntimeSeconds is the compute estimate for models with no run
	// history.
	DefaultRuntimeSeconds float64

	// CostPerComputeSecondUSD converts estimated seconds to dollars.
	CostPerComputeSecondUSD float64

	// SkipCosmeticChanges enables the cosmetic-change filter on modified
	// models. Purely a cost-saving heuristic; correctness never depends on
	// it.
	SkipCosmeticChanges bool
}

// Default configuration values.
const (
	DefaultLookbackDays         = 30
	DefaultRuntimeSeconds       = 300.0
	DefaultCostPerComputeSecond = 0.0002
)

// DefaultConfig returns the documented default planner configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLookbackDays:     DefaultLookbackDays,
		DefaultRuntimeSeconds:   DefaultRuntimeSeconds,
		CostPerComputeSecondUSD: DefaultCostPerComputeSecond,
		SkipCosmeticChanges:     true,
	}
}
