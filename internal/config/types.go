// Package config loads project configuration for the planner CLI.
// It is decoupled from command wiring so other tools can reuse it.
package config

// PlannerConfig holds plan generation knobs.
type PlannerConfig struct {
	DefaultLookbackDays     int     `koanf:"default_lookback_days"`
	DefaultRuntimeSeconds   float64 `koanf:"default_runtime_seconds"`
	CostPerComputeSecondUSD float64 `koanf:"cost_per_compute_second_usd"`
	SkipCosmeticChanges     bool    `koanf:"skip_cosmetic_changes"`
}

// ImpactConfig holds impact analysis knobs.
type ImpactConfig struct {
	MaxDepth int `koanf:"max_depth"`
}

// Config is the resolved project configuration.
type Config struct {
	// ModelsDir is the working tree of model files being planned.
	ModelsDir string `koanf:"models_dir"`
	// BaseDir is the baseline snapshot the working tree is diffed against.
	BaseDir   string `koanf:"base_dir"`
	StatePath string `koanf:"state_path"`

	Output  string `koanf:"output"` // table or json
	Verbose bool   `koanf:"verbose"`

	Planner PlannerConfig `koanf:"planner"`
	Impact  ImpactConfig  `koanf:"impact"`

	// ProjectRoot is the directory paths were resolved against.
	ProjectRoot string `koanf:"-"`
}
