package valuation

import (
	"fmt"
	"strings"

	"github.com/yourusername/valuation-engine/internal/config"
	"github.com/yourusername/valuation-engine/internal/forecast"
	"github.com/yourusername/valuation-engine/internal/montecarlo"
)

// Config holds everything an Engine needs besides its collaborators
type Config struct {
	Sampler         montecarlo.SamplerConfig
	Distributions   montecarlo.AssumptionDistributions
	Scenarios       map[string]forecast.ScenarioAdjustment
	Horizon         int
	Trials          int
	Seed            int64
	TailProbability float64
	PriceOverride   float64
	PersistTrials   bool
	OutputDir       string
}

// FromConfig converts app config to engine config
func FromConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("config is required")
	}
	samplerCfg, distributions, err := montecarlo.FromConfig(cfg)
	if err != nil {
		return Config{}, err
	}

	ec := Config{
		Sampler:         samplerCfg,
		Distributions:   distributions,
		Scenarios:       ScenariosFromConfig(cfg.Scenarios),
		Horizon:         cfg.Valuation.Horizon,
		Trials:          cfg.Valuation.Trials,
		Seed:            cfg.Valuation.Seed,
		TailProbability: cfg.Valuation.TailProbability,
		PriceOverride:   cfg.MarketData.PriceOverride,
		PersistTrials:   cfg.Valuation.PersistTrials,
		OutputDir:       cfg.Valuation.OutputDir,
	}
	return ec, ec.Validate()
}

// Validate validates engine parameters
func (c Config) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive")
	}
	if c.Trials <= 0 {
		return fmt.Errorf("trials must be positive")
	}
	if c.TailProbability <= 0 || c.TailProbability > 1 {
		return fmt.Errorf("tail probability must be in (0, 1]")
	}
	if c.PriceOverride < 0 {
		return fmt.Errorf("price override must be non-negative")
	}
	return nil
}

// ScenariosFromConfig keys scenario adjustments by lower-cased name. The
// stock scenarios are used when none are configured, and a neutral base
// scenario is always present.
func ScenariosFromConfig(scenarios []config.ScenarioConfig) map[string]forecast.ScenarioAdjustment {
	if len(scenarios) == 0 {
		return forecast.DefaultScenarios()
	}
	adjustments := make(map[string]forecast.ScenarioAdjustment, len(scenarios)+1)
	adjustments[forecast.ScenarioBase] = forecast.ScenarioAdjustment{GrowthMultiplier: 1, CapexMultiplier: 1}
	for _, s := range scenarios {
		adjustments[strings.ToLower(s.Name)] = forecast.ScenarioAdjustment{
			GrowthMultiplier: s.GrowthMultiplier,
			MarginDelta:      s.MarginDelta,
			CapexMultiplier:  s.CapexMultiplier,
		}
	}
	return adjustments
}
