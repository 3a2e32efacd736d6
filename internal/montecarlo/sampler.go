// Package montecarlo samples assumption vectors through the forecast and DCF
// pipeline and reduces the trials into risk statistics.
package montecarlo

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/valuation-engine/internal/dcf"
	"github.com/yourusername/valuation-engine/internal/forecast"
	"github.com/yourusername/valuation-engine/internal/models"
)

// ResolutionMode selects how a draw with terminal growth >= wacc is handled
type ResolutionMode string

const (
	// ResolveNone leaves the draw untouched; the valuator rejects it and the trial fails.
	ResolveNone ResolutionMode = "none"
	// ResolveResample redraws terminal growth up to MaxResamples times.
	ResolveResample ResolutionMode = "resample"
	// ResolveClamp sets terminal growth to wacc - Epsilon.
	ResolveClamp ResolutionMode = "clamp"
)

// ResolutionPolicy configures degenerate discount rate handling
type ResolutionPolicy struct {
	Mode         ResolutionMode
	MaxResamples int
	Epsilon      float64
}

// SamplerConfig configures a Monte Carlo sampler
type SamplerConfig struct {
	Workers               int
	Resolution            ResolutionPolicy
	FailureAlertThreshold float64
	Domain                forecast.Domain
}

// DefaultSamplerConfig returns the recommended sampler settings
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Workers: runtime.NumCPU(),
		Resolution: ResolutionPolicy{
			Mode:         ResolveResample,
			MaxResamples: 20,
			Epsilon:      0.005,
		},
		FailureAlertThreshold: 0.05,
		Domain:                forecast.DefaultDomain(),
	}
}

// Validate validates sampler configuration
func (c SamplerConfig) Validate() error {
	switch c.Resolution.Mode {
	case ResolveNone:
	case ResolveResample:
		if c.Resolution.MaxResamples <= 0 {
			return fmt.Errorf("resample policy requires max resamples > 0")
		}
	case ResolveClamp:
		if c.Resolution.Epsilon <= 0 {
			return fmt.Errorf("clamp policy requires epsilon > 0")
		}
	default:
		return fmt.Errorf("unknown resolution mode %q", c.Resolution.Mode)
	}
	if c.FailureAlertThreshold < 0 || c.FailureAlertThreshold > 1 {
		return fmt.Errorf("failure alert threshold must be between 0 and 1")
	}
	return nil
}

// Sampler runs Monte Carlo valuation trials. It holds no per-run state and is
// safe for concurrent use.
type Sampler struct {
	config     SamplerConfig
	forecaster *forecast.Forecaster
}

// NewSampler creates a sampler
func NewSampler(cfg SamplerConfig) (*Sampler, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Domain == (forecast.Domain{}) {
		cfg.Domain = forecast.DefaultDomain()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{
		config:     cfg,
		forecaster: forecast.NewForecaster(cfg.Domain),
	}, nil
}

// Config returns the sampler configuration
func (s *Sampler) Config() SamplerConfig {
	return s.config
}

// TrialSeed derives the sub-seed of trial index from the run seed (splitmix64)
func TrialSeed(seed int64, index int) int64 {
	z := uint64(seed) + uint64(index+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return int64(z)
}

// Run executes trials in parallel. Cancelling ctx stops the run between
// trials; the partial output is returned with Complete set to false and a nil
// error. When the failed fraction exceeds the alert threshold the full output
// is returned together with ErrFailureThresholdExceeded.
func (s *Sampler) Run(ctx context.Context, state models.FinancialState, distributions AssumptionDistributions, horizon, trials int, seed int64) (models.SimulationOutput, error) {
	if trials <= 0 {
		return models.SimulationOutput{}, fmt.Errorf("%w: trial count must be positive, got %d", models.ErrInvalidAssumption, trials)
	}
	if horizon <= 0 {
		return models.SimulationOutput{}, fmt.Errorf("%w: horizon must be positive, got %d", models.ErrInvalidAssumption, horizon)
	}
	if err := distributions.Validate(); err != nil {
		return models.SimulationOutput{}, err
	}

	results := make([]models.TrialResult, trials)
	for i := range results {
		results[i] = models.TrialResult{Index: i, Seed: TrialSeed(seed, i), Status: models.TrialNotRun}
	}

	workers := s.config.Workers
	if workers > trials {
		workers = trials
	}
	chunk := (trials + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < trials; start += chunk {
		start := start
		end := min(start+chunk, trials)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return nil
				}
				results[i] = s.RunTrial(state, distributions, horizon, seed, i)
			}
			return nil
		})
	}
	_ = g.Wait()

	output := models.SimulationOutput{
		Seed:    seed,
		Horizon: horizon,
		Trials:  results,
	}
	for _, trial := range results {
		switch trial.Status {
		case models.TrialSucceeded:
			output.Attempted++
			output.Succeeded++
		case models.TrialFailed:
			output.Attempted++
			output.Failed++
		}
		if trial.Resolved {
			output.Resolved++
		}
	}
	output.Complete = output.Attempted == trials

	if output.Attempted > 0 && output.FailedFraction() > s.config.FailureAlertThreshold {
		return output, fmt.Errorf("%w: %d of %d trials failed (%.2f%% > %.2f%%)",
			models.ErrFailureThresholdExceeded, output.Failed, output.Attempted,
			output.FailedFraction()*100, s.config.FailureAlertThreshold*100)
	}
	return output, nil
}

// RunTrial executes trial index of a run seeded with seed. It depends on
// nothing but its arguments, so any trial can be re-derived in isolation.
func (s *Sampler) RunTrial(state models.FinancialState, distributions AssumptionDistributions, horizon int, seed int64, index int) models.TrialResult {
	subSeed := TrialSeed(seed, index)
	rng := rand.New(rand.NewSource(subSeed))

	result := models.TrialResult{
		Index:       index,
		Seed:        subSeed,
		Assumptions: distributions.draw(rng),
	}
	if result.Assumptions.TerminalGrowth >= result.Assumptions.WACC {
		s.resolve(&result, distributions.TerminalGrowth, rng)
	}

	projection, err := s.forecaster.Project(state, result.Assumptions, horizon)
	if err != nil {
		return failTrial(result, err)
	}
	valuation, err := dcf.Value(projection, result.Assumptions.WACC, result.Assumptions.TerminalGrowth, state)
	if err != nil {
		return failTrial(result, err)
	}

	result.Status = models.TrialSucceeded
	result.Valuation = &valuation
	return result
}

// resolve applies the resolution policy to a degenerate draw. A draw that
// stays degenerate is left for the valuator to reject.
func (s *Sampler) resolve(result *models.TrialResult, terminalGrowth Distribution, rng *rand.Rand) {
	policy := s.config.Resolution
	switch policy.Mode {
	case ResolveResample:
		for k := 1; k <= policy.MaxResamples; k++ {
			result.Resamples = k
			result.Assumptions.TerminalGrowth = terminalGrowth.Sample(rng)
			if result.Assumptions.TerminalGrowth < result.Assumptions.WACC {
				result.Resolved = true
				return
			}
		}
	case ResolveClamp:
		result.Assumptions.TerminalGrowth = result.Assumptions.WACC - policy.Epsilon
		result.Resolved = true
	}
}

func failTrial(result models.TrialResult, err error) models.TrialResult {
	result.Status = models.TrialFailed
	result.Valuation = nil
	result.Error = err.Error()
	return result
}
