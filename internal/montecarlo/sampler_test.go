package montecarlo

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuation-engine/internal/models"
)

func testState() models.FinancialState {
	return models.FinancialState{
		Ticker:            "TEST",
		Revenue:           1000,
		EBITDAMargin:      0.30,
		CapexPct:          0.05,
		DepreciationPct:   0.04,
		WorkingCapitalPct: 0.10,
		TaxRate:           0.25,
		SharesOutstanding: 100,
		NetDebt:           200,
		Cash:              50,
	}
}

func testDistributions() AssumptionDistributions {
	return AssumptionDistributions{
		RevenueGrowth:     BoundedNormal(0.08, 0.04, -0.2, 0.3),
		EBITDAMargin:      BoundedNormal(0.30, 0.03, 0.1, 0.5),
		CapexPct:          BoundedNormal(0.05, 0.01, 0.01, 0.1),
		DepreciationPct:   BoundedNormal(0.04, 0.005, 0.01, 0.08),
		WorkingCapitalPct: BoundedNormal(0.10, 0.02, 0, 0.2),
		TaxRate:           BoundedNormal(0.25, 0.02, 0.15, 0.35),
		WACC:              BoundedNormal(0.09, 0.01, 0.06, 0.14),
		TerminalGrowth:    BoundedNormal(0.025, 0.005, 0, 0.04),
	}
}

func fixedDistributions(wacc, terminalGrowth float64) AssumptionDistributions {
	return AssumptionDistributions{
		RevenueGrowth:     Fixed(0.10),
		EBITDAMargin:      Fixed(0.30),
		CapexPct:          Fixed(0.05),
		DepreciationPct:   Fixed(0.04),
		WorkingCapitalPct: Fixed(0.10),
		TaxRate:           Fixed(0.25),
		WACC:              Fixed(wacc),
		TerminalGrowth:    Fixed(terminalGrowth),
	}
}

func newTestSampler(t *testing.T, mutate func(*SamplerConfig)) *Sampler {
	t.Helper()
	cfg := DefaultSamplerConfig()
	cfg.Workers = 4
	if mutate != nil {
		mutate(&cfg)
	}
	sampler, err := NewSampler(cfg)
	require.NoError(t, err)
	return sampler
}

func TestRunDeterministic(t *testing.T) {
	sampler := newTestSampler(t, nil)

	first, err := sampler.Run(context.Background(), testState(), testDistributions(), 5, 500, 42)
	require.NoError(t, err)
	second, err := sampler.Run(context.Background(), testState(), testDistributions(), 5, 500, 42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, first.Complete)
	assert.Len(t, first.Trials, 500)
}

func TestRunDifferentSeedsDiffer(t *testing.T) {
	sampler := newTestSampler(t, nil)

	a, err := sampler.Run(context.Background(), testState(), testDistributions(), 5, 50, 1)
	require.NoError(t, err)
	b, err := sampler.Run(context.Background(), testState(), testDistributions(), 5, 50, 2)
	require.NoError(t, err)

	assert.NotEqual(t, a.PerShareValues(), b.PerShareValues())
}

func TestRunIndependentOfWorkerCount(t *testing.T) {
	single := newTestSampler(t, func(c *SamplerConfig) { c.Workers = 1 })
	many := newTestSampler(t, func(c *SamplerConfig) { c.Workers = 7 })

	a, err := single.Run(context.Background(), testState(), testDistributions(), 5, 301, 99)
	require.NoError(t, err)
	b, err := many.Run(context.Background(), testState(), testDistributions(), 5, 301, 99)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRunTrialReproducesBatchTrial(t *testing.T) {
	sampler := newTestSampler(t, nil)

	output, err := sampler.Run(context.Background(), testState(), testDistributions(), 5, 200, 42)
	require.NoError(t, err)

	for _, i := range []int{0, 17, 123, 199} {
		trial := sampler.RunTrial(testState(), testDistributions(), 5, 42, i)
		assert.Equal(t, output.Trials[i], trial, "trial %d", i)
		assert.Equal(t, TrialSeed(42, i), trial.Seed)
	}
}

func TestTrialSeedDistinct(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 10000; i++ {
		s := TrialSeed(42, i)
		assert.False(t, seen[s], "duplicate sub-seed at %d", i)
		seen[s] = true
	}
	assert.NotEqual(t, TrialSeed(1, 0), TrialSeed(2, 0))
}

func TestRunClampResolvesDegenerateDraws(t *testing.T) {
	sampler := newTestSampler(t, func(c *SamplerConfig) {
		c.Resolution = ResolutionPolicy{Mode: ResolveClamp, Epsilon: 0.005}
	})

	output, err := sampler.Run(context.Background(), testState(), fixedDistributions(0.10, 0.12), 5, 100, 42)
	require.NoError(t, err)

	assert.Equal(t, 100, output.Succeeded)
	assert.Equal(t, 100, output.Resolved)
	assert.Zero(t, output.Failed)
	for _, trial := range output.Trials {
		assert.True(t, trial.Resolved)
		assert.InDelta(t, 0.095, trial.Assumptions.TerminalGrowth, 1e-12)
	}
}

func TestRunNoneFailsDegenerateDraws(t *testing.T) {
	sampler := newTestSampler(t, func(c *SamplerConfig) {
		c.Resolution = ResolutionPolicy{Mode: ResolveNone}
	})

	output, err := sampler.Run(context.Background(), testState(), fixedDistributions(0.10, 0.12), 5, 100, 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFailureThresholdExceeded))

	assert.Equal(t, 100, output.Failed)
	assert.Zero(t, output.Succeeded)
	assert.Zero(t, output.Resolved)
	assert.True(t, output.Complete)
	for _, trial := range output.Trials {
		assert.Equal(t, models.TrialFailed, trial.Status)
		assert.Nil(t, trial.Valuation)
		assert.Contains(t, trial.Error, models.ErrDegenerateDiscountRate.Error())
	}

	_, err = Summarize(output, 10, 0.05)
	assert.True(t, errors.Is(err, models.ErrEmptySimulation))
}

func TestRunResampleGivesUpAfterMaxResamples(t *testing.T) {
	sampler := newTestSampler(t, func(c *SamplerConfig) {
		c.Resolution = ResolutionPolicy{Mode: ResolveResample, MaxResamples: 3}
		c.FailureAlertThreshold = 1
	})

	output, err := sampler.Run(context.Background(), testState(), fixedDistributions(0.10, 0.12), 5, 10, 42)
	require.NoError(t, err)

	assert.Equal(t, 10, output.Failed)
	for _, trial := range output.Trials {
		assert.Equal(t, 3, trial.Resamples)
		assert.False(t, trial.Resolved)
	}
}

func TestRunResampleResolvesOverlappingRanges(t *testing.T) {
	sampler := newTestSampler(t, nil)
	dists := testDistributions()
	dists.WACC = Uniform(0.05, 0.10)
	dists.TerminalGrowth = Uniform(0.04, 0.08)

	output, err := sampler.Run(context.Background(), testState(), dists, 5, 2000, 42)
	require.NoError(t, err)

	assert.Greater(t, output.Resolved, 0)
	for _, trial := range output.Trials {
		if trial.Succeeded() {
			assert.Less(t, trial.Assumptions.TerminalGrowth, trial.Assumptions.WACC)
		}
	}
}

func TestRunFailureThresholdExceeded(t *testing.T) {
	sampler := newTestSampler(t, func(c *SamplerConfig) {
		c.Resolution = ResolutionPolicy{Mode: ResolveNone}
	})
	dists := testDistributions()
	dists.WACC = Uniform(0.05, 0.10)
	dists.TerminalGrowth = Uniform(0.04, 0.08)

	output, err := sampler.Run(context.Background(), testState(), dists, 5, 2000, 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFailureThresholdExceeded))

	assert.Greater(t, output.Failed, 0)
	assert.Greater(t, output.Succeeded, 0)
	assert.Equal(t, 2000, output.Succeeded+output.Failed)
	assert.Greater(t, output.FailedFraction(), 0.05)
}

func TestRunCancelledReturnsPartialOutput(t *testing.T) {
	sampler := newTestSampler(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output, err := sampler.Run(ctx, testState(), testDistributions(), 5, 100, 42)
	require.NoError(t, err)

	assert.False(t, output.Complete)
	assert.Len(t, output.Trials, 100)
	assert.Zero(t, output.Attempted)
	for i, trial := range output.Trials {
		assert.Equal(t, i, trial.Index)
		assert.Equal(t, models.TrialNotRun, trial.Status)
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	sampler := newTestSampler(t, nil)

	_, err := sampler.Run(context.Background(), testState(), testDistributions(), 5, 0, 42)
	assert.True(t, errors.Is(err, models.ErrInvalidAssumption))

	_, err = sampler.Run(context.Background(), testState(), testDistributions(), 0, 10, 42)
	assert.True(t, errors.Is(err, models.ErrInvalidAssumption))

	dists := testDistributions()
	dists.WACC = Distribution{Family: "beta"}
	_, err = sampler.Run(context.Background(), testState(), dists, 5, 10, 42)
	assert.True(t, errors.Is(err, models.ErrInvalidAssumption))
}

func TestNewSamplerValidatesConfig(t *testing.T) {
	cfg := DefaultSamplerConfig()
	cfg.Resolution.Mode = "retry"
	_, err := NewSampler(cfg)
	assert.Error(t, err)

	cfg = DefaultSamplerConfig()
	cfg.Resolution.MaxResamples = 0
	_, err = NewSampler(cfg)
	assert.Error(t, err)

	sampler, err := NewSampler(SamplerConfig{Resolution: ResolutionPolicy{Mode: ResolveNone}})
	require.NoError(t, err)
	assert.Greater(t, sampler.Config().Workers, 0)
}

func TestRunTenThousandTrials(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large simulation in short mode")
	}
	sampler := newTestSampler(t, nil)

	output, err := sampler.Run(context.Background(), testState(), testDistributions(), 5, 10000, 42)
	require.NoError(t, err)
	assert.True(t, output.Complete)
	assert.Equal(t, 10000, output.Attempted)
	assert.Equal(t, 10000, output.Succeeded+output.Failed)

	summary, err := Summarize(output, 20, DefaultTailProbability)
	require.NoError(t, err)

	ps := summary.PerShare
	assert.LessOrEqual(t, ps.Min, ps.Percentiles.P5)
	assert.LessOrEqual(t, ps.Percentiles.P5, ps.Percentiles.P50)
	assert.LessOrEqual(t, ps.Percentiles.P50, ps.Percentiles.P95)
	assert.LessOrEqual(t, ps.Percentiles.P95, ps.Max)
	assert.LessOrEqual(t, ps.CVaR, ps.Percentiles.P5)
	assert.GreaterOrEqual(t, summary.UpsideProbability, 0.0)
	assert.LessOrEqual(t, summary.UpsideProbability, 1.0)
	assert.Equal(t, int(math.Ceil(0.05*float64(output.Succeeded))), summary.TailCount)
}
