package montecarlo

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/valuation-engine/internal/models"
)

func TestDistributionSampleStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cases := []struct {
		name string
		dist Distribution
	}{
		{"bounded normal", BoundedNormal(0.05, 0.5, 0, 0.1)},
		{"uniform", Uniform(-0.1, 0.2)},
		{"triangular", Triangular(0.01, 0.02, 0.05)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.dist.Validate())
			for i := 0; i < 5000; i++ {
				v := tc.dist.Sample(rng)
				assert.GreaterOrEqual(t, v, tc.dist.Low)
				assert.LessOrEqual(t, v, tc.dist.High)
			}
		})
	}
}

func TestDistributionFixed(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := Fixed(0.21)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 0.21, d.Sample(rng))
	}
	assert.Equal(t, 0.21, d.Center())
}

func TestTriangularMean(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	d := Triangular(0, 0.3, 0.9)
	sum := 0.0
	n := 50000
	for i := 0; i < n; i++ {
		sum += d.Sample(rng)
	}
	assert.InDelta(t, d.Center(), sum/float64(n), 0.01)
	assert.InDelta(t, 0.0, sampleTriangular(0, 0, 0.3, 0.9), 1e-12)
	assert.InDelta(t, 0.9, sampleTriangular(1, 0, 0.3, 0.9), 1e-12)
}

func TestDistributionValidate(t *testing.T) {
	cases := []struct {
		name string
		dist Distribution
	}{
		{"negative std dev", Normal(0.1, -0.01)},
		{"inverted normal bounds", BoundedNormal(0.1, 0.01, 0.2, 0.1)},
		{"empty uniform", Uniform(0.1, 0.1)},
		{"mode outside", Triangular(0, 0.5, 0.4)},
		{"unknown family", Distribution{Family: "lognormal"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.dist.Validate())
		})
	}
}

func TestAssumptionDistributionsValidateWrapsInvalidAssumption(t *testing.T) {
	dists := testDistributions()
	dists.TaxRate = Uniform(0.3, 0.2)

	err := dists.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidAssumption))
	assert.Contains(t, err.Error(), "tax_rate")
}

func TestRecenter(t *testing.T) {
	normal := BoundedNormal(0.09, 0.01, 0.06, 0.12).Recenter(0.10)
	assert.InDelta(t, 0.10, normal.Mean, 1e-12)
	assert.InDelta(t, 0.07, normal.Low, 1e-12)
	assert.InDelta(t, 0.13, normal.High, 1e-12)

	uniform := Uniform(0.0, 0.2).Recenter(0.3)
	assert.InDelta(t, 0.3, uniform.Center(), 1e-12)

	tri := Triangular(0.0, 0.15, 0.3).Recenter(0.2)
	assert.InDelta(t, 0.2, tri.Center(), 1e-12)
	assert.InDelta(t, 0.05, tri.Low, 1e-12)
	assert.InDelta(t, 0.2, tri.Mode, 1e-12)
	assert.InDelta(t, 0.35, tri.High, 1e-12)
}

func TestRecenterAsymmetricTriangular(t *testing.T) {
	tri := Triangular(0.06, 0.07, 0.12).Recenter(0.09)
	require.NoError(t, tri.Validate())
	assert.InDelta(t, 0.09, tri.Center(), 1e-12)
	assert.InDelta(t, 0.11-0.06, tri.High-tri.Mode, 1e-12)
	assert.InDelta(t, 0.01, tri.Mode-tri.Low, 1e-12)

	rng := rand.New(rand.NewSource(7))
	const n = 200000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += tri.Sample(rng)
	}
	assert.InDelta(t, 0.09, sum/n, 5e-4)
}

func TestBaseUsesCenters(t *testing.T) {
	base := testDistributions().Base()
	assert.InDelta(t, 0.08, base.RevenueGrowth, 1e-12)
	assert.InDelta(t, 0.09, base.WACC, 1e-12)
	assert.InDelta(t, 0.025, base.TerminalGrowth, 1e-12)
}
