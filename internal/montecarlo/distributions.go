package montecarlo

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/yourusername/valuation-engine/internal/models"
)

// Family names a sampling distribution
type Family string

const (
	// FamilyNormal draws from N(Mean, StdDev), clamped when bounded
	FamilyNormal Family = "normal"
	// FamilyTriangular draws from [Low, High] peaking at Mode
	FamilyTriangular Family = "triangular"
	// FamilyUniform draws evenly from [Low, High]
	FamilyUniform Family = "uniform"
	// FamilyFixed always returns Mean
	FamilyFixed Family = "fixed"
)

// Distribution describes how one assumption field is sampled.
//
// Normal draws use Mean and StdDev and are clamped into [Low, High] when
// Low < High. Uniform draws span [Low, High]. Triangular draws span
// [Low, High] peaking at Mode. Fixed always returns Mean.
type Distribution struct {
	Family Family  `json:"family"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Low    float64 `json:"low"`
	Mode   float64 `json:"mode"`
	High   float64 `json:"high"`
}

// Normal returns an unbounded normal distribution
func Normal(mean, stdDev float64) Distribution {
	return Distribution{Family: FamilyNormal, Mean: mean, StdDev: stdDev}
}

// BoundedNormal returns a normal distribution clamped into [low, high]
func BoundedNormal(mean, stdDev, low, high float64) Distribution {
	return Distribution{Family: FamilyNormal, Mean: mean, StdDev: stdDev, Low: low, High: high}
}

// Uniform returns a uniform distribution on [low, high]
func Uniform(low, high float64) Distribution {
	return Distribution{Family: FamilyUniform, Low: low, High: high}
}

// Triangular returns a triangular distribution on [low, high] with the given mode
func Triangular(low, mode, high float64) Distribution {
	return Distribution{Family: FamilyTriangular, Low: low, Mode: mode, High: high}
}

// Fixed returns a degenerate distribution that always yields value
func Fixed(value float64) Distribution {
	return Distribution{Family: FamilyFixed, Mean: value}
}

func (d Distribution) bounded() bool {
	return d.Low < d.High
}

// Validate checks that the distribution parameters are coherent
func (d Distribution) Validate() error {
	values := []float64{d.Mean, d.StdDev, d.Low, d.Mode, d.High}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameters must be finite")
		}
	}
	switch d.Family {
	case FamilyNormal:
		if d.StdDev < 0 {
			return fmt.Errorf("normal std_dev must be non-negative, got %.6f", d.StdDev)
		}
		if d.Low > d.High {
			return fmt.Errorf("normal bounds inverted: low=%.6f high=%.6f", d.Low, d.High)
		}
	case FamilyUniform:
		if d.Low >= d.High {
			return fmt.Errorf("uniform requires low < high, got low=%.6f high=%.6f", d.Low, d.High)
		}
	case FamilyTriangular:
		if d.Low >= d.High {
			return fmt.Errorf("triangular requires low < high, got low=%.6f high=%.6f", d.Low, d.High)
		}
		if d.Mode < d.Low || d.Mode > d.High {
			return fmt.Errorf("triangular mode %.6f outside [%.6f, %.6f]", d.Mode, d.Low, d.High)
		}
	case FamilyFixed:
	default:
		return fmt.Errorf("unknown distribution family %q", d.Family)
	}
	return nil
}

// Center returns the location of the distribution
func (d Distribution) Center() float64 {
	switch d.Family {
	case FamilyUniform:
		return (d.Low + d.High) / 2
	case FamilyTriangular:
		return (d.Low + d.Mode + d.High) / 3
	default:
		return d.Mean
	}
}

// Recenter shifts the distribution so that Center() equals center. The
// shape is preserved; only the location moves.
func (d Distribution) Recenter(center float64) Distribution {
	shifted := d
	switch d.Family {
	case FamilyNormal, FamilyFixed:
		delta := center - d.Mean
		shifted.Mean = center
		if d.bounded() {
			shifted.Low += delta
			shifted.High += delta
		}
	case FamilyUniform:
		delta := center - d.Center()
		shifted.Low += delta
		shifted.High += delta
	case FamilyTriangular:
		delta := center - d.Center()
		shifted.Low += delta
		shifted.Mode += delta
		shifted.High += delta
	}
	return shifted
}

// Sample draws one value
func (d Distribution) Sample(rng *rand.Rand) float64 {
	switch d.Family {
	case FamilyNormal:
		v := d.Mean + d.StdDev*rng.NormFloat64()
		if d.bounded() {
			v = math.Max(d.Low, math.Min(d.High, v))
		}
		return v
	case FamilyUniform:
		return d.Low + rng.Float64()*(d.High-d.Low)
	case FamilyTriangular:
		return sampleTriangular(rng.Float64(), d.Low, d.Mode, d.High)
	default:
		return d.Mean
	}
}

// sampleTriangular applies the inverse CDF of the triangular distribution to u in [0, 1)
func sampleTriangular(u, low, mode, high float64) float64 {
	span := high - low
	split := (mode - low) / span
	if u < split {
		return low + math.Sqrt(u*span*(mode-low))
	}
	return high - math.Sqrt((1-u)*span*(high-mode))
}

// AssumptionDistributions names the sampling distribution of every assumption field
type AssumptionDistributions struct {
	RevenueGrowth     Distribution `json:"revenue_growth"`
	EBITDAMargin      Distribution `json:"ebitda_margin"`
	CapexPct          Distribution `json:"capex_pct"`
	DepreciationPct   Distribution `json:"depreciation_pct"`
	WorkingCapitalPct Distribution `json:"working_capital_pct"`
	TaxRate           Distribution `json:"tax_rate"`
	WACC              Distribution `json:"wacc"`
	TerminalGrowth    Distribution `json:"terminal_growth"`
}

// Validate rejects malformed configuration before any trial runs
func (a AssumptionDistributions) Validate() error {
	fields := []struct {
		name string
		dist Distribution
	}{
		{"revenue_growth", a.RevenueGrowth},
		{"ebitda_margin", a.EBITDAMargin},
		{"capex_pct", a.CapexPct},
		{"depreciation_pct", a.DepreciationPct},
		{"working_capital_pct", a.WorkingCapitalPct},
		{"tax_rate", a.TaxRate},
		{"wacc", a.WACC},
		{"terminal_growth", a.TerminalGrowth},
	}
	for _, f := range fields {
		if err := f.dist.Validate(); err != nil {
			return fmt.Errorf("%w: distribution %s: %v", models.ErrInvalidAssumption, f.name, err)
		}
	}
	return nil
}

// Base returns the assumption set at every distribution's center
func (a AssumptionDistributions) Base() models.AssumptionSet {
	return models.AssumptionSet{
		RevenueGrowth:     a.RevenueGrowth.Center(),
		EBITDAMargin:      a.EBITDAMargin.Center(),
		CapexPct:          a.CapexPct.Center(),
		DepreciationPct:   a.DepreciationPct.Center(),
		WorkingCapitalPct: a.WorkingCapitalPct.Center(),
		TaxRate:           a.TaxRate.Center(),
		WACC:              a.WACC.Center(),
		TerminalGrowth:    a.TerminalGrowth.Center(),
	}
}

// draw samples every field in a fixed order so a seed maps to one assumption set
func (a AssumptionDistributions) draw(rng *rand.Rand) models.AssumptionSet {
	return models.AssumptionSet{
		RevenueGrowth:     a.RevenueGrowth.Sample(rng),
		EBITDAMargin:      a.EBITDAMargin.Sample(rng),
		CapexPct:          a.CapexPct.Sample(rng),
		DepreciationPct:   a.DepreciationPct.Sample(rng),
		WorkingCapitalPct: a.WorkingCapitalPct.Sample(rng),
		TaxRate:           a.TaxRate.Sample(rng),
		WACC:              a.WACC.Sample(rng),
		TerminalGrowth:    a.TerminalGrowth.Sample(rng),
	}
}
