package montecarlo

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/yourusername/valuation-engine/internal/models"
)

// DefaultTailProbability is the CVaR tail used when none is configured
const DefaultTailProbability = 0.05

var percentileLevels = []float64{5, 10, 25, 50, 75, 90, 95}

// Summarize reduces the successful trials of output into summary statistics.
// Failed and not-run trials are excluded.
func Summarize(output models.SimulationOutput, marketPrice, tailProbability float64) (models.SummaryStatistics, error) {
	if math.IsNaN(tailProbability) || tailProbability <= 0 || tailProbability > 1 {
		return models.SummaryStatistics{}, fmt.Errorf("%w: tail probability must be in (0, 1], got %.4f", models.ErrInvalidAssumption, tailProbability)
	}

	perShare := output.PerShareValues()
	if len(perShare) == 0 {
		return models.SummaryStatistics{}, models.ErrEmptySimulation
	}
	enterprise := output.EnterpriseValues()

	perShareStats, err := describe(perShare, tailProbability)
	if err != nil {
		return models.SummaryStatistics{}, fmt.Errorf("failed to summarize per-share values: %w", err)
	}
	enterpriseStats, err := describe(enterprise, tailProbability)
	if err != nil {
		return models.SummaryStatistics{}, fmt.Errorf("failed to summarize enterprise values: %w", err)
	}

	summary := models.SummaryStatistics{
		RunID:             output.RunID,
		PerShare:          perShareStats,
		EnterpriseValue:   enterpriseStats,
		TailProbability:   tailProbability,
		TailCount:         tailCount(len(perShare), tailProbability),
		MarketPrice:       marketPrice,
		UpsideProbability: ProbabilityAbove(perShare, marketPrice),
		Trials:            len(output.Trials),
		Attempted:         output.Attempted,
		Succeeded:         output.Succeeded,
		Failed:            output.Failed,
		Resolved:          output.Resolved,
		Complete:          output.Complete,
	}
	if marketPrice > 0 {
		summary.MarginOfSafety = perShareStats.Median/marketPrice - 1
	}
	return summary, nil
}

func describe(values []float64, tailProbability float64) (models.DistributionStats, error) {
	data := stats.Float64Data(values)

	mean, err := stats.Mean(data)
	if err != nil {
		return models.DistributionStats{}, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return models.DistributionStats{}, err
	}
	stdDev, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return models.DistributionStats{}, err
	}
	low, err := stats.Min(data)
	if err != nil {
		return models.DistributionStats{}, err
	}
	high, err := stats.Max(data)
	if err != nil {
		return models.DistributionStats{}, err
	}

	bands := make([]float64, len(percentileLevels))
	for i, level := range percentileLevels {
		bands[i], err = stats.PercentileNearestRank(data, level)
		if err != nil {
			return models.DistributionStats{}, fmt.Errorf("percentile %.0f: %w", level, err)
		}
	}

	return models.DistributionStats{
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    low,
		Max:    high,
		Percentiles: models.PercentileBands{
			P5:  bands[0],
			P10: bands[1],
			P25: bands[2],
			P50: bands[3],
			P75: bands[4],
			P90: bands[5],
			P95: bands[6],
		},
		CVaR: CVaR(values, tailProbability),
	}, nil
}

// CVaR returns the mean of the lowest ceil(p*n) values, at least one.
// It returns 0 for an empty slice.
func CVaR(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	k := tailCount(len(sorted), p)
	sum := 0.0
	for _, v := range sorted[:k] {
		sum += v
	}
	return sum / float64(k)
}

func tailCount(n int, p float64) int {
	k := int(math.Ceil(p * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// ProbabilityAbove returns the share of values strictly above threshold
func ProbabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
