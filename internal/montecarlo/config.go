package montecarlo

import (
	"fmt"

	"github.com/yourusername/valuation-engine/internal/config"
	"github.com/yourusername/valuation-engine/internal/dcf"
	"github.com/yourusername/valuation-engine/internal/forecast"
)

// FromConfig converts app config into sampler settings and assumption distributions.
// When CAPM is enabled the WACC distribution is recentred on the CAPM WACC.
func FromConfig(cfg *config.Config) (SamplerConfig, AssumptionDistributions, error) {
	if cfg == nil {
		return SamplerConfig{}, AssumptionDistributions{}, fmt.Errorf("config is required")
	}

	vc := cfg.Valuation
	samplerCfg := SamplerConfig{
		Workers: vc.Workers,
		Resolution: ResolutionPolicy{
			Mode:         ResolutionMode(vc.Resolution),
			MaxResamples: vc.MaxResamples,
			Epsilon:      vc.ClampEpsilon,
		},
		FailureAlertThreshold: vc.FailureAlertThreshold,
		Domain:                domainFromConfig(vc.Domain),
	}
	if err := samplerCfg.Validate(); err != nil {
		return SamplerConfig{}, AssumptionDistributions{}, fmt.Errorf("invalid sampler config: %w", err)
	}

	dc := cfg.Distributions
	distributions := AssumptionDistributions{
		RevenueGrowth:     distributionFromConfig(dc.RevenueGrowth),
		EBITDAMargin:      distributionFromConfig(dc.EBITDAMargin),
		CapexPct:          distributionFromConfig(dc.CapexPct),
		DepreciationPct:   distributionFromConfig(dc.DepreciationPct),
		WorkingCapitalPct: distributionFromConfig(dc.WorkingCapitalPct),
		TaxRate:           distributionFromConfig(dc.TaxRate),
		WACC:              distributionFromConfig(dc.WACC),
		TerminalGrowth:    distributionFromConfig(dc.TerminalGrowth),
	}

	if cfg.CAPM.Enabled {
		wacc, err := dcf.CAPMWACC(dcf.CAPMInputs{
			Beta:         cfg.CAPM.Beta,
			RiskFreeRate: cfg.CAPM.RiskFreeRate,
			MarketReturn: cfg.CAPM.MarketReturn,
			MarketDebt:   cfg.CAPM.MarketDebt,
			MarketEquity: cfg.CAPM.MarketEquity,
			CostOfDebt:   cfg.CAPM.CostOfDebt,
			TaxRate:      distributions.TaxRate.Center(),
		})
		if err != nil {
			return SamplerConfig{}, AssumptionDistributions{}, fmt.Errorf("failed to derive CAPM WACC: %w", err)
		}
		distributions.WACC = distributions.WACC.Recenter(wacc)
	}

	if err := distributions.Validate(); err != nil {
		return SamplerConfig{}, AssumptionDistributions{}, err
	}
	return samplerCfg, distributions, nil
}

func distributionFromConfig(dc config.DistributionConfig) Distribution {
	return Distribution{
		Family: Family(dc.Family),
		Mean:   dc.Mean,
		StdDev: dc.StdDev,
		Low:    dc.Low,
		Mode:   dc.Mode,
		High:   dc.High,
	}
}

// domainFromConfig returns the default domain when no bounds are configured
func domainFromConfig(dc config.DomainConfig) forecast.Domain {
	if dc == (config.DomainConfig{}) {
		return forecast.DefaultDomain()
	}
	growth := forecast.Range{Min: dc.GrowthMin, Max: dc.GrowthMax}
	percent := forecast.Range{Min: dc.PercentMin, Max: dc.PercentMax}
	return forecast.Domain{
		RevenueGrowth:     growth,
		EBITDAMargin:      percent,
		CapexPct:          percent,
		DepreciationPct:   percent,
		WorkingCapitalPct: percent,
		TaxRate:           percent,
	}
}
