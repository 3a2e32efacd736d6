package valuation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/valuation-engine/internal/models"
)

// GenerateConsoleReport formats a valuation run for terminal output
func GenerateConsoleReport(report *Report) string {
	s := report.Summary
	currency := report.State.Currency

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Valuation Report: %s\n", report.Ticker))
	builder.WriteString("========================\n")
	builder.WriteString(fmt.Sprintf("Run ID: %s\n", report.RunID))
	builder.WriteString(fmt.Sprintf("Trials: %d attempted, %d succeeded, %d failed, %d resolved\n", s.Attempted, s.Succeeded, s.Failed, s.Resolved))
	if !s.Complete {
		builder.WriteString(fmt.Sprintf("Run cancelled after %d of %d trials\n", s.Attempted, s.Trials))
	}
	if report.RevenueCAGR != nil {
		builder.WriteString(fmt.Sprintf("Historical Revenue CAGR: %s\n", formatPercent(*report.RevenueCAGR)))
	}
	builder.WriteString("\nPer-Share Value\n")
	writeDistribution(&builder, s.PerShare, currency)
	builder.WriteString("\nEnterprise Value\n")
	writeDistribution(&builder, s.EnterpriseValue, currency)

	builder.WriteString("\nRisk\n")
	builder.WriteString(fmt.Sprintf("  Market Price (%s): %s\n", report.PriceSource, formatMoney(s.MarketPrice, currency)))
	builder.WriteString(fmt.Sprintf("  CVaR %s per share: %s\n", formatPercent(s.TailProbability), formatMoney(s.PerShare.CVaR, currency)))
	builder.WriteString(fmt.Sprintf("  CVaR %s enterprise value: %s\n", formatPercent(s.TailProbability), formatMoney(s.EnterpriseValue.CVaR, currency)))
	builder.WriteString(fmt.Sprintf("  Probability of Upside: %s\n", formatPercent(s.UpsideProbability)))
	if s.MarketPrice > 0 {
		builder.WriteString(fmt.Sprintf("  Margin of Safety: %s\n", formatPercent(s.MarginOfSafety)))
	}

	if len(report.Scenarios) > 0 {
		builder.WriteString("\n")
		builder.WriteString(GenerateScenarioTable(report.Scenarios, currency))
	}
	return builder.String()
}

// GenerateForecastReport formats the deterministic scenarios for terminal output
func GenerateForecastReport(report *ForecastReport) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Forecast: %s\n", report.Ticker))
	builder.WriteString("========================\n")
	builder.WriteString(fmt.Sprintf("Base WACC: %s, Terminal Growth: %s\n", formatPercent(report.Base.WACC), formatPercent(report.Base.TerminalGrowth)))
	if report.RevenueCAGR != nil {
		builder.WriteString(fmt.Sprintf("Historical Revenue CAGR: %s\n", formatPercent(*report.RevenueCAGR)))
	}
	builder.WriteString("\n")
	builder.WriteString(GenerateScenarioTable(report.Scenarios, report.State.Currency))

	for _, scenario := range report.Scenarios {
		builder.WriteString(fmt.Sprintf("\n%s projection\n", scenario.Name))
		builder.WriteString(fmt.Sprintf("  %-4s %14s %14s %14s %14s\n", "Year", "Revenue", "EBITDA", "NOPAT", "FCF"))
		for _, year := range scenario.Projection {
			builder.WriteString(fmt.Sprintf("  %-4d %14s %14s %14s %14s\n",
				year.Year,
				formatAmount(year.Revenue),
				formatAmount(year.EBITDA),
				formatAmount(year.NOPAT),
				formatAmount(year.FreeCashFlow),
			))
		}
	}
	return builder.String()
}

// GenerateScenarioTable formats scenario valuations as a fixed-width table
func GenerateScenarioTable(scenarios []ScenarioValuation, currency string) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%-10s %10s %10s %18s %14s\n", "Scenario", "Growth", "Margin", "Enterprise Value", "Per Share"))
	for _, s := range scenarios {
		builder.WriteString(fmt.Sprintf("%-10s %10s %10s %18s %14s\n",
			s.Name,
			formatPercent(s.Assumptions.RevenueGrowth),
			formatPercent(s.Assumptions.EBITDAMargin),
			formatMoney(s.Valuation.EnterpriseValue, currency),
			formatMoney(s.Valuation.PerShareValue, currency),
		))
	}
	return builder.String()
}

func writeDistribution(builder *strings.Builder, d models.DistributionStats, currency string) {
	builder.WriteString(fmt.Sprintf("  Mean: %s  Median: %s  Std Dev: %s\n", formatMoney(d.Mean, currency), formatMoney(d.Median, currency), formatMoney(d.StdDev, currency)))
	builder.WriteString(fmt.Sprintf("  Min: %s  Max: %s\n", formatMoney(d.Min, currency), formatMoney(d.Max, currency)))
	p := d.Percentiles
	builder.WriteString(fmt.Sprintf("  P5: %s  P25: %s  P50: %s  P75: %s  P95: %s\n",
		formatMoney(p.P5, currency), formatMoney(p.P25, currency), formatMoney(p.P50, currency), formatMoney(p.P75, currency), formatMoney(p.P95, currency)))
}

// formatAmount renders v rounded to cents with thousands separators
func formatAmount(v float64) string {
	fixed := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	return sign + grouped.String() + "." + frac
}

func formatMoney(v float64, currency string) string {
	if currency == "" {
		return formatAmount(v)
	}
	return formatAmount(v) + " " + currency
}

func formatPercent(v float64) string {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}
