package valuation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{0, "0.00"},
		{12, "12.00"},
		{999.999, "1,000.00"},
		{1234567.891, "1,234,567.89"},
		{-1234.5, "-1,234.50"},
		{123456, "123,456.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatAmount(tt.value))
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.50%", formatPercent(0.125))
	assert.Equal(t, "-4.00%", formatPercent(-0.04))
	assert.Equal(t, "12.00 USD", formatMoney(12, "USD"))
	assert.Equal(t, "12.00", formatMoney(12, ""))
}

func TestGenerateConsoleReport(t *testing.T) {
	engine := newTestEngine(t, testConfig(), healthyProvider(), nil)
	report, err := engine.Run(context.Background(), "ACME")
	require.NoError(t, err)

	output := GenerateConsoleReport(report)
	assert.Contains(t, output, "Valuation Report: ACME")
	assert.Contains(t, output, "500 attempted, 500 succeeded, 0 failed")
	assert.Contains(t, output, "Historical Revenue CAGR: 11.80%")
	assert.Contains(t, output, "Market Price (mock): 20.00 USD")
	assert.Contains(t, output, "Probability of Upside")
	assert.Contains(t, output, "Margin of Safety")
	assert.Contains(t, output, "bull")
	assert.NotContains(t, output, "Run cancelled")
}

func TestGenerateForecastReport(t *testing.T) {
	engine := newTestEngine(t, testConfig(), healthyProvider(), nil)
	report, err := engine.Forecast(context.Background(), "ACME")
	require.NoError(t, err)

	output := GenerateForecastReport(report)
	assert.Contains(t, output, "Forecast: ACME")
	assert.Contains(t, output, "Base WACC: 9.00%, Terminal Growth: 2.50%")
	assert.Contains(t, output, "base projection")
	assert.Contains(t, output, "1,080.00")
}
