package metrics

import "github.com/prometheus/client_golang/prometheus"

// Valuation gauge vectors, labelled by ticker and holding the latest run
var (
	PerShareMedian = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "per_share_median",
		Help:      "Median intrinsic value per share of the latest run",
	}, []string{"ticker"})
	PerShareCVaR = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "per_share_cvar",
		Help:      "Conditional value at risk of the per-share distribution of the latest run",
	}, []string{"ticker"})
	UpsideProbability = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "upside_probability",
		Help:      "Share of successful trials valued above the market price",
	}, []string{"ticker"})
	MarginOfSafety = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "margin_of_safety",
		Help:      "Median per-share value over market price, minus one",
	}, []string{"ticker"})
	MarketPrice = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "market_price",
		Help:      "Market price used by the latest run",
	}, []string{"ticker"})
	FailedTrialFraction = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "failed_trial_fraction",
		Help:      "Failed over attempted trials of the latest run",
	}, []string{"ticker"})
)

// ValuationSnapshot is the subset of a run summary exported as gauges
type ValuationSnapshot struct {
	MedianPerShare    float64
	CVaRPerShare      float64
	UpsideProbability float64
	MarginOfSafety    float64
	MarketPrice       float64
	FailedFraction    float64
}

// UpdateValuation sets the latest-run gauges for ticker.
func UpdateValuation(ticker string, s ValuationSnapshot) {
	PerShareMedian.WithLabelValues(ticker).Set(s.MedianPerShare)
	PerShareCVaR.WithLabelValues(ticker).Set(s.CVaRPerShare)
	UpsideProbability.WithLabelValues(ticker).Set(s.UpsideProbability)
	MarginOfSafety.WithLabelValues(ticker).Set(s.MarginOfSafety)
	MarketPrice.WithLabelValues(ticker).Set(s.MarketPrice)
	FailedTrialFraction.WithLabelValues(ticker).Set(s.FailedFraction)
}
