// Package config provides configuration management for the valuation engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App           AppConfig           `mapstructure:"app" validate:"required"`
	Database      DatabaseConfig      `mapstructure:"database"`
	MarketData    MarketDataConfig    `mapstructure:"market_data" validate:"required"`
	Valuation     ValuationConfig     `mapstructure:"valuation" validate:"required"`
	Distributions DistributionsConfig `mapstructure:"distributions" validate:"required"`
	Scenarios     []ScenarioConfig    `mapstructure:"scenarios" validate:"dive"`
	CAPM          CAPMConfig          `mapstructure:"capm"`
	Schedule      ScheduleConfig      `mapstructure:"schedule"`
	Metrics       MetricsConfig       `mapstructure:"metrics" validate:"required"`
	Secrets       SecretsConfig       `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogFormat   string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// DatabaseConfig represents database connection configuration. Persistence is
// optional; when disabled the remaining fields are ignored.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// MarketDataConfig selects and configures the financial data provider
type MarketDataConfig struct {
	Provider             string  `mapstructure:"provider" validate:"required,provider"`
	BaseURL              string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey               string  `mapstructure:"api_key"`
	FilePath             string  `mapstructure:"file_path"`
	HistoryPath          string  `mapstructure:"history_path"`
	TimeoutSeconds       int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts        int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimitPerSecond   float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
	PriceCacheTTLSeconds int     `mapstructure:"price_cache_ttl_seconds" validate:"required,gt=0"`
	PriceOverride        float64 `mapstructure:"price_override" validate:"gte=0"`
}

// ValuationConfig configures a Monte Carlo valuation run
type ValuationConfig struct {
	Ticker                string       `mapstructure:"ticker" validate:"required"`
	Horizon               int          `mapstructure:"horizon" validate:"required,gt=0,lte=50"`
	Trials                int          `mapstructure:"trials" validate:"required,gt=0"`
	Seed                  int64        `mapstructure:"seed"`
	Workers               int          `mapstructure:"workers" validate:"gte=0"`
	Resolution            string       `mapstructure:"resolution" validate:"required,resolution"`
	MaxResamples          int          `mapstructure:"max_resamples" validate:"gte=0"`
	ClampEpsilon          float64      `mapstructure:"clamp_epsilon" validate:"gte=0"`
	FailureAlertThreshold float64      `mapstructure:"failure_alert_threshold" validate:"gte=0,lte=1"`
	TailProbability       float64      `mapstructure:"tail_probability" validate:"required,gt=0,lte=1"`
	OutputDir             string       `mapstructure:"output_dir"`
	PersistTrials         bool         `mapstructure:"persist_trials"`
	Domain                DomainConfig `mapstructure:"domain"`
}

// DomainConfig bounds forecast assumptions
type DomainConfig struct {
	GrowthMin  float64 `mapstructure:"growth_min" validate:"gt=-1"`
	GrowthMax  float64 `mapstructure:"growth_max"`
	PercentMin float64 `mapstructure:"percent_min"`
	PercentMax float64 `mapstructure:"percent_max"`
}

// DistributionConfig describes how one assumption is sampled
type DistributionConfig struct {
	Family string  `mapstructure:"family" validate:"required,distribution"`
	Mean   float64 `mapstructure:"mean"`
	StdDev float64 `mapstructure:"std_dev" validate:"gte=0"`
	Low    float64 `mapstructure:"low"`
	Mode   float64 `mapstructure:"mode"`
	High   float64 `mapstructure:"high"`
}

// DistributionsConfig holds one distribution per assumption field
type DistributionsConfig struct {
	RevenueGrowth     DistributionConfig `mapstructure:"revenue_growth" validate:"required"`
	EBITDAMargin      DistributionConfig `mapstructure:"ebitda_margin" validate:"required"`
	CapexPct          DistributionConfig `mapstructure:"capex_pct" validate:"required"`
	DepreciationPct   DistributionConfig `mapstructure:"depreciation_pct" validate:"required"`
	WorkingCapitalPct DistributionConfig `mapstructure:"working_capital_pct" validate:"required"`
	TaxRate           DistributionConfig `mapstructure:"tax_rate" validate:"required"`
	WACC              DistributionConfig `mapstructure:"wacc" validate:"required"`
	TerminalGrowth    DistributionConfig `mapstructure:"terminal_growth" validate:"required"`
}

// ScenarioConfig adjusts the base assumptions into a named scenario
type ScenarioConfig struct {
	Name             string  `mapstructure:"name" validate:"required"`
	GrowthMultiplier float64 `mapstructure:"growth_multiplier" validate:"gte=0"`
	MarginDelta      float64 `mapstructure:"margin_delta"`
	CapexMultiplier  float64 `mapstructure:"capex_multiplier" validate:"gte=0"`
}

// CAPMConfig derives the WACC distribution center from market inputs
type CAPMConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Beta         float64 `mapstructure:"beta" validate:"gte=0"`
	RiskFreeRate float64 `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
	MarketReturn float64 `mapstructure:"market_return" validate:"gte=0,lte=1"`
	CostOfDebt   float64 `mapstructure:"cost_of_debt" validate:"gte=0,lte=1"`
	MarketDebt   float64 `mapstructure:"market_debt" validate:"gte=0"`
	MarketEquity float64 `mapstructure:"market_equity" validate:"gte=0"`
}

// ScheduleConfig configures periodic revaluation
type ScheduleConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	Cron              string   `mapstructure:"cron"`
	Tickers           []string `mapstructure:"tickers"`
	MaxStalenessHours int      `mapstructure:"max_staleness_hours" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SecretsConfig points at an AWS Secrets Manager secret overlaid on the config
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// MarketDataTimeout returns the provider request timeout
func (c *Config) MarketDataTimeout() time.Duration {
	return time.Duration(c.MarketData.TimeoutSeconds) * time.Second
}

// MaxValuationAge returns how old the newest valuation may get before the
// service reports not ready; zero disables the check
func (c *Config) MaxValuationAge() time.Duration {
	return time.Duration(c.Schedule.MaxStalenessHours) * time.Hour
}

// PriceCacheTTL returns how long a fetched market price stays valid
func (c *Config) PriceCacheTTL() time.Duration {
	return time.Duration(c.MarketData.PriceCacheTTLSeconds) * time.Second
}
