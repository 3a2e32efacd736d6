package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("distribution", validateDistributionFamily)
	_ = v.RegisterValidation("resolution", validateResolution)
	_ = v.RegisterValidation("provider", validateProvider)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateDistributionFamily(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "normal", "triangular", "uniform", "fixed":
		return true
	default:
		return false
	}
}

func validateResolution(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "none", "resample", "clamp":
		return true
	default:
		return false
	}
}

func validateProvider(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "http", "file":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when database is enabled")
		}
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
	}

	switch cfg.MarketData.Provider {
	case "http":
		if cfg.MarketData.BaseURL == "" {
			return fmt.Errorf("market_data.base_url is required for the http provider")
		}
	case "file":
		if cfg.MarketData.FilePath == "" {
			return fmt.Errorf("market_data.file_path is required for the file provider")
		}
	}

	switch cfg.Valuation.Resolution {
	case "resample":
		if cfg.Valuation.MaxResamples <= 0 {
			return fmt.Errorf("valuation.max_resamples must be positive for the resample policy")
		}
	case "clamp":
		if cfg.Valuation.ClampEpsilon <= 0 {
			return fmt.Errorf("valuation.clamp_epsilon must be positive for the clamp policy")
		}
	}

	if err := validateDistributions(cfg.Distributions); err != nil {
		return err
	}

	if cfg.CAPM.Enabled && cfg.CAPM.MarketDebt+cfg.CAPM.MarketEquity <= 0 {
		return fmt.Errorf("capm market_debt + market_equity must be positive when capm is enabled")
	}

	if cfg.Schedule.Enabled {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule cron %q: %w", cfg.Schedule.Cron, err)
		}
		if len(cfg.Schedule.Tickers) == 0 {
			return fmt.Errorf("schedule.tickers must not be empty when the schedule is enabled")
		}
	}

	if cfg.Secrets.Enabled && (cfg.Secrets.Region == "" || cfg.Secrets.SecretName == "") {
		return fmt.Errorf("secrets region and secret_name are required when secrets are enabled")
	}

	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

func validateDistributions(d DistributionsConfig) error {
	fields := []struct {
		name string
		dist DistributionConfig
	}{
		{"revenue_growth", d.RevenueGrowth},
		{"ebitda_margin", d.EBITDAMargin},
		{"capex_pct", d.CapexPct},
		{"depreciation_pct", d.DepreciationPct},
		{"working_capital_pct", d.WorkingCapitalPct},
		{"tax_rate", d.TaxRate},
		{"wacc", d.WACC},
		{"terminal_growth", d.TerminalGrowth},
	}
	for _, f := range fields {
		switch f.dist.Family {
		case "uniform":
			if f.dist.Low >= f.dist.High {
				return fmt.Errorf("distributions.%s: low must be below high", f.name)
			}
		case "triangular":
			if f.dist.Low > f.dist.Mode || f.dist.Mode > f.dist.High || f.dist.Low == f.dist.High {
				return fmt.Errorf("distributions.%s: requires low <= mode <= high", f.name)
			}
		case "normal":
			if f.dist.Low > f.dist.High {
				return fmt.Errorf("distributions.%s: low must not exceed high", f.name)
			}
		}
	}

	if center(d.TerminalGrowth) >= center(d.WACC) {
		return fmt.Errorf("distributions.terminal_growth center must be below distributions.wacc center")
	}
	return nil
}

func center(d DistributionConfig) float64 {
	switch d.Family {
	case "uniform":
		return (d.Low + d.High) / 2
	case "triangular":
		return (d.Low + d.Mode + d.High) / 3
	default:
		return d.Mean
	}
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "distribution":
			fmt.Fprintf(&b, "- Field '%s' must be one of: normal, triangular, uniform, fixed\n", field)
		case "resolution":
			fmt.Fprintf(&b, "- Field '%s' must be one of: none, resample, clamp\n", field)
		case "provider":
			fmt.Fprintf(&b, "- Field '%s' must be one of: http, file\n", field)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
		if cfg.MarketData.Provider == "http" && isTestCredential(cfg.MarketData.APIKey) {
			return fmt.Errorf("production environment should not use test market data credentials")
		}
	}
	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
