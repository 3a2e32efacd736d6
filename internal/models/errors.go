package models

import "errors"

// Valuation errors
var (
	// ErrInvalidAssumption marks malformed scenario inputs. Not retryable without new inputs.
	ErrInvalidAssumption = errors.New("invalid assumption")
	// ErrDegenerateDiscountRate marks a discount rate at or below terminal growth.
	ErrDegenerateDiscountRate = errors.New("degenerate discount rate: wacc must exceed terminal growth")
	// ErrEmptySimulation is returned when aggregation has no successful trials.
	ErrEmptySimulation = errors.New("simulation has no successful trials")
	// ErrFailureThresholdExceeded is returned alongside the output of a run whose
	// failed-trial fraction is above the configured alert threshold.
	ErrFailureThresholdExceeded = errors.New("failed trial fraction exceeds alert threshold")
)

// Storage errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrInvalidID    = errors.New("invalid ID format")
)
