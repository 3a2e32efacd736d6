package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/valuation-engine/internal/config"
	"github.com/yourusername/valuation-engine/internal/database"
	"github.com/yourusername/valuation-engine/internal/models"
)

func TestRunOutcome(t *testing.T) {
	anomaly := fmt.Errorf("%w: 40 of 500 trials failed", models.ErrFailureThresholdExceeded)
	persist := fmt.Errorf("failed to persist valuation run: %w", models.ErrDuplicateKey)

	tests := []struct {
		name         string
		err          error
		allowAnomaly bool
		want         []error
	}{
		{"success", nil, false, nil},
		{"anomaly fails the command", anomaly, false, []error{models.ErrFailureThresholdExceeded}},
		{"anomaly allowed", anomaly, true, nil},
		{"persist error with anomaly", errors.Join(persist, anomaly), false, []error{models.ErrDuplicateKey, models.ErrFailureThresholdExceeded}},
		{"persist error survives allowed anomaly", errors.Join(persist, anomaly), true, []error{models.ErrDuplicateKey}},
		{"other errors are never allowed", models.ErrEmptySimulation, true, []error{models.ErrEmptySimulation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runOutcome(tt.err, tt.allowAnomaly)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, target := range tt.want {
				assert.ErrorIs(t, err, target)
			}
			if tt.allowAnomaly {
				assert.NotErrorIs(t, err, models.ErrFailureThresholdExceeded)
			}
		})
	}
}

func TestHealthConfig(t *testing.T) {
	cfg = &config.Config{
		Metrics:  config.MetricsConfig{Port: 9191, Path: "/prom"},
		Schedule: config.ScheduleConfig{Enabled: true, MaxStalenessHours: 36},
	}

	hc := healthConfig(nil, nil)
	assert.Nil(t, hc.DB)
	assert.Equal(t, "9191", hc.Port)
	assert.Equal(t, "/prom", hc.MetricsPath)
	assert.Equal(t, 36*time.Hour, hc.MaxValuationAge)

	db := &database.DB{}
	hc = healthConfig(nil, db)
	assert.Same(t, db, hc.DB)

	cfg.Schedule.Enabled = false
	assert.Zero(t, healthConfig(nil, nil).MaxValuationAge)
}
