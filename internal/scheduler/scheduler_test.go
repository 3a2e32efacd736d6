package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/valuation-engine/internal/models"
	"github.com/yourusername/valuation-engine/internal/valuation"
)

type MockValuator struct {
	mock.Mock
}

func (m *MockValuator) Run(ctx context.Context, ticker string) (*valuation.Report, error) {
	args := m.Called(ctx, ticker)
	report, _ := args.Get(0).(*valuation.Report)
	return report, args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestRevalueAll(t *testing.T) {
	valuator := new(MockValuator)
	valuator.On("Run", mock.Anything, "ACME").Return(&valuation.Report{RunID: uuid.New(), Ticker: "ACME"}, nil).Once()
	valuator.On("Run", mock.Anything, "GLOBEX").Return(&valuation.Report{RunID: uuid.New(), Ticker: "GLOBEX"},
		fmt.Errorf("wrapped: %w", models.ErrFailureThresholdExceeded)).Once()
	valuator.On("Run", mock.Anything, "MISSING").Return(nil, errors.New("ticker not found")).Once()

	s := NewScheduler(valuator, quietLogger())
	failures := s.RevalueAll(context.Background(), []string{"ACME", "GLOBEX", "MISSING"})

	assert.Equal(t, 1, failures)
	valuator.AssertExpectations(t)
}

func TestRevalueAllStopsOnCancelledContext(t *testing.T) {
	valuator := new(MockValuator)
	s := NewScheduler(valuator, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, 2, s.RevalueAll(ctx, []string{"ACME", "GLOBEX"}))
	valuator.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestScheduleRevaluation(t *testing.T) {
	s := NewScheduler(new(MockValuator), quietLogger())

	assert.Error(t, s.Start(), "starting without jobs must fail")
	assert.Error(t, s.ScheduleRevaluation("0 6 * * 1-5", nil))
	assert.Error(t, s.ScheduleRevaluation("not a cron", []string{"ACME"}))

	require.NoError(t, s.ScheduleRevaluation("0 6 * * 1-5", []string{"ACME"}))
	require.Len(t, s.Entries(), 1)
	assert.True(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleRevaluation("@hourly", []string{"ACME"}))

	next := s.GetNextRun()
	assert.False(t, next.IsZero())
	assert.Equal(t, 6, next.Hour())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	require.NoError(t, s.RemoveJob(s.Entries()[0].ID))
	assert.Empty(t, s.Entries())
}

func TestScheduledJobRuns(t *testing.T) {
	done := make(chan struct{}, 1)
	valuator := new(MockValuator)
	valuator.On("Run", mock.Anything, "ACME").Return(&valuation.Report{RunID: uuid.New()}, nil).Run(func(args mock.Arguments) {
		select {
		case done <- struct{}{}:
		default:
		}
	})

	s := NewScheduler(valuator, quietLogger())
	require.NoError(t, s.ScheduleRevaluation("@every 1s", []string{"ACME"}))
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled revaluation did not run")
	}
}
