// Package scheduler revalues configured tickers on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/valuation-engine/internal/metrics"
	"github.com/yourusername/valuation-engine/internal/models"
	"github.com/yourusername/valuation-engine/internal/valuation"
)

// Valuator runs one valuation of a ticker
type Valuator interface {
	Run(ctx context.Context, ticker string) (*valuation.Report, error)
}

// Scheduled run statuses
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusFailure = "failure"
)

// Scheduler manages scheduled revaluation jobs
type Scheduler struct {
	cron            *cron.Cron
	valuator        Valuator
	logger          *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	runTimeout      time.Duration
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(valuator Valuator, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	cronLogger := cron.PrintfLogger(logger.WithField("component", "scheduler"))
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		valuator:        valuator,
		logger:          logger,
		jobIDs:          make([]cron.EntryID, 0),
		runTimeout:      30 * time.Minute,
		gracefulTimeout: 30 * time.Second,
	}
}

// SetRunTimeout bounds a single scheduled revaluation of all tickers
func (s *Scheduler) SetRunTimeout(timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runTimeout = timeout
}

// ScheduleRevaluation schedules a revaluation of tickers on a standard cron expression
func (s *Scheduler) ScheduleRevaluation(cronExpression string, tickers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if len(tickers) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}
	tickers = append([]string(nil), tickers...)

	jobFunc := func() {
		s.mu.RLock()
		timeout := s.runTimeout
		s.mu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.RevalueAll(ctx, tickers)
	}

	entryID, err := s.cron.AddFunc(cronExpression, jobFunc)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"cron":    cronExpression,
		"tickers": tickers,
	}).Info("Scheduled revaluation job")

	return nil
}

// RevalueAll values every ticker in turn and returns the number of failed runs.
// A run over the failure alert threshold still counts as completed.
func (s *Scheduler) RevalueAll(ctx context.Context, tickers []string) int {
	failures := 0
	for _, ticker := range tickers {
		if ctx.Err() != nil {
			s.logger.WithField("ticker", ticker).Warn("Scheduled revaluation interrupted")
			failures++
			metrics.RecordScheduledRun(StatusFailure)
			continue
		}

		entry := s.logger.WithField("ticker", ticker)
		report, err := s.valuator.Run(ctx, ticker)
		switch {
		case report == nil:
			failures++
			metrics.RecordScheduledRun(StatusFailure)
			entry.WithError(err).Error("Scheduled revaluation failed")
		case err != nil:
			metrics.RecordScheduledRun(StatusWarning)
			if errors.Is(err, models.ErrFailureThresholdExceeded) {
				entry.WithError(err).Warn("Scheduled revaluation completed with failed trials above threshold")
			} else {
				entry.WithError(err).Warn("Scheduled revaluation completed with errors")
			}
		default:
			metrics.RecordScheduledRun(StatusSuccess)
			entry.WithFields(logrus.Fields{
				"run_id":           report.RunID.String(),
				"median_per_share": report.Summary.PerShare.Median,
			}).Info("Scheduled revaluation completed")
		}
	}
	return failures
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("Scheduler started with %d jobs", len(s.jobIDs))

	return nil
}

// Stop stops the scheduler and waits for running jobs up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulTimeout)
	defer cancel()

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for scheduled jobs to finish")
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}

// RemoveJob removes a scheduled job
func (s *Scheduler) RemoveJob(jobID cron.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot remove job while scheduler is running")
	}

	s.cron.Remove(jobID)
	for i, id := range s.jobIDs {
		if id == jobID {
			s.jobIDs = append(s.jobIDs[:i], s.jobIDs[i+1:]...)
			break
		}
	}
	s.logger.Infof("Removed job: %d", jobID)

	return nil
}
