package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wave-dashboard/internal/models"
)

// Refresher rebuilds the heatmap snapshot.
type Refresher interface {
	Refresh(ctx context.Context) (*models.Heatmap, error)
}

// Scheduler refreshes the heatmap on a cron schedule. A run that is still in
// progress when the next one fires causes that one to be skipped.
type Scheduler struct {
	refresher Refresher
	logger    *zap.Logger
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
	entryID   cron.EntryID
	running   bool
	mu        sync.Mutex
	lastRun   time.Time
	lastError error
	runs      int
	wg        sync.WaitGroup
}

func NewScheduler(refresher Refresher, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		logger:    logger,
		schedule:  schedule,
		timeout:   60 * time.Second,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DiscardLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, s.runRefresh)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("invalid heatmap schedule %q: %w", s.schedule, err)
	}
	s.entryID = id
	s.running = true
	s.mu.Unlock()

	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(id).Next))

	// Run immediately on start
	s.ForceRun()

	return nil
}

func (s *Scheduler) runRefresh() {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	startTime := time.Now()
	s.logger.Info("Starting scheduled heatmap refresh", zap.Time("start_time", startTime))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	hm, err := s.refresher.Refresh(ctx)

	s.mu.Lock()
	s.lastError = err
	s.runs++
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled heatmap refresh failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
		return
	}
	s.logger.Info("Scheduled heatmap refresh completed",
		zap.Int("locations", len(hm.Points)),
		zap.Int("failed", hm.Failed),
		zap.Duration("duration", time.Since(startTime)))
}

// Stop halts the schedule and waits for in-flight refreshes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering heatmap refresh")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runRefresh()
	}()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nextRun time.Time
	if s.running {
		nextRun = s.cron.Entry(s.entryID).Next
	}
	lastError := ""
	if s.lastError != nil {
		lastError = s.lastError.Error()
	}

	return map[string]interface{}{
		"running":    s.running,
		"schedule":   s.schedule,
		"last_run":   s.lastRun,
		"next_run":   nextRun,
		"runs":       s.runs,
		"last_error": lastError,
	}
}
