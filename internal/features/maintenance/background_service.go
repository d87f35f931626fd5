package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kanban/internal/config"
	"kanban/internal/features/events"
	"kanban/internal/features/ordering"
	"kanban/internal/storage"
)

// SweeperBackgroundService periodically removes rows whose parent is gone and
// renumbers the boards it touched. Cascades are best effort, so on document
// backends a failed cascade step is only reconciled here.
type SweeperBackgroundService struct {
	store     storage.Store
	engine    *ordering.Engine
	publisher events.Publisher
	interval  time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSweeperBackgroundService(
	store storage.Store,
	engine *ordering.Engine,
	publisher events.Publisher,
	interval time.Duration,
	logger *slog.Logger,
) *SweeperBackgroundService {
	return &SweeperBackgroundService{
		store:     store,
		engine:    engine,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

// StartWorkers does nothing for a non-positive interval.
func (s *SweeperBackgroundService) StartWorkers() {
	if s.interval <= 0 {
		s.logger.Warn("Orphan sweeper disabled", slog.Duration("interval", s.interval))
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("Starting orphan sweeper", slog.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.sweepWorker()
}

// Stop cancels the worker and waits for the current sweep to finish.
func (s *SweeperBackgroundService) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	s.wg.Wait()
}

func (s *SweeperBackgroundService) ExecuteAllTasksForTest() (*SweepReport, error) {
	report, err := s.Sweep(context.Background())
	if err != nil {
		s.logger.Error("Error during orphan sweep in test execution", slog.String("error", err.Error()))
		return report, err
	}

	return report, nil
}

func (s *SweeperBackgroundService) sweepWorker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if config.IsShouldShutdown() {
			s.logger.Info("Orphan sweeper shutting down due to shutdown signal")
			return
		}

		select {
		case <-s.ctx.Done():
			s.logger.Info("Orphan sweeper shutting down")
			return

		case <-ticker.C:
			if _, err := s.Sweep(s.ctx); err != nil {
				s.logger.Error("Error during orphan sweep", slog.String("error", err.Error()))
			}
		}
	}
}
