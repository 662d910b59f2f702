package app

import (
	"context"
	"sync"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/notify"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
	"go.uber.org/zap"
)

// SchedulerConfig интервалы фоновых задач
type SchedulerConfig struct {
	SlotGenerationInterval time.Duration
	SlotWeeksAhead         int
	DispatchInterval       time.Duration
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	slotService *service.SlotService
	dispatcher  *notify.Dispatcher
	cfg         SchedulerConfig
	logger      *zap.Logger
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// NewScheduler создаёт новый планировщик
func NewScheduler(slotService *service.SlotService, dispatcher *notify.Dispatcher, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		slotService: slotService,
		dispatcher:  dispatcher,
		cfg:         cfg,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	s.wg.Add(2)
	go s.runTask(ctx, "slot generation", s.cfg.SlotGenerationInterval, s.generateSlots)
	go s.runTask(ctx, "alert dispatch", s.cfg.DispatchInterval, s.dispatchAlerts)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

// runTask выполняет задачу сразу при старте и затем по тикеру
func (s *Scheduler) runTask(ctx context.Context, name string, interval time.Duration, task func(context.Context)) {
	defer s.wg.Done()

	task(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			task(ctx)
		case <-s.stopChan:
			s.logger.Info("Background task stopped", zap.String("task", name))
			return
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", name))
			return
		}
	}
}

// generateSlots генерирует слоты для всех активных recurring schedules
func (s *Scheduler) generateSlots(ctx context.Context) {
	created, err := s.slotService.GenerateSlotsForAllRecurringSchedules(ctx, s.cfg.SlotWeeksAhead)
	if err != nil {
		s.logger.Error("Failed to generate slots", zap.Error(err))
		return
	}

	s.logger.Info("Automatic slot generation completed", zap.Int("created", created))
}

// dispatchAlerts отправляет накопившиеся оповещения
func (s *Scheduler) dispatchAlerts(ctx context.Context) {
	if _, err := s.dispatcher.Dispatch(ctx); err != nil {
		s.logger.Error("Failed to dispatch alerts", zap.Error(err))
	}
}
