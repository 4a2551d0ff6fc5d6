package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/slot_swap/internal/model"
	"go.uber.org/zap"
)

// PendingAuditor проверяет инвариант SWAP_PENDING
type PendingAuditor interface {
	AuditPending(ctx context.Context, repair bool) ([]*model.Slot, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	auditor  PendingAuditor
	interval time.Duration
	repair   bool
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	started  bool
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(auditor PendingAuditor, interval time.Duration, repair bool, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		auditor:  auditor,
		interval: interval,
		repair:   repair,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("audit_interval", s.interval),
		zap.Bool("audit_repair", s.repair),
	)

	s.started = true
	go s.runAuditTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	if s.started {
		<-s.done
	}
}

// runAuditTask периодически ищет слоты, застрявшие в SWAP_PENDING
func (s *Scheduler) runAuditTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.audit(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.audit(ctx)
		case <-s.stopChan:
			s.logger.Info("Pending audit task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Pending audit task cancelled")
			return
		}
	}
}

func (s *Scheduler) audit(ctx context.Context) {
	slots, err := s.auditor.AuditPending(ctx, s.repair)
	if err != nil {
		s.logger.Error("Pending audit failed", zap.Error(err))
		return
	}

	for _, slot := range slots {
		s.logger.Warn("Slot pending without a live swap request",
			zap.Stringer("slot_id", slot.ID),
			zap.Stringer("owner_id", slot.OwnerID),
			zap.Bool("released", s.repair),
		)
	}
}
