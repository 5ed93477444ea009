package scheduler

import (
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/config"
	"github.com/raffialdn/karyapay/internal/logger"
)

type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	config    *config.SettlementConfig
}

func NewManager(db *gorm.DB, cfg *config.SettlementConfig) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: s,
		db:        db,
		config:    cfg,
	}, nil
}

// Start registers the background jobs and runs the scheduler.
func Start(db *gorm.DB, cfg *config.SettlementConfig) (*Manager, error) {
	manager, err := NewManager(db, cfg)
	if err != nil {
		return nil, err
	}

	if err := manager.registerSettlementJob(); err != nil {
		return nil, err
	}

	manager.scheduler.Start()
	logger.L().Info("scheduler started",
		zap.Int("settlement_hold_days", cfg.HoldDays),
		zap.Int("interval_minutes", cfg.IntervalMinutes))
	return manager, nil
}

func (m *Manager) registerSettlementJob() error {
	job := NewSettlementJob(m.db, m.config)
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.L().Error("failed to shutdown scheduler", zap.Error(err))
	}
}
