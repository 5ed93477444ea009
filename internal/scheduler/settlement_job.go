package scheduler

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/config"
	"github.com/raffialdn/karyapay/internal/logger"
	"github.com/raffialdn/karyapay/internal/models"
)

// SettlementJob promotes revenue shares from PENDING to AVAILABLE once they
// have survived the holding period. Until then the money counts toward the
// creator's balance but cannot be withdrawn.
type SettlementJob struct {
	db     *gorm.DB
	config *config.SettlementConfig
}

func NewSettlementJob(db *gorm.DB, cfg *config.SettlementConfig) *SettlementJob {
	return &SettlementJob{db: db, config: cfg}
}

func (j *SettlementJob) GetName() string {
	return "revenue_share_settlement"
}

func (j *SettlementJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.IntervalMinutes) * time.Minute)
}

func (j *SettlementJob) Execute() {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -j.config.HoldDays)

	result := j.db.Model(&models.RevenueShare{}).
		Where("status = ? AND created_at <= ?", models.SharePending, cutoff).
		Updates(map[string]interface{}{
			"status":     models.ShareAvailable,
			"settled_at": &now,
		})
	if result.Error != nil {
		logger.L().Error("settlement promotion failed", zap.Error(result.Error))
		return
	}

	if result.RowsAffected > 0 {
		logger.L().Info("revenue shares settled",
			zap.Int64("count", result.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
}
