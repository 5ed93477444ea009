package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ShareStatus string

const (
	SharePending   ShareStatus = "PENDING"
	ShareAvailable ShareStatus = "AVAILABLE"
	ShareWithdrawn ShareStatus = "WITHDRAWN"
)

// RevenueShare is the platform/creator split of one order's proceeds for one
// creator. PlatformFee + CreatorRevenue always equals TotalAmount exactly;
// rounding remainders go to the platform fee. At most one row exists per
// (order, creator) pair.
type RevenueShare struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_revenue_order_creator"`
	CreatorID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_revenue_order_creator;index"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	PlatformFee     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatorRevenue  decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Status          ShareStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	SettledAt       *time.Time
	WithdrawnAt     *time.Time
	WithdrawMethod  string
	WithdrawAccount string
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (share *RevenueShare) BeforeCreate(tx *gorm.DB) (err error) {
	if share.ID == uuid.Nil {
		share.ID = uuid.New()
	}
	return
}
