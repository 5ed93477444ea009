package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Withdrawal records one claim against a creator's available revenue shares.
// ClaimedAmount may exceed RequestedAmount by up to one share, since shares
// are claimed whole.
type Withdrawal struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	CreatorID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	RequestedAmount decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	ClaimedAmount   decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Method          string          `gorm:"not null"`
	Account         string          `gorm:"not null"`
	ShareCount      int             `gorm:"not null"`
	CreatedAt       time.Time
}

func (wd *Withdrawal) BeforeCreate(tx *gorm.DB) (err error) {
	if wd.ID == uuid.Nil {
		wd.ID = uuid.New()
	}
	return
}
