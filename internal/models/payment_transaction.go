package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentProcessing: {PaymentCompleted, PaymentFailed, PaymentCancelled},
	PaymentCompleted:  {PaymentRefunded},
}

// IsTerminal reports whether webhook processing may still move the
// transaction. Terminal states make every further delivery a no-op.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentTransaction is one payment attempt against an order. The provider's
// ExternalID is the idempotency key for webhook deduplication; a transaction
// is immutable once it reaches a terminal state.
type PaymentTransaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Order          Order           `gorm:"foreignKey:OrderID"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Currency       string          `gorm:"not null;default:'IDR'"`
	Method         string          `gorm:"not null"`
	Provider       string          `gorm:"not null;index"`
	ExternalID     string          `gorm:"not null;uniqueIndex"`
	Status         PaymentStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ExternalStatus string
	PayURL         string `gorm:"type:text"`
	FailureReason  string
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (pt *PaymentTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	return
}
