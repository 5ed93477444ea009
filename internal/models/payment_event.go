package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentEvent is the append-only audit trail of webhook deliveries. Rows are
// written for every delivery, including replays and rejected ones, and are
// never updated or deleted.
type PaymentEvent struct {
	ID                   uuid.UUID `gorm:"type:uuid;primary_key"`
	PaymentTransactionID uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType            string    `gorm:"not null"`
	Payload              string    `gorm:"type:text;not null"`
	SourceIP             string
	UserAgent            string
	Suspicious           bool      `gorm:"not null;default:false"`
	CreatedAt            time.Time `gorm:"index"`
}

func (event *PaymentEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
