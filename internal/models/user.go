package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"not null"`
	Email       string    `gorm:"unique;not null"`
	Password    string    `gorm:"not null"`
	PhoneNumber string
	RoleID      uuid.UUID
	Role        Role
	// Balance is the creator's running ledger total, incremented when a
	// revenue share is created and decremented when it is withdrawn. The
	// RevenueShare rows remain the system of record.
	Balance decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}
