package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	Title       string          `gorm:"not null"`
	Description string          `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatorID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Creator     User            `gorm:"foreignKey:CreatorID"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return
}
