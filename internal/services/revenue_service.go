package services

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/models"
)

// splitRevenue computes the platform/creator split for one creator's
// subtotal. The creator side is derived by subtraction so the two parts
// always sum back to the subtotal exactly; rounding remainders land on the
// platform fee.
func splitRevenue(subtotal, feeRatio decimal.Decimal) (platformFee, creatorRevenue decimal.Decimal) {
	platformFee = subtotal.Mul(feeRatio).Round(2)
	creatorRevenue = subtotal.Sub(platformFee)
	return
}

// creatorSubtotals sums line-item subtotals per creator, returning creator
// ids in a deterministic order.
func creatorSubtotals(items []models.OrderItem) ([]uuid.UUID, map[uuid.UUID]decimal.Decimal) {
	subtotals := make(map[uuid.UUID]decimal.Decimal)
	var order []uuid.UUID
	for _, item := range items {
		if _, seen := subtotals[item.CreatorID]; !seen {
			order = append(order, item.CreatorID)
		}
		subtotals[item.CreatorID] = subtotals[item.CreatorID].Add(item.Subtotal)
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].String() < order[j].String()
	})
	return order, subtotals
}

// allocateRevenue materializes the revenue split for a paid order. It must be
// called inside the transaction that completed the payment: either every
// share row for the order is created together with the payment transition, or
// none are. Pairs that already have a share are skipped, so a duplicate
// completed payment on the same order cannot allocate twice.
func allocateRevenue(tx *gorm.DB, order *models.Order) ([]models.RevenueShare, error) {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return nil, err
	}

	feeRatio := PlatformFeeRatio()
	creators, subtotals := creatorSubtotals(items)

	var created []models.RevenueShare
	for _, creatorID := range creators {
		var existing models.RevenueShare
		err := tx.Where("order_id = ? AND creator_id = ?", order.ID, creatorID).
			First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		subtotal := subtotals[creatorID]
		platformFee, creatorRevenue := splitRevenue(subtotal, feeRatio)

		share := models.RevenueShare{
			OrderID:        order.ID,
			CreatorID:      creatorID,
			TotalAmount:    subtotal,
			PlatformFee:    platformFee,
			CreatorRevenue: creatorRevenue,
			Status:         models.SharePending,
		}
		if err := tx.Create(&share).Error; err != nil {
			return nil, err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", creatorID).
			Update("balance", gorm.Expr("balance + ?", creatorRevenue)).Error; err != nil {
			return nil, err
		}

		created = append(created, share)
	}

	return created, nil
}
