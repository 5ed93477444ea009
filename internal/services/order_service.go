package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/models"
)

type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// newExternalID builds the invoice reference handed to the payment provider.
// It comes back verbatim on webhooks and is the idempotency key there.
func newExternalID() string {
	return fmt.Sprintf("INV-%d-%s", time.Now().Unix(),
		strings.ToUpper(uuid.New().String()[:8]))
}

// PlaceOrder creates the order, its line items, and the PENDING payment
// transaction the provider webhook will later reference. Prices are
// snapshotted from the products at this moment.
func PlaceOrder(db *gorm.DB, buyerID uuid.UUID, lines []OrderLine, provider, method, currency string) (*models.Order, *models.PaymentTransaction, error) {
	if len(lines) == 0 {
		return nil, nil, ErrInvalidPayload
	}

	var order models.Order
	var pt models.PaymentTransaction

	err := db.Transaction(func(tx *gorm.DB) error {
		total := decimal.Zero
		var items []models.OrderItem

		for _, line := range lines {
			if line.Quantity < 1 {
				return ErrInvalidPayload
			}
			var product models.Product
			if err := tx.Where("id = ?", line.ProductID).First(&product).Error; err != nil {
				return err
			}
			subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				CreatorID: product.CreatorID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price,
				Subtotal:  subtotal,
			})
			total = total.Add(subtotal)
		}

		order = models.Order{
			BuyerID:     buyerID,
			TotalAmount: total,
			Currency:    currency,
			Status:      models.OrderPending,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		order.Items = items

		pt = models.PaymentTransaction{
			OrderID:    order.ID,
			Amount:     total,
			Currency:   currency,
			Method:     method,
			Provider:   provider,
			ExternalID: newExternalID(),
			Status:     models.PaymentPending,
		}
		return tx.Create(&pt).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrInvalidPayload) {
			return nil, nil, err
		}
		return nil, nil, storeError(err)
	}

	return &order, &pt, nil
}

// CancelOrder cancels a PENDING order. An order with a completed payment can
// never be cancelled; that has to go through a refund instead.
func CancelOrder(db *gorm.DB, orderID, buyerID uuid.UUID) (*models.Order, error) {
	var order models.Order

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("id = ? AND buyer_id = ?", orderID, buyerID).
			First(&order).Error; err != nil {
			return err
		}

		var completed int64
		if err := tx.Model(&models.PaymentTransaction{}).
			Where("order_id = ? AND status = ?", orderID, models.PaymentCompleted).
			Count(&completed).Error; err != nil {
			return err
		}
		if completed > 0 {
			return ErrInvalidStateTransition
		}

		if !order.Status.CanTransitionTo(models.OrderCancelled) {
			return ErrInvalidStateTransition
		}

		if err := tx.Model(&order).Update("status", models.OrderCancelled).Error; err != nil {
			return err
		}
		order.Status = models.OrderCancelled

		// Open payment attempts on the order die with it.
		return tx.Model(&models.PaymentTransaction{}).
			Where("order_id = ? AND status IN ?", orderID,
				[]models.PaymentStatus{models.PaymentPending, models.PaymentProcessing}).
			Update("status", models.PaymentCancelled).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrInvalidStateTransition) {
			return nil, err
		}
		return nil, storeError(err)
	}

	return &order, nil
}
