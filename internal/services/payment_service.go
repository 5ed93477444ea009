package services

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/logger"
	"github.com/raffialdn/karyapay/internal/models"
	"github.com/raffialdn/karyapay/internal/providers"
)

type WebhookMeta struct {
	SourceIP  string
	UserAgent string
}

type WebhookResult struct {
	TransactionID uuid.UUID
	Status        models.PaymentStatus
	// Replayed is set when the transaction was already terminal and the
	// delivery was absorbed as a no-op.
	Replayed bool
}

// targetStatus maps a normalized provider outcome onto the state the
// transaction should move to.
func targetStatus(outcome providers.Outcome) (models.PaymentStatus, bool) {
	switch outcome {
	case providers.OutcomeSuccess:
		return models.PaymentCompleted, true
	case providers.OutcomePending:
		return models.PaymentProcessing, true
	case providers.OutcomeFailed:
		return models.PaymentFailed, true
	case providers.OutcomeExpired:
		return models.PaymentCancelled, true
	}
	return "", false
}

// ProcessWebhook drives the payment transaction state machine for one
// provider delivery. Deliveries are at-least-once and unordered; the terminal
// check happens again under the row lock so a redelivery racing the original
// cannot apply twice.
func ProcessWebhook(db *gorm.DB, adapter providers.Adapter, raw []byte, header http.Header, meta WebhookMeta) (*WebhookResult, error) {
	if !adapter.HasSignature(header) {
		logger.L().Warn("webhook rejected: signature missing",
			zap.String("provider", adapter.Name()),
			zap.String("source_ip", meta.SourceIP))
		return nil, ErrInvalidSignature
	}

	event, err := adapter.Parse(raw)
	if err != nil || event.ExternalID == "" {
		logger.L().Warn("webhook rejected: unparseable payload",
			zap.String("provider", adapter.Name()),
			zap.String("source_ip", meta.SourceIP),
			zap.Error(err))
		return nil, ErrInvalidPayload
	}

	var pt models.PaymentTransaction
	if err := db.Where("external_id = ? AND provider = ?", event.ExternalID, adapter.Name()).First(&pt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Transactions are created at checkout time only; a webhook
			// must never create one.
			logger.L().Warn("webhook rejected: unknown external id",
				zap.String("provider", adapter.Name()),
				zap.String("external_id", event.ExternalID),
				zap.String("source_ip", meta.SourceIP))
			return nil, ErrPaymentNotFound
		}
		return nil, storeError(err)
	}

	if !adapter.Verify(raw, header) {
		appendEvent(db, pt.ID, "webhook.invalid_signature", raw, meta, true)
		return nil, ErrInvalidSignature
	}

	if event.Outcome == providers.OutcomeSuccess && event.HasAmount &&
		!providers.AmountMatches(event.Amount, pt.Amount) {
		appendEvent(db, pt.ID, "webhook.amount_mismatch", raw, meta, true)
		return nil, ErrAmountMismatch
	}

	result := &WebhookResult{TransactionID: pt.ID}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Re-read under lock: the status may have changed between the
		// lookup above and now.
		var locked models.PaymentTransaction
		if err := lockForUpdate(tx).
			Where("id = ?", pt.ID).First(&locked).Error; err != nil {
			return err
		}

		if locked.Status.IsTerminal() {
			result.Status = locked.Status
			result.Replayed = true
			return insertEvent(tx, locked.ID, "webhook."+string(event.Outcome), raw, meta, false)
		}

		target, ok := targetStatus(event.Outcome)
		if !ok {
			return ErrInvalidPayload
		}

		if target != locked.Status {
			if !locked.Status.CanTransitionTo(target) {
				return ErrInvalidStateTransition
			}

			updates := map[string]interface{}{
				"status":          target,
				"external_status": event.RawStatus,
			}
			if target == models.PaymentCompleted {
				now := time.Now()
				updates["paid_at"] = &now
			}
			if event.FailureReason != "" {
				updates["failure_reason"] = event.FailureReason
			}
			if err := tx.Model(&locked).Updates(updates).Error; err != nil {
				return err
			}

			if target == models.PaymentCompleted {
				if err := confirmAndAllocate(tx, locked.OrderID); err != nil {
					return err
				}
			}
		}

		result.Status = target
		return insertEvent(tx, locked.ID, "webhook."+string(event.Outcome), raw, meta, false)
	})

	if err != nil {
		if errors.Is(err, ErrInvalidStateTransition) || errors.Is(err, ErrInvalidPayload) {
			appendEvent(db, pt.ID, "webhook.rejected_transition", raw, meta, true)
			return nil, err
		}
		return nil, storeError(err)
	}

	return result, nil
}

// confirmAndAllocate moves the owning order to CONFIRMED and materializes the
// revenue split. It runs inside the payment commit transaction; the
// allocation itself is idempotent per (order, creator).
func confirmAndAllocate(tx *gorm.DB, orderID uuid.UUID) error {
	var order models.Order
	if err := lockForUpdate(tx).
		Where("id = ?", orderID).First(&order).Error; err != nil {
		return err
	}

	if order.Status == models.OrderPending {
		if err := tx.Model(&order).Update("status", models.OrderConfirmed).Error; err != nil {
			return err
		}
	}

	_, err := allocateRevenue(tx, &order)
	return err
}

func insertEvent(tx *gorm.DB, paymentTransactionID uuid.UUID, eventType string, raw []byte, meta WebhookMeta, suspicious bool) error {
	return tx.Create(&models.PaymentEvent{
		PaymentTransactionID: paymentTransactionID,
		EventType:            eventType,
		Payload:              string(raw),
		SourceIP:             meta.SourceIP,
		UserAgent:            meta.UserAgent,
		Suspicious:           suspicious,
	}).Error
}

// appendEvent records an audit row outside the main transaction, for
// deliveries rejected before (or instead of) a state change. Best effort: a
// failed audit write is logged, not surfaced.
func appendEvent(db *gorm.DB, paymentTransactionID uuid.UUID, eventType string, raw []byte, meta WebhookMeta, suspicious bool) {
	if err := insertEvent(db, paymentTransactionID, eventType, raw, meta, suspicious); err != nil {
		logger.L().Error("failed to append payment event",
			zap.String("payment_transaction_id", paymentTransactionID.String()),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
