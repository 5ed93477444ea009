package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/helpers"
	"github.com/raffialdn/karyapay/internal/providers"
	"github.com/raffialdn/karyapay/internal/services"
)

// PaymentWebhook receives provider callbacks. The body is read raw before
// anything parses it: provider signatures cover the exact bytes on the wire.
// Responses follow the redelivery convention: 2xx means "do not redeliver",
// 5xx asks the provider to retry, 4xx marks the payload permanently invalid.
func PaymentWebhook(registry *providers.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		adapter, ok := registry.Lookup(c.Param("provider"))
		if !ok {
			helpers.RespondWithError(c, http.StatusNotFound, "Unknown payment provider.")
			return
		}

		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Failed to read request body.")
			return
		}

		db, exists := c.Get("db")
		if !exists {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
			return
		}
		gormDB := db.(*gorm.DB)

		meta := services.WebhookMeta{
			SourceIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}

		result, err := services.ProcessWebhook(gormDB, adapter, raw, c.Request.Header, meta)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidSignature):
				helpers.RespondWithError(c, http.StatusForbidden, "Invalid signature.")
			case errors.Is(err, services.ErrPaymentNotFound):
				helpers.RespondWithError(c, http.StatusNotFound, "Payment transaction not found.")
			case errors.Is(err, services.ErrAmountMismatch):
				helpers.RespondWithError(c, http.StatusBadRequest, "Declared amount does not match.")
			case errors.Is(err, services.ErrInvalidPayload),
				errors.Is(err, services.ErrInvalidStateTransition):
				helpers.RespondWithError(c, http.StatusBadRequest, "Invalid payload.")
			case services.IsTransient(err):
				// Non-success asks the provider to redeliver.
				helpers.RespondWithError(c, http.StatusServiceUnavailable, "Temporary failure, please redeliver.")
			default:
				helpers.RespondWithError(c, http.StatusInternalServerError, "Webhook processing failed.")
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"payment_id": result.TransactionID,
			"status":     result.Status,
			"replayed":   result.Replayed,
		})
	}
}
