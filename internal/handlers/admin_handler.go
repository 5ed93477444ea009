package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/helpers"
	"github.com/raffialdn/karyapay/internal/models"
)

// ListPaymentEvents exposes the append-only webhook audit trail for one
// payment transaction.
func ListPaymentEvents(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid payment transaction ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var pt models.PaymentTransaction
	if err := gormDB.Where("id = ?", paymentID).First(&pt).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Payment transaction not found.")
		return
	}

	var events []models.PaymentEvent
	if err := gormDB.Where("payment_transaction_id = ?", paymentID).
		Order("created_at ASC").Find(&events).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving payment events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id":      pt.ID,
		"external_id":     pt.ExternalID,
		"current_status":  pt.Status,
		"external_status": pt.ExternalStatus,
		"events":          events,
	})
}
