package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/helpers"
	"github.com/raffialdn/karyapay/internal/models"
	"github.com/raffialdn/karyapay/internal/services"
)

type WithdrawalRequest struct {
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Method  string          `json:"method" binding:"required"`
	Account string          `json:"account" binding:"required"`
}

func CreateWithdrawal(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	result, err := services.Withdraw(gormDB, userID.(uuid.UUID), req.Amount, req.Method, req.Account)
	if err != nil {
		var insufficient *services.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             http.StatusText(http.StatusBadRequest),
				"message":           "Insufficient available balance.",
				"available_balance": insufficient.Available,
			})
			return
		}
		if errors.Is(err, services.ErrInvalidPayload) {
			helpers.RespondWithError(c, http.StatusBadRequest, "Amount must be greater than zero.")
			return
		}
		if services.IsTransient(err) {
			helpers.RespondWithError(c, http.StatusServiceUnavailable, "Please retry shortly.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to process withdrawal.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"withdrawal_id":     result.WithdrawalID,
		"requested_amount":  result.RequestedAmount,
		"claimed_amount":    result.ClaimedAmount,
		"claimed_share_ids": result.ClaimedShareIDs,
		"remaining_balance": result.RemainingBalance,
	})
}

func ListWithdrawals(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var withdrawals []models.Withdrawal
	if err := gormDB.Where("creator_id = ?", userID).
		Order("created_at DESC").Find(&withdrawals).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving withdrawals.")
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}

func ListRevenueShares(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	query := gormDB.Where("creator_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var shares []models.RevenueShare
	if err := query.Order("created_at DESC").Find(&shares).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving revenue shares.")
		return
	}

	c.JSON(http.StatusOK, shares)
}

// GetBalance returns both the maintained ledger counter and the sums
// recomputed from the share rows, so a drifted counter is visible.
func GetBalance(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var user models.User
	if err := gormDB.First(&user, userID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
		return
	}

	sumByStatus := func(status models.ShareStatus) decimal.Decimal {
		var raw decimal.NullDecimal
		gormDB.Model(&models.RevenueShare{}).
			Where("creator_id = ? AND status = ?", userID, status).
			Select("SUM(creator_revenue)").Scan(&raw)
		if !raw.Valid {
			return decimal.Zero
		}
		return raw.Decimal
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":           user.Balance,
		"pending_revenue":   sumByStatus(models.SharePending),
		"available_revenue": sumByStatus(models.ShareAvailable),
	})
}
