package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/models"
)

type WithdrawalResult struct {
	WithdrawalID     uuid.UUID
	RequestedAmount  decimal.Decimal
	ClaimedAmount    decimal.Decimal
	ClaimedShareIDs  []uuid.UUID
	RemainingBalance decimal.Decimal
}

// planClaim greedily accumulates shares, oldest first, until their summed
// creator revenue covers amount. Shares are claimed whole: the claimed sum
// may overshoot the request by up to the last share. Returns false when the
// available rows cannot cover the request; available then holds their total.
func planClaim(shares []models.RevenueShare, amount decimal.Decimal) (claimed []models.RevenueShare, sum decimal.Decimal, ok bool) {
	sum = decimal.Zero
	for _, share := range shares {
		if sum.GreaterThanOrEqual(amount) {
			break
		}
		claimed = append(claimed, share)
		sum = sum.Add(share.CreatorRevenue)
	}
	if sum.LessThan(amount) {
		return nil, sum, false
	}
	return claimed, sum, true
}

// Withdraw atomically marks whole AVAILABLE revenue-share rows of a creator
// as WITHDRAWN to satisfy a payout request. Concurrent requests for the same
// creator serialize on the row locks taken by the select, so a share can
// never be claimed twice.
func Withdraw(db *gorm.DB, creatorID uuid.UUID, amount decimal.Decimal, method, account string) (*WithdrawalResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPayload
	}

	var result *WithdrawalResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var shares []models.RevenueShare
		if err := lockForUpdate(tx).
			Where("creator_id = ? AND status = ?", creatorID, models.ShareAvailable).
			Order("created_at ASC").
			Find(&shares).Error; err != nil {
			return err
		}

		claimed, sum, ok := planClaim(shares, amount)
		if !ok {
			return &InsufficientBalanceError{Available: sum}
		}

		now := time.Now()
		ids := make([]uuid.UUID, 0, len(claimed))
		for _, share := range claimed {
			ids = append(ids, share.ID)
		}

		if err := tx.Model(&models.RevenueShare{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"status":           models.ShareWithdrawn,
				"withdrawn_at":     &now,
				"withdraw_method":  method,
				"withdraw_account": account,
			}).Error; err != nil {
			return err
		}

		// The ledger balance moves by the claimed sum, not the requested
		// amount.
		if err := tx.Model(&models.User{}).Where("id = ?", creatorID).
			Update("balance", gorm.Expr("balance - ?", sum)).Error; err != nil {
			return err
		}

		wd := models.Withdrawal{
			CreatorID:       creatorID,
			RequestedAmount: amount,
			ClaimedAmount:   sum,
			Method:          method,
			Account:         account,
			ShareCount:      len(claimed),
		}
		if err := tx.Create(&wd).Error; err != nil {
			return err
		}

		var creator models.User
		if err := tx.Where("id = ?", creatorID).First(&creator).Error; err != nil {
			return err
		}

		result = &WithdrawalResult{
			WithdrawalID:     wd.ID,
			RequestedAmount:  amount,
			ClaimedAmount:    sum,
			ClaimedShareIDs:  ids,
			RemainingBalance: creator.Balance,
		}
		return nil
	})
	if err != nil {
		var insufficient *InsufficientBalanceError
		if errors.As(err, &insufficient) {
			return nil, insufficient
		}
		return nil, storeError(err)
	}

	return result, nil
}
