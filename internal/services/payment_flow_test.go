package services

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/models"
	"github.com/raffialdn/karyapay/internal/providers"
)

// fakeAdapter stands in for a payment provider so webhook processing can be
// driven against a real database without signing real payloads.
type fakeAdapter struct {
	event    providers.Event
	verified bool
}

func (a *fakeAdapter) Name() string                    { return "fake" }
func (a *fakeAdapter) HasSignature(http.Header) bool   { return true }
func (a *fakeAdapter) Verify([]byte, http.Header) bool { return a.verified }

func (a *fakeAdapter) Parse([]byte) (*providers.Event, error) {
	event := a.event
	return &event, nil
}

func successAdapter(externalID string, amount decimal.Decimal) *fakeAdapter {
	return &fakeAdapter{
		verified: true,
		event: providers.Event{
			ExternalID: externalID,
			Outcome:    providers.OutcomeSuccess,
			RawStatus:  "PAID",
			Amount:     amount,
			HasAmount:  true,
		},
	}
}

func deliver(t *testing.T, db *gorm.DB, adapter providers.Adapter) (*WebhookResult, error) {
	t.Helper()
	return ProcessWebhook(db, adapter, []byte(`{"delivery":"test"}`), http.Header{}, WebhookMeta{SourceIP: "10.0.0.1"})
}

func countEvents(t *testing.T, db *gorm.DB, pt models.PaymentTransaction) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.PaymentEvent{}).
		Where("payment_transaction_id = ?", pt.ID).Count(&n).Error)
	return n
}

func TestProcessWebhookCompletesAndAllocates(t *testing.T) {
	t.Setenv("PLATFORM_FEE_RATIO", "0.5")
	db := newTestDB(t)

	buyer := createUser(t, db, "buyer")
	creator := createUser(t, db, "creator")
	order, pt := createPendingPayment(t, db, buyer.ID, creator.ID, "INV-1")

	result, err := deliver(t, db, successAdapter("INV-1", dec("100.00")))
	require.NoError(t, err)
	assert.Equal(t, pt.ID, result.TransactionID)
	assert.Equal(t, models.PaymentCompleted, result.Status)
	assert.False(t, result.Replayed)

	var gotPT models.PaymentTransaction
	require.NoError(t, db.First(&gotPT, "id = ?", pt.ID).Error)
	assert.Equal(t, models.PaymentCompleted, gotPT.Status)
	assert.Equal(t, "PAID", gotPT.ExternalStatus)
	require.NotNil(t, gotPT.PaidAt)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderConfirmed, gotOrder.Status)

	var shares []models.RevenueShare
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&shares).Error)
	require.Len(t, shares, 1)
	assert.Equal(t, creator.ID, shares[0].CreatorID)
	assert.True(t, shares[0].TotalAmount.Equal(dec("100.00")))
	assert.True(t, shares[0].PlatformFee.Equal(dec("50.00")))
	assert.True(t, shares[0].CreatorRevenue.Equal(dec("50.00")))
	assert.Equal(t, models.SharePending, shares[0].Status)

	var gotCreator models.User
	require.NoError(t, db.First(&gotCreator, "id = ?", creator.ID).Error)
	assert.True(t, gotCreator.Balance.Equal(dec("50.00")))

	assert.Equal(t, int64(1), countEvents(t, db, pt))
}

func TestProcessWebhookRedeliveryIsNoOp(t *testing.T) {
	t.Setenv("PLATFORM_FEE_RATIO", "0.5")
	db := newTestDB(t)

	buyer := createUser(t, db, "buyer")
	creator := createUser(t, db, "creator")
	order, pt := createPendingPayment(t, db, buyer.ID, creator.ID, "INV-1")

	adapter := successAdapter("INV-1", dec("100.00"))

	first, err := deliver(t, db, adapter)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	// Same delivery again: absorbed without a second transition, a second
	// allocation, or a second balance bump. Only the audit trail grows.
	second, err := deliver(t, db, adapter)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, models.PaymentCompleted, second.Status)

	var shareCount int64
	require.NoError(t, db.Model(&models.RevenueShare{}).
		Where("order_id = ?", order.ID).Count(&shareCount).Error)
	assert.Equal(t, int64(1), shareCount)

	var gotCreator models.User
	require.NoError(t, db.First(&gotCreator, "id = ?", creator.ID).Error)
	assert.True(t, gotCreator.Balance.Equal(dec("50.00")))

	assert.Equal(t, int64(2), countEvents(t, db, pt))
}

func TestProcessWebhookSecondCompletedPaymentAllocatesOnce(t *testing.T) {
	t.Setenv("PLATFORM_FEE_RATIO", "0.5")
	db := newTestDB(t)

	buyer := createUser(t, db, "buyer")
	creator := createUser(t, db, "creator")
	order, _ := createPendingPayment(t, db, buyer.ID, creator.ID, "INV-1")

	// A retried checkout can leave a second open transaction on the order.
	retry := models.PaymentTransaction{
		OrderID:    order.ID,
		Amount:     dec("100.00"),
		Currency:   "IDR",
		Method:     "VIRTUAL_ACCOUNT",
		Provider:   "fake",
		ExternalID: "INV-2",
		Status:     models.PaymentPending,
	}
	require.NoError(t, db.Create(&retry).Error)

	_, err := deliver(t, db, successAdapter("INV-1", dec("100.00")))
	require.NoError(t, err)
	_, err = deliver(t, db, successAdapter("INV-2", dec("100.00")))
	require.NoError(t, err)

	var shareCount int64
	require.NoError(t, db.Model(&models.RevenueShare{}).
		Where("order_id = ?", order.ID).Count(&shareCount).Error)
	assert.Equal(t, int64(1), shareCount)

	var gotCreator models.User
	require.NoError(t, db.First(&gotCreator, "id = ?", creator.ID).Error)
	assert.True(t, gotCreator.Balance.Equal(dec("50.00")))

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderConfirmed, gotOrder.Status)
}

func TestProcessWebhookRejectsTamperedAmount(t *testing.T) {
	db := newTestDB(t)

	buyer := createUser(t, db, "buyer")
	creator := createUser(t, db, "creator")
	order, pt := createPendingPayment(t, db, buyer.ID, creator.ID, "INV-1")

	_, err := deliver(t, db, successAdapter("INV-1", dec("99.99")))
	assert.ErrorIs(t, err, ErrAmountMismatch)

	var gotPT models.PaymentTransaction
	require.NoError(t, db.First(&gotPT, "id = ?", pt.ID).Error)
	assert.Equal(t, models.PaymentPending, gotPT.Status)

	var shareCount int64
	require.NoError(t, db.Model(&models.RevenueShare{}).
		Where("order_id = ?", order.ID).Count(&shareCount).Error)
	assert.Equal(t, int64(0), shareCount)

	var event models.PaymentEvent
	require.NoError(t, db.Where("payment_transaction_id = ?", pt.ID).First(&event).Error)
	assert.Equal(t, "webhook.amount_mismatch", event.EventType)
	assert.True(t, event.Suspicious)
}

func TestProcessWebhookRejectsDeclaredZeroAmount(t *testing.T) {
	db := newTestDB(t)

	buyer := createUser(t, db, "buyer")
	creator := createUser(t, db, "creator")
	_, pt := createPendingPayment(t, db, buyer.ID, creator.ID, "INV-1")

	// "amount": 0 on a success callback is a declared amount, not a missing
	// one, and has to fail the match against the stored 100.00.
	_, err := deliver(t, db, successAdapter("INV-1", decimal.Zero))
	assert.ErrorIs(t, err, ErrAmountMismatch)

	var gotPT models.PaymentTransaction
	require.NoError(t, db.First(&gotPT, "id = ?", pt.ID).Error)
	assert.Equal(t, models.PaymentPending, gotPT.Status)
}

func TestProcessWebhookInvalidSignatureAudited(t *testing.T) {
	db := newTestDB(t)

	buyer := createUser(t, db, "buyer")
	creator := createUser(t, db, "creator")
	_, pt := createPendingPayment(t, db, buyer.ID, creator.ID, "INV-1")

	adapter := successAdapter("INV-1", dec("100.00"))
	adapter.verified = false

	_, err := deliver(t, db, adapter)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	var gotPT models.PaymentTransaction
	require.NoError(t, db.First(&gotPT, "id = ?", pt.ID).Error)
	assert.Equal(t, models.PaymentPending, gotPT.Status)

	var event models.PaymentEvent
	require.NoError(t, db.Where("payment_transaction_id = ?", pt.ID).First(&event).Error)
	assert.Equal(t, "webhook.invalid_signature", event.EventType)
	assert.True(t, event.Suspicious)
}

func TestProcessWebhookUnknownExternalID(t *testing.T) {
	db := newTestDB(t)

	_, err := deliver(t, db, successAdapter("INV-unknown", dec("100.00")))
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestProcessWebhookFailedOutcome(t *testing.T) {
	db := newTestDB(t)

	buyer := createUser(t, db, "buyer")
	creator := createUser(t, db, "creator")
	order, pt := createPendingPayment(t, db, buyer.ID, creator.ID, "INV-1")

	adapter := &fakeAdapter{
		verified: true,
		event: providers.Event{
			ExternalID:    "INV-1",
			Outcome:       providers.OutcomeFailed,
			RawStatus:     "FAILED",
			FailureReason: "EXPIRED_CARD",
		},
	}

	result, err := deliver(t, db, adapter)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, result.Status)

	var gotPT models.PaymentTransaction
	require.NoError(t, db.First(&gotPT, "id = ?", pt.ID).Error)
	assert.Equal(t, models.PaymentFailed, gotPT.Status)
	assert.Equal(t, "EXPIRED_CARD", gotPT.FailureReason)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderPending, gotOrder.Status)

	var shareCount int64
	require.NoError(t, db.Model(&models.RevenueShare{}).
		Where("order_id = ?", order.ID).Count(&shareCount).Error)
	assert.Equal(t, int64(0), shareCount)
}
