package providers

import (
	"crypto/hmac"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// XenditAdapter handles Xendit invoice callbacks. Xendit authenticates
// deliveries with a shared callback token header rather than a body
// signature.
type XenditAdapter struct {
	CallbackToken string
}

func (a *XenditAdapter) Name() string { return "xendit" }

func (a *XenditAdapter) HasSignature(header http.Header) bool {
	return header.Get("X-Callback-Token") != ""
}

func (a *XenditAdapter) Verify(raw []byte, header http.Header) bool {
	got := header.Get("X-Callback-Token")
	if got == "" || a.CallbackToken == "" {
		return false
	}
	return hmac.Equal([]byte(a.CallbackToken), []byte(got))
}

type xenditCallback struct {
	ID            string           `json:"id"`
	ExternalID    string           `json:"external_id"`
	Status        string           `json:"status"`
	Amount        *decimal.Decimal `json:"amount"`
	PaidAmount    *decimal.Decimal `json:"paid_amount"`
	Currency      string           `json:"currency"`
	PaymentMethod string           `json:"payment_method"`
	FailureCode   string           `json:"failure_code"`
}

func (a *XenditAdapter) Parse(raw []byte) (*Event, error) {
	var cb xenditCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, err
	}

	// paid_amount is what the payer actually settled; it wins over the
	// invoice amount when the callback carries it. Either field present,
	// including an explicit zero, counts as a declared amount.
	amount := cb.Amount
	if cb.PaidAmount != nil {
		amount = cb.PaidAmount
	}

	event := &Event{
		ExternalID:    cb.ExternalID,
		RawStatus:     cb.Status,
		Currency:      cb.Currency,
		PaymentMethod: cb.PaymentMethod,
		FailureReason: cb.FailureCode,
	}
	if amount != nil {
		event.Amount = *amount
		event.HasAmount = true
	}

	switch strings.ToUpper(cb.Status) {
	case "PAID", "SETTLED":
		event.Outcome = OutcomeSuccess
	case "PENDING":
		event.Outcome = OutcomePending
	case "EXPIRED":
		event.Outcome = OutcomeExpired
	default:
		event.Outcome = OutcomeFailed
		if event.FailureReason == "" {
			event.FailureReason = cb.Status
		}
	}

	return event, nil
}
