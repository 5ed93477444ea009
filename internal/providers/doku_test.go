package providers

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dokuNotifyBody = `{
	"order": {"invoice_number": "INV-1700000000-AB12CD34", "amount": 100.00},
	"transaction": {"status": "SUCCESS", "date": "2024-01-15T10:00:00Z"},
	"channel": {"id": "VIRTUAL_ACCOUNT_BCA"}
}`

func signedDokuHeaders(signer DokuSigner, target string, body []byte) http.Header {
	requestID := "req-123"
	requestTimestamp := "2024-01-15T10:00:05Z"
	digest := signer.Digest(body)

	header := http.Header{}
	header.Set("Client-Id", signer.ClientID)
	header.Set("Request-Id", requestID)
	header.Set("Request-Timestamp", requestTimestamp)
	header.Set("Digest", digest)
	header.Set("Signature", signer.Signature(requestID, requestTimestamp, target, digest))
	return header
}

func TestDokuVerifyValidSignature(t *testing.T) {
	signer := DokuSigner{ClientID: "client-1", SecretKey: "secret-1"}
	adapter := &DokuAdapter{Signer: signer, NotifyTarget: "/v1/webhooks/doku"}

	body := []byte(dokuNotifyBody)
	header := signedDokuHeaders(signer, "/v1/webhooks/doku", body)

	assert.True(t, adapter.HasSignature(header))
	assert.True(t, adapter.Verify(body, header))
}

func TestDokuVerifyTamperedBody(t *testing.T) {
	signer := DokuSigner{ClientID: "client-1", SecretKey: "secret-1"}
	adapter := &DokuAdapter{Signer: signer, NotifyTarget: "/v1/webhooks/doku"}

	body := []byte(dokuNotifyBody)
	header := signedDokuHeaders(signer, "/v1/webhooks/doku", body)

	tampered := []byte(`{"order": {"invoice_number": "INV-1700000000-AB12CD34", "amount": 1.00},
		"transaction": {"status": "SUCCESS"}}`)
	assert.False(t, adapter.Verify(tampered, header))
}

func TestDokuVerifyWrongSecret(t *testing.T) {
	signer := DokuSigner{ClientID: "client-1", SecretKey: "secret-1"}
	body := []byte(dokuNotifyBody)
	header := signedDokuHeaders(DokuSigner{ClientID: "client-1", SecretKey: "other"}, "/v1/webhooks/doku", body)

	adapter := &DokuAdapter{Signer: signer, NotifyTarget: "/v1/webhooks/doku"}
	assert.False(t, adapter.Verify(body, header))
}

func TestDokuVerifyMissingSignature(t *testing.T) {
	adapter := &DokuAdapter{
		Signer:       DokuSigner{ClientID: "client-1", SecretKey: "secret-1"},
		NotifyTarget: "/v1/webhooks/doku",
	}

	header := http.Header{}
	assert.False(t, adapter.HasSignature(header))
	assert.False(t, adapter.Verify([]byte(dokuNotifyBody), header))
}

func TestDokuParse(t *testing.T) {
	adapter := &DokuAdapter{}

	event, err := adapter.Parse([]byte(dokuNotifyBody))
	require.NoError(t, err)

	assert.Equal(t, "INV-1700000000-AB12CD34", event.ExternalID)
	assert.Equal(t, OutcomeSuccess, event.Outcome)
	assert.Equal(t, "SUCCESS", event.RawStatus)
	assert.True(t, event.HasAmount)
	assert.True(t, event.Amount.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, "VIRTUAL_ACCOUNT_BCA", event.PaymentMethod)
}

func TestDokuParseDeclaredZeroAmount(t *testing.T) {
	adapter := &DokuAdapter{}

	body := []byte(`{"order": {"invoice_number": "INV-1", "amount": 0}, "transaction": {"status": "SUCCESS"}}`)
	event, err := adapter.Parse(body)
	require.NoError(t, err)

	assert.True(t, event.HasAmount)
	assert.True(t, event.Amount.IsZero())
	assert.False(t, AmountMatches(event.Amount, decimal.RequireFromString("100.00")))
}

func TestDokuParseMissingAmount(t *testing.T) {
	adapter := &DokuAdapter{}

	body := []byte(`{"order": {"invoice_number": "INV-1"}, "transaction": {"status": "SUCCESS"}}`)
	event, err := adapter.Parse(body)
	require.NoError(t, err)

	assert.False(t, event.HasAmount)
}

func TestDokuParseOutcomes(t *testing.T) {
	tests := []struct {
		status  string
		outcome Outcome
	}{
		{"SUCCESS", OutcomeSuccess},
		{"PENDING", OutcomePending},
		{"EXPIRED", OutcomeExpired},
		{"FAILED", OutcomeFailed},
		{"DECLINED", OutcomeFailed},
	}

	adapter := &DokuAdapter{}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			body := []byte(`{"order": {"invoice_number": "INV-1"}, "transaction": {"status": "` + tt.status + `"}}`)
			event, err := adapter.Parse(body)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, event.Outcome)
		})
	}
}

func TestDokuParseMalformed(t *testing.T) {
	adapter := &DokuAdapter{}

	_, err := adapter.Parse([]byte("amount=100&status=ok"))
	assert.Error(t, err)
}
