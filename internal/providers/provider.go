package providers

import (
	"net/http"

	"github.com/shopspring/decimal"
)

// Outcome is the normalized result a provider reports for a payment attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
	OutcomeExpired Outcome = "expired"
)

// Event is a provider callback normalized to the fields the payment state
// machine needs. RawStatus keeps the provider's verbatim status for audit.
type Event struct {
	ExternalID    string
	Outcome       Outcome
	RawStatus     string
	Amount        decimal.Decimal
	HasAmount     bool
	Currency      string
	PaymentMethod string
	FailureReason string
}

// Adapter parses and authenticates callbacks for one payment provider.
// Implementations must treat the raw body as the unit of verification:
// signatures cover the exact byte sequence, so nothing is parsed before
// Verify has the original bytes. Verify never errors; malformed input is
// simply not verified.
type Adapter interface {
	Name() string
	HasSignature(header http.Header) bool
	Verify(raw []byte, header http.Header) bool
	Parse(raw []byte) (*Event, error)
}

// AmountMatches compares a declared callback amount against the stored
// transaction amount. Exact match, zero epsilon.
func AmountMatches(declared, expected decimal.Decimal) bool {
	return declared.Equal(expected)
}

// Registry resolves the adapter for a webhook routing key (the URL path
// segment the provider posts to).
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Lookup(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}
