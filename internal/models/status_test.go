package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusTerminal(t *testing.T) {
	tests := []struct {
		status   PaymentStatus
		terminal bool
	}{
		{PaymentPending, false},
		{PaymentProcessing, false},
		{PaymentCompleted, true},
		{PaymentFailed, true},
		{PaymentCancelled, true},
		{PaymentRefunded, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.terminal, tt.status.IsTerminal(), "status %s", tt.status)
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{"pending to processing", PaymentPending, PaymentProcessing, true},
		{"pending to completed", PaymentPending, PaymentCompleted, true},
		{"pending to failed", PaymentPending, PaymentFailed, true},
		{"pending to cancelled", PaymentPending, PaymentCancelled, true},
		{"processing to completed", PaymentProcessing, PaymentCompleted, true},
		{"processing to failed", PaymentProcessing, PaymentFailed, true},
		{"completed to refunded", PaymentCompleted, PaymentRefunded, true},
		{"completed to failed", PaymentCompleted, PaymentFailed, false},
		{"completed to completed", PaymentCompleted, PaymentCompleted, false},
		{"failed to completed", PaymentFailed, PaymentCompleted, false},
		{"cancelled to completed", PaymentCancelled, PaymentCompleted, false},
		{"refunded to completed", PaymentRefunded, PaymentCompleted, false},
		{"processing to pending", PaymentProcessing, PaymentPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"pending to confirmed", OrderPending, OrderConfirmed, true},
		{"pending to cancelled", OrderPending, OrderCancelled, true},
		{"pending to shipped", OrderPending, OrderShipped, false},
		{"confirmed to processing", OrderConfirmed, OrderProcessing, true},
		{"confirmed to refunded", OrderConfirmed, OrderRefunded, true},
		{"confirmed to cancelled", OrderConfirmed, OrderCancelled, false},
		{"processing to shipped", OrderProcessing, OrderShipped, true},
		{"shipped to delivered", OrderShipped, OrderDelivered, true},
		{"shipped to refunded", OrderShipped, OrderRefunded, true},
		{"delivered to refunded", OrderDelivered, OrderRefunded, true},
		{"cancelled to confirmed", OrderCancelled, OrderConfirmed, false},
		{"refunded anywhere", OrderRefunded, OrderConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
