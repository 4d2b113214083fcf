// internal/models/order_test.go
package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/itemt/agroconnect-backend/internal/units"
)

func orderInState(estado OrderStatus, paid bool) *Order {
	o := &Order{
		CantidadAcordada: decimal.NewFromInt(30),
		UnidadSolicitada: units.UnitKilogram,
		PrecioTotal:      decimal.NewFromInt(60000),
		Estado:           estado,
	}
	if paid {
		now := time.Now()
		o.Payment = &Payment{Status: PaymentApproved, PaidAt: &now}
	} else {
		o.Payment = &Payment{Status: PaymentPending}
	}
	return o
}

func TestCanBeConfirmedBySellerRequiresPayment(t *testing.T) {
	unpaid := orderInState(OrderPendiente, false)
	assert.False(t, unpaid.CanBeConfirmedBySeller())

	paid := orderInState(OrderPendiente, true)
	assert.True(t, paid.CanBeConfirmedBySeller())

	// Payment alone is not enough once the order moved on.
	confirmed := orderInState(OrderConfirmado, true)
	assert.False(t, confirmed.CanBeConfirmedBySeller())
}

func TestSellerAdvanceChain(t *testing.T) {
	assert.True(t, orderInState(OrderConfirmado, true).CanStartPreparation())
	assert.True(t, orderInState(OrderEnPreparacion, true).CanBeShipped())
	assert.True(t, orderInState(OrderEnviado, true).CanBeMarkedInTransit())

	assert.False(t, orderInState(OrderPendiente, true).CanStartPreparation())
	assert.False(t, orderInState(OrderEnviado, true).CanBeShipped())
	assert.False(t, orderInState(OrderEnTransito, true).CanBeMarkedInTransit())
}

func TestBuyerReceiptAndCompletion(t *testing.T) {
	assert.True(t, orderInState(OrderEnviado, true).CanBeReceived())
	assert.True(t, orderInState(OrderEnTransito, true).CanBeReceived())
	assert.False(t, orderInState(OrderEnPreparacion, true).CanBeReceived())

	// recibido only moves forward to completado.
	received := orderInState(OrderRecibido, true)
	assert.True(t, received.CanBeCompleted())
	assert.False(t, received.CanBeReceived())
	assert.False(t, received.CanBeCancelledByBuyer())
	assert.False(t, received.CanBeCancelledBySeller())
}

func TestCancellationWindows(t *testing.T) {
	tests := []struct {
		estado OrderStatus
		buyer  bool
		seller bool
	}{
		{OrderPendiente, true, true},
		{OrderConfirmado, true, true},
		{OrderEnPreparacion, false, true},
		{OrderEnviado, false, false},
		{OrderEnTransito, false, false},
		{OrderRecibido, false, false},
		{OrderCompletado, false, false},
		{OrderCancelado, false, false},
	}

	for _, tt := range tests {
		o := orderInState(tt.estado, true)
		assert.Equal(t, tt.buyer, o.CanBeCancelledByBuyer(), "buyer cancel from %s", tt.estado)
		assert.Equal(t, tt.seller, o.CanBeCancelledBySeller(), "seller cancel from %s", tt.estado)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, orderInState(OrderCompletado, true).IsTerminal())
	assert.True(t, orderInState(OrderCancelado, true).IsTerminal())
	assert.False(t, orderInState(OrderRecibido, true).IsTerminal())
}

func TestRatingUnlockedOnlyWhenCompleted(t *testing.T) {
	assert.True(t, orderInState(OrderCompletado, true).CanBeRated())
	assert.False(t, orderInState(OrderRecibido, true).CanBeRated())
	assert.False(t, orderInState(OrderCancelado, true).CanBeRated())
}
