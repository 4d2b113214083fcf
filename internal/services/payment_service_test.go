// internal/services/payment_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/gateway"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
)

func paymentFixture(t *testing.T) (*gorm.DB, *PaymentService, *OrderService, *models.User, *models.User, *models.Publication) {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig()
	notifications := NewNotificationService(db, cfg)
	orders := NewOrderService(db, notifications)
	payments := NewPaymentService(db, cfg, nil, notifications)

	seller := createProducer(t, db, "vendedor")
	buyer := createBuyer(t, db, "comprador")
	listing := createListing(t, db, seller, 2000, 100)

	return db, payments, orders, seller, buyer, listing
}

func placeOrder(t *testing.T, orders *OrderService, buyer *models.User, listing *models.Publication, qty int64) *models.Order {
	t.Helper()

	order, err := orders.Create(buyer.ID, &CreateOrderRequest{
		PublicationID:    listing.ID,
		Cantidad:         decimal.NewFromInt(qty),
		Unidad:           units.UnitKilogram,
		DireccionEntrega: "Calle 10 #5-32, Tunja",
	})
	require.NoError(t, err)
	return order
}

func TestCheckoutCreatesPendingPayment(t *testing.T) {
	_, payments, orders, _, buyer, listing := paymentFixture(t)

	order := placeOrder(t, orders, buyer, listing, 30)
	assert.True(t, order.PrecioTotal.Equal(decimal.NewFromInt(60000)))

	resp, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	require.NoError(t, err)

	assert.True(t, resp.Simulated)
	assert.Equal(t, models.PaymentPending, resp.Payment.Status)
	assert.Equal(t, models.GatewaySimulado, resp.Payment.Gateway)
	assert.True(t, resp.Payment.Amount.Equal(decimal.NewFromInt(60000)))
	assert.NotEmpty(t, resp.Payment.Reference)
}

func TestCheckoutRejectsSecondLivePayment(t *testing.T) {
	_, payments, orders, _, buyer, listing := paymentFixture(t)
	order := placeOrder(t, orders, buyer, listing, 30)

	_, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	require.NoError(t, err)

	_, err = payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	assert.ErrorIs(t, err, ErrPaymentExists)
}

func TestCheckoutEnforcesMinimumAmount(t *testing.T) {
	_, payments, orders, _, buyer, listing := paymentFixture(t)
	order := placeOrder(t, orders, buyer, listing, 2) // 4000 < 5000 minimum

	_, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	assert.ErrorIs(t, err, ErrAmountTooLow)
}

func TestApprovalDecrementsStockOnce(t *testing.T) {
	db, payments, orders, _, buyer, listing := paymentFixture(t)
	order := placeOrder(t, orders, buyer, listing, 30)

	resp, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	require.NoError(t, err)

	payment, err := payments.Simulate(context.Background(), buyer.ID, resp.Payment.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentApproved, payment.Status)
	require.NotNil(t, payment.PaidAt)

	reloaded := reloadPublication(t, db, listing.ID)
	assert.True(t, reloaded.CantidadDisponible.Equal(decimal.NewFromInt(70)),
		"stock should be 70, got %s", reloaded.CantidadDisponible)

	// A replayed approval is a no-op
	conf := &gateway.Confirmation{
		Reference:     payment.Reference,
		TransactionID: payment.TransactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Status:        gateway.ConfirmationApproved,
	}
	require.NoError(t, payments.applyConfirmation(context.Background(), conf))

	reloaded = reloadPublication(t, db, listing.ID)
	assert.True(t, reloaded.CantidadDisponible.Equal(decimal.NewFromInt(70)),
		"replay must not decrement again, got %s", reloaded.CantidadDisponible)
}

func TestApprovalFlipsListingToAgotada(t *testing.T) {
	db, payments, orders, _, buyer, listing := paymentFixture(t)
	order := placeOrder(t, orders, buyer, listing, 100)

	resp, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	require.NoError(t, err)

	_, err = payments.Simulate(context.Background(), buyer.ID, resp.Payment.ID, true)
	require.NoError(t, err)

	reloaded := reloadPublication(t, db, listing.ID)
	assert.True(t, reloaded.CantidadDisponible.IsZero())
	assert.Equal(t, models.PublicationAgotada, reloaded.Estado)
}

func TestRejectionCancelsOrder(t *testing.T) {
	db, payments, orders, _, buyer, listing := paymentFixture(t)
	order := placeOrder(t, orders, buyer, listing, 30)

	resp, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	require.NoError(t, err)

	payment, err := payments.Simulate(context.Background(), buyer.ID, resp.Payment.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRejected, payment.Status)

	reloaded := reloadOrder(t, db, order.ID)
	assert.Equal(t, models.OrderCancelado, reloaded.Estado)

	// Stock was never captured, so it stays untouched
	publication := reloadPublication(t, db, listing.ID)
	assert.True(t, publication.CantidadDisponible.Equal(decimal.NewFromInt(100)))
}

func TestRejectionAfterCaptureRestoresStock(t *testing.T) {
	db, payments, orders, _, buyer, listing := paymentFixture(t)
	order := placeOrder(t, orders, buyer, listing, 30)

	resp, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	require.NoError(t, err)

	payment, err := payments.Simulate(context.Background(), buyer.ID, resp.Payment.ID, true)
	require.NoError(t, err)
	require.True(t, reloadPublication(t, db, listing.ID).CantidadDisponible.Equal(decimal.NewFromInt(70)))

	// Gateway later reverses the charge
	conf := &gateway.Confirmation{
		Reference:     payment.Reference,
		TransactionID: "REV-1",
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Status:        gateway.ConfirmationRejected,
	}
	require.NoError(t, payments.applyConfirmation(context.Background(), conf))

	publication := reloadPublication(t, db, listing.ID)
	assert.True(t, publication.CantidadDisponible.Equal(decimal.NewFromInt(100)),
		"stock should be restored to 100, got %s", publication.CantidadDisponible)

	reloaded := reloadOrder(t, db, order.ID)
	assert.Equal(t, models.OrderCancelado, reloaded.Estado)
	assert.Equal(t, models.PaymentRejected, reloaded.Payment.Status)
}

func TestConfirmationAmountMismatchIsRejected(t *testing.T) {
	_, payments, orders, _, buyer, listing := paymentFixture(t)
	order := placeOrder(t, orders, buyer, listing, 30)

	resp, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	require.NoError(t, err)

	conf := &gateway.Confirmation{
		Reference:     resp.Payment.Reference,
		TransactionID: "TX-1",
		Amount:        decimal.NewFromInt(1),
		Currency:      "COP",
		Status:        gateway.ConfirmationApproved,
	}
	err = payments.applyConfirmation(context.Background(), conf)
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestSimulateRequiresTestMode(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.Payment.TestMode = false
	payments := NewPaymentService(db, cfg, nil, NewNotificationService(db, cfg))

	buyer := createBuyer(t, db, "comprador")
	_, err := payments.Simulate(context.Background(), buyer.ID, buyer.ID, true)
	assert.ErrorIs(t, err, ErrSimulationClosed)
}
