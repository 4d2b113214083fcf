// internal/services/order_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
)

func orderFixture(t *testing.T) (*gorm.DB, *OrderService, *PaymentService, *models.User, *models.User, *models.Publication) {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig()
	notifications := NewNotificationService(db, cfg)
	orders := NewOrderService(db, notifications)
	payments := NewPaymentService(db, cfg, nil, notifications)

	seller := createProducer(t, db, "vendedor")
	buyer := createBuyer(t, db, "comprador")
	listing := createListing(t, db, seller, 2000, 100)

	return db, orders, payments, seller, buyer, listing
}

// payOrder runs the simulated checkout and approval so the order can move.
func payOrder(t *testing.T, payments *PaymentService, buyer *models.User, order *models.Order) {
	t.Helper()

	resp, err := payments.Checkout(context.Background(), buyer.ID, &CheckoutRequest{
		OrderID: order.ID,
		Gateway: models.GatewaySimulado,
	})
	require.NoError(t, err)

	_, err = payments.Simulate(context.Background(), buyer.ID, resp.Payment.ID, true)
	require.NoError(t, err)
}

func TestCreateOrderPricesInRequestedUnit(t *testing.T) {
	db, orders, _, seller, buyer, _ := orderFixture(t)

	// 50000 per arroba, buyer orders 100 kg
	crop := &models.Crop{
		ProductorID:  seller.ID,
		Nombre:       "Café pergamino",
		Categoria:    models.CategoryOtros,
		UnidadMedida: units.UnitArroba,
		Estado:       models.CropCosechado,
	}
	require.NoError(t, db.Create(crop).Error)

	listing := &models.Publication{
		CropID:             crop.ID,
		VendedorID:         seller.ID,
		PrecioPorUnidad:    decimal.NewFromInt(50000),
		UnidadMedida:       units.UnitArroba,
		CantidadDisponible: decimal.NewFromInt(10),
		CantidadMinima:     decimal.NewFromInt(1),
		Estado:             models.PublicationActiva,
	}
	require.NoError(t, db.Create(listing).Error)

	order, err := orders.Create(buyer.ID, &CreateOrderRequest{
		PublicationID:    listing.ID,
		Cantidad:         decimal.NewFromInt(100),
		Unidad:           units.UnitKilogram,
		DireccionEntrega: "Vereda El Carmen",
	})
	require.NoError(t, err)

	// 4347.07 per kg * 100
	assert.Equal(t, "434707.00", order.PrecioTotal.StringFixed(2))
	assert.Equal(t, models.OrderPendiente, order.Estado)
	assert.Equal(t, seller.ID, order.VendedorID)
}

func TestCreateOrderValidations(t *testing.T) {
	_, orders, _, seller, buyer, listing := orderFixture(t)

	// Own listing
	_, err := orders.Create(seller.ID, &CreateOrderRequest{
		PublicationID:    listing.ID,
		Cantidad:         decimal.NewFromInt(10),
		Unidad:           units.UnitKilogram,
		DireccionEntrega: "x",
	})
	assert.Error(t, err)

	// More than available
	_, err = orders.Create(buyer.ID, &CreateOrderRequest{
		PublicationID:    listing.ID,
		Cantidad:         decimal.NewFromInt(150),
		Unidad:           units.UnitKilogram,
		DireccionEntrega: "x",
	})
	assert.Error(t, err)

	// Discrete unit against a weight listing
	_, err = orders.Create(buyer.ID, &CreateOrderRequest{
		PublicationID:    listing.ID,
		Cantidad:         decimal.NewFromInt(5),
		Unidad:           units.UnitCaja,
		DireccionEntrega: "x",
	})
	assert.Error(t, err)
}

func TestConfirmRequiresApprovedPayment(t *testing.T) {
	_, orders, payments, seller, buyer, listing := orderFixture(t)

	order := placeOrder(t, orders, buyer, listing, 30)

	_, err := orders.Confirm(seller.ID, order.ID, "")
	assert.ErrorIs(t, err, ErrOrderNotPaid)

	payOrder(t, payments, buyer, order)

	confirmed, err := orders.Confirm(seller.ID, order.ID, "Salida el martes")
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmado, confirmed.Estado)
	assert.NotNil(t, confirmed.FechaConfirmacion)
	assert.Equal(t, "Salida el martes", confirmed.NotasVendedor)
}

func TestFullOrderLifecycle(t *testing.T) {
	db, orders, payments, seller, buyer, listing := orderFixture(t)

	order := placeOrder(t, orders, buyer, listing, 30)
	payOrder(t, payments, buyer, order)

	_, err := orders.Confirm(seller.ID, order.ID, "")
	require.NoError(t, err)

	_, err = orders.StartPreparation(seller.ID, order.ID)
	require.NoError(t, err)

	shipped, err := orders.Ship(seller.ID, order.ID, nil)
	require.NoError(t, err)
	assert.NotNil(t, shipped.FechaEnvio)

	_, err = orders.MarkInTransit(seller.ID, order.ID)
	require.NoError(t, err)

	received, err := orders.MarkReceived(buyer.ID, order.ID)
	require.NoError(t, err)
	assert.NotNil(t, received.FechaRecibido)

	completed, err := orders.Complete(buyer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompletado, completed.Estado)

	// Statistics recompute on completion
	var producerProfile models.ProducerProfile
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&producerProfile).Error)
	assert.Equal(t, int64(1), producerProfile.TotalVentas)
	assert.True(t, producerProfile.IngresosTotales.Equal(decimal.NewFromInt(60000)))
	assert.NotNil(t, producerProfile.FechaPrimeraVenta)

	var buyerProfile models.BuyerProfile
	require.NoError(t, db.Where("user_id = ?", buyer.ID).First(&buyerProfile).Error)
	assert.Equal(t, int64(1), buyerProfile.TotalCompras)
	assert.True(t, buyerProfile.GastosTotales.Equal(decimal.NewFromInt(60000)))
}

func TestSellerTransitionsRejectWrongState(t *testing.T) {
	_, orders, payments, seller, buyer, listing := orderFixture(t)

	order := placeOrder(t, orders, buyer, listing, 30)
	payOrder(t, payments, buyer, order)

	// Cannot ship before confirm and prepare
	_, err := orders.Ship(seller.ID, order.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = orders.MarkInTransit(seller.ID, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Buyer cannot receive a pendiente order
	_, err = orders.MarkReceived(buyer.ID, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBuyerCancelRestoresCapturedStock(t *testing.T) {
	db, orders, payments, _, buyer, listing := orderFixture(t)

	order := placeOrder(t, orders, buyer, listing, 30)
	payOrder(t, payments, buyer, order)
	require.True(t, reloadPublication(t, db, listing.ID).CantidadDisponible.Equal(decimal.NewFromInt(70)))

	cancelled, err := orders.Cancel(buyer.ID, order.ID, &CancelOrderRequest{Motivo: "cambio de planes"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelado, cancelled.Estado)
	assert.Equal(t, "cambio de planes", cancelled.MotivoCancelacion)

	publication := reloadPublication(t, db, listing.ID)
	assert.True(t, publication.CantidadDisponible.Equal(decimal.NewFromInt(100)))

	reloaded := reloadOrder(t, db, order.ID)
	assert.Equal(t, models.PaymentRefunded, reloaded.Payment.Status)
}

func TestCancellationWindows(t *testing.T) {
	_, orders, payments, seller, buyer, listing := orderFixture(t)

	order := placeOrder(t, orders, buyer, listing, 30)
	payOrder(t, payments, buyer, order)

	_, err := orders.Confirm(seller.ID, order.ID, "")
	require.NoError(t, err)
	_, err = orders.StartPreparation(seller.ID, order.ID)
	require.NoError(t, err)

	// Buyer window closed at en_preparacion, seller still open
	_, err = orders.Cancel(buyer.ID, order.ID, &CancelOrderRequest{Motivo: "tarde"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled, err := orders.Cancel(seller.ID, order.ID, &CancelOrderRequest{Motivo: "sin transporte"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelado, cancelled.Estado)
}

func TestCompleteDirectlyFromShipped(t *testing.T) {
	_, orders, payments, seller, buyer, listing := orderFixture(t)

	order := placeOrder(t, orders, buyer, listing, 30)
	payOrder(t, payments, buyer, order)

	_, err := orders.Confirm(seller.ID, order.ID, "")
	require.NoError(t, err)
	_, err = orders.StartPreparation(seller.ID, order.ID)
	require.NoError(t, err)
	_, err = orders.Ship(seller.ID, order.ID, nil)
	require.NoError(t, err)

	completed, err := orders.Complete(buyer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCompletado, completed.Estado)
	assert.NotNil(t, completed.FechaRecibido)
}

func TestOrderAccessControl(t *testing.T) {
	db, orders, _, _, buyer, listing := orderFixture(t)

	order := placeOrder(t, orders, buyer, listing, 30)

	stranger := createBuyer(t, db, "intruso")
	_, err := orders.GetByID(stranger.ID, order.ID)
	assert.ErrorIs(t, err, ErrNotOrderParty)
}
