// internal/services/cart_service_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
)

func cartFixture(t *testing.T) (*gorm.DB, *CartService, *models.User, *models.User, *models.Publication) {
	t.Helper()

	db := newTestDB(t)
	carts := NewCartService(db)

	seller := createProducer(t, db, "vendedor")
	buyer := createBuyer(t, db, "comprador")
	listing := createListing(t, db, seller, 2000, 100)

	return db, carts, seller, buyer, listing
}

func TestGetCartCreatesOnFirstUse(t *testing.T) {
	_, carts, _, buyer, _ := cartFixture(t)

	cart, err := carts.GetCart(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, cart.UserID)
	assert.Empty(t, cart.Items)

	again, err := carts.GetCart(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestAddItemAndReadd(t *testing.T) {
	_, carts, _, buyer, listing := cartFixture(t)

	cart, err := carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(10),
		Unidad:        units.UnitKilogram,
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].Cantidad.Equal(decimal.NewFromInt(10)))

	// Re-adding the same publication replaces the line instead of stacking
	cart, err = carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(25),
		Unidad:        units.UnitKilogram,
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].Cantidad.Equal(decimal.NewFromInt(25)))
}

func TestAddItemRejectsOwnListing(t *testing.T) {
	_, carts, seller, _, listing := cartFixture(t)

	_, err := carts.AddItem(seller.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(10),
		Unidad:        units.UnitKilogram,
	})
	assert.Error(t, err)
}

func TestAddItemRejectsNonConvertibleUnit(t *testing.T) {
	_, carts, _, buyer, listing := cartFixture(t)

	_, err := carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(3),
		Unidad:        units.UnitBulto,
	})
	assert.Error(t, err)
}

func TestAddItemRejectsBelowMinimumAndOverStock(t *testing.T) {
	db, carts, seller, buyer, _ := cartFixture(t)

	crop := &models.Crop{
		ProductorID:  seller.ID,
		Nombre:       "Aguacate hass",
		Categoria:    models.CategoryFrutas,
		UnidadMedida: units.UnitKilogram,
		Estado:       models.CropCosechado,
	}
	require.NoError(t, db.Create(crop).Error)

	listing := &models.Publication{
		CropID:             crop.ID,
		VendedorID:         seller.ID,
		PrecioPorUnidad:    decimal.NewFromInt(8000),
		UnidadMedida:       units.UnitKilogram,
		CantidadDisponible: decimal.NewFromInt(50),
		CantidadMinima:     decimal.NewFromInt(5),
		Estado:             models.PublicationActiva,
	}
	require.NoError(t, db.Create(listing).Error)

	_, err := carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(2),
		Unidad:        units.UnitKilogram,
	})
	assert.Error(t, err)

	_, err = carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(80),
		Unidad:        units.UnitKilogram,
	})
	assert.Error(t, err)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	_, carts, _, buyer, listing := cartFixture(t)

	cart, err := carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(10),
		Unidad:        units.UnitKilogram,
	})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = carts.UpdateItem(buyer.ID, itemID, &UpdateCartItemRequest{
		Cantidad: decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	assert.True(t, cart.Items[0].Cantidad.Equal(decimal.NewFromInt(40)))

	cart, err = carts.RemoveItem(buyer.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartItemOwnership(t *testing.T) {
	db, carts, _, buyer, listing := cartFixture(t)

	cart, err := carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(10),
		Unidad:        units.UnitKilogram,
	})
	require.NoError(t, err)

	other := createBuyer(t, db, "otrocomprador")
	_, err = carts.RemoveItem(other.ID, cart.Items[0].ID)
	assert.Error(t, err)
}

func TestCreateFromCartClearsCart(t *testing.T) {
	db, carts, seller, buyer, listing := cartFixture(t)

	cfg := newTestConfig()
	notifications := NewNotificationService(db, cfg)
	orders := NewOrderService(db, notifications)

	second := createListing(t, db, seller, 3000, 60)

	_, err := carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: listing.ID,
		Cantidad:      decimal.NewFromInt(10),
		Unidad:        units.UnitKilogram,
	})
	require.NoError(t, err)
	_, err = carts.AddItem(buyer.ID, &AddCartItemRequest{
		PublicationID: second.ID,
		Cantidad:      decimal.NewFromInt(5),
		Unidad:        units.UnitKilogram,
	})
	require.NoError(t, err)

	created, err := orders.CreateFromCart(buyer.ID, "Calle 10 #4-32, Pasto", "")
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, order := range created {
		assert.Equal(t, models.OrderPendiente, order.Estado)
	}

	cart, err := carts.GetCart(buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
