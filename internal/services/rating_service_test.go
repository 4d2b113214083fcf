// internal/services/rating_service_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
)

func ratingFixture(t *testing.T) (*gorm.DB, *RatingService, *models.User, *models.User, *models.Order) {
	t.Helper()

	db := newTestDB(t)
	cfg := newTestConfig()
	notifications := NewNotificationService(db, cfg)
	orders := NewOrderService(db, notifications)
	payments := NewPaymentService(db, cfg, nil, notifications)
	ratings := NewRatingService(db, notifications)

	seller := createProducer(t, db, "vendedor")
	buyer := createBuyer(t, db, "comprador")
	listing := createListing(t, db, seller, 2000, 100)

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

	return db, ratings, seller, buyer, completed
}

func ratingRequest(orderID uuid.UUID) *CreateRatingRequest {
	return &CreateRatingRequest{
		OrderID:                  orderID,
		CalificacionGeneral:      5,
		CalificacionComunicacion: 4,
		CalificacionPuntualidad:  5,
		CalificacionCalidad:      4,
		Comentario:               "Producto fresco y entrega puntual",
	}
}

func TestCreateRatingByBuyerUpdatesSellerAverage(t *testing.T) {
	db, ratings, seller, buyer, order := ratingFixture(t)

	rating, err := ratings.Create(buyer.ID, ratingRequest(order.ID))
	require.NoError(t, err)
	assert.Equal(t, models.RatingCompradorAVendedor, rating.Tipo)
	assert.Equal(t, seller.ID, rating.CalificadoID)

	var profile models.ProducerProfile
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&profile).Error)
	assert.Equal(t, int64(1), profile.TotalCalificaciones)
	assert.True(t, profile.CalificacionPromedio.Equal(decimal.NewFromInt(5)))
}

func TestCreateRatingBySellerTargetsBuyer(t *testing.T) {
	_, ratings, seller, buyer, order := ratingFixture(t)

	rating, err := ratings.Create(seller.ID, ratingRequest(order.ID))
	require.NoError(t, err)
	assert.Equal(t, models.RatingVendedorAComprador, rating.Tipo)
	assert.Equal(t, buyer.ID, rating.CalificadoID)
}

func TestDuplicateRatingRejected(t *testing.T) {
	_, ratings, _, buyer, order := ratingFixture(t)

	_, err := ratings.Create(buyer.ID, ratingRequest(order.ID))
	require.NoError(t, err)

	_, err = ratings.Create(buyer.ID, ratingRequest(order.ID))
	assert.ErrorIs(t, err, ErrRatingExists)
}

func TestRatingRequiresCompletedOrder(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	notifications := NewNotificationService(db, cfg)
	orders := NewOrderService(db, notifications)
	ratings := NewRatingService(db, notifications)

	seller := createProducer(t, db, "vendedor")
	buyer := createBuyer(t, db, "comprador")
	listing := createListing(t, db, seller, 2000, 100)
	order := placeOrder(t, orders, buyer, listing, 30)

	_, err := ratings.Create(buyer.ID, ratingRequest(order.ID))
	assert.ErrorIs(t, err, ErrOrderNotCompleted)
}

func TestRatingRejectsThirdParty(t *testing.T) {
	db, ratings, _, _, order := ratingFixture(t)

	stranger := createBuyer(t, db, "intruso")
	_, err := ratings.Create(stranger.ID, ratingRequest(order.ID))
	assert.ErrorIs(t, err, ErrNotOrderParty)
}

func TestSellerAverageAcrossOrders(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	notifications := NewNotificationService(db, cfg)
	orders := NewOrderService(db, notifications)
	payments := NewPaymentService(db, cfg, nil, notifications)
	ratings := NewRatingService(db, notifications)

	seller := createProducer(t, db, "vendedor")
	listing := createListing(t, db, seller, 2000, 1000)

	scores := []int{5, 3}
	for i, score := range scores {
		buyer := createBuyer(t, db, fmt.Sprintf("comprador%d", i))
		order := placeOrder(t, orders, buyer, listing, 10)
		payOrder(t, payments, buyer, order)

		_, err := orders.Confirm(seller.ID, order.ID, "")
		require.NoError(t, err)
		_, err = orders.StartPreparation(seller.ID, order.ID)
		require.NoError(t, err)
		_, err = orders.Ship(seller.ID, order.ID, nil)
		require.NoError(t, err)
		_, err = orders.Complete(buyer.ID, order.ID)
		require.NoError(t, err)

		req := ratingRequest(order.ID)
		req.CalificacionGeneral = score
		_, err = ratings.Create(buyer.ID, req)
		require.NoError(t, err)
	}

	var profile models.ProducerProfile
	require.NoError(t, db.Where("user_id = ?", seller.ID).First(&profile).Error)
	assert.Equal(t, int64(2), profile.TotalCalificaciones)
	assert.True(t, profile.CalificacionPromedio.Equal(decimal.NewFromInt(4)))
}

func TestListForOrderRequiresParty(t *testing.T) {
	db, ratings, _, buyer, order := ratingFixture(t)

	_, err := ratings.Create(buyer.ID, ratingRequest(order.ID))
	require.NoError(t, err)

	stranger := createBuyer(t, db, "intruso")
	_, err = ratings.ListForOrder(stranger.ID, order.ID)
	assert.ErrorIs(t, err, ErrNotOrderParty)

	listed, err := ratings.ListForOrder(buyer.ID, order.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
