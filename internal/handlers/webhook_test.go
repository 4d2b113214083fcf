// internal/handlers/webhook_test.go
package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/itemt/agroconnect-backend/internal/config"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/units"
)

const (
	testEpaycoCustomer = "12345"
	testEpaycoPrivate  = "priv_test_key"
)

type webhookFixture struct {
	db          *gorm.DB
	engine      *gin.Engine
	payment     *models.Payment
	publication *models.Publication
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.ProducerProfile{}, &models.BuyerProfile{},
		&models.Crop{}, &models.Publication{},
		&models.Order{}, &models.Payment{}, &models.Notification{},
	))

	cfg := &config.Config{
		Environment: "test",
		Payment: config.PaymentConfig{
			EpaycoPublicKey:  "pub_test_key",
			EpaycoPrivateKey: testEpaycoPrivate,
			EpaycoCustomerID: testEpaycoCustomer,
			TestMode:         true,
			Currency:         "COP",
			MinimumAmount:    5000,
		},
	}

	notifications := services.NewNotificationService(db, cfg)
	payments := services.NewPaymentService(db, cfg, nil, notifications)
	webhooks := NewWebhookHandler(payments)

	engine := gin.New()
	engine.POST("/v1/webhooks/epayco", webhooks.EpaycoConfirmation)
	engine.POST("/v1/webhooks/mercadopago", webhooks.MercadoPagoNotification)

	seller := &models.User{
		Username: "vendedor",
		Email:    "vendedor@test.co",
		Role:     models.RoleProductor,
		Status:   models.UserStatusActivo,
	}
	require.NoError(t, seller.SetPassword("Secreta123"))
	require.NoError(t, db.Create(seller).Error)

	buyer := &models.User{
		Username: "comprador",
		Email:    "comprador@test.co",
		Role:     models.RoleComprador,
		Status:   models.UserStatusActivo,
	}
	require.NoError(t, buyer.SetPassword("Secreta123"))
	require.NoError(t, db.Create(buyer).Error)

	crop := &models.Crop{
		ProductorID:  seller.ID,
		Nombre:       "Papa pastusa",
		Categoria:    models.CategoryTuberculos,
		UnidadMedida: units.UnitKilogram,
		Estado:       models.CropCosechado,
	}
	require.NoError(t, db.Create(crop).Error)

	publication := &models.Publication{
		CropID:             crop.ID,
		VendedorID:         seller.ID,
		PrecioPorUnidad:    decimal.NewFromInt(2000),
		UnidadMedida:       units.UnitKilogram,
		CantidadDisponible: decimal.NewFromInt(100),
		CantidadMinima:     decimal.NewFromInt(1),
		Estado:             models.PublicationActiva,
	}
	require.NoError(t, db.Create(publication).Error)

	order := &models.Order{
		PublicationID:    publication.ID,
		CompradorID:      buyer.ID,
		VendedorID:       seller.ID,
		CantidadAcordada: decimal.NewFromInt(30),
		UnidadSolicitada: units.UnitKilogram,
		PrecioTotal:      decimal.NewFromInt(60000),
		Estado:           models.OrderPendiente,
		DireccionEntrega: "Vereda El Carmen",
	}
	require.NoError(t, db.Create(order).Error)

	payment := &models.Payment{
		OrderID:   order.ID,
		UserID:    buyer.ID,
		Gateway:   models.GatewayEpayco,
		Reference: "AGRO-20260115-ABCD1234",
		Amount:    decimal.NewFromInt(60000),
		Currency:  "COP",
		Status:    models.PaymentPending,
	}
	require.NoError(t, db.Create(payment).Error)

	return &webhookFixture{
		db:          db,
		engine:      engine,
		payment:     payment,
		publication: publication,
	}
}

func epaycoSignature(refPayco, txn, amount, currency string) string {
	payload := fmt.Sprintf("%s^%s^%s^%s^%s^%s",
		testEpaycoCustomer, testEpaycoPrivate, refPayco, txn, amount, currency)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func (f *webhookFixture) postEpayco(t *testing.T, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/epayco",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func epaycoForm(invoice, refPayco, txn, amount, currency, cod string) url.Values {
	form := url.Values{}
	form.Set("x_id_invoice", invoice)
	form.Set("x_ref_payco", refPayco)
	form.Set("x_transaction_id", txn)
	form.Set("x_amount", amount)
	form.Set("x_currency_code", currency)
	form.Set("x_cod_response", cod)
	form.Set("x_franchise", "PSE")
	form.Set("x_signature", epaycoSignature(refPayco, txn, amount, currency))
	return form
}

func TestEpaycoConfirmationApprovesPayment(t *testing.T) {
	f := newWebhookFixture(t)

	form := epaycoForm(f.payment.Reference, "556677", "987654", "60000.00", "COP", "1")
	w := f.postEpayco(t, form)
	assert.Equal(t, http.StatusOK, w.Code)

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, f.payment.ID).Error)
	assert.Equal(t, models.PaymentApproved, payment.Status)
	assert.Equal(t, "987654", payment.TransactionID)
	assert.NotNil(t, payment.PaidAt)

	var publication models.Publication
	require.NoError(t, f.db.First(&publication, f.publication.ID).Error)
	assert.True(t, publication.CantidadDisponible.Equal(decimal.NewFromInt(70)))

	// Gateway retries are acknowledged without reapplying side effects
	w = f.postEpayco(t, form)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, f.db.First(&publication, f.publication.ID).Error)
	assert.True(t, publication.CantidadDisponible.Equal(decimal.NewFromInt(70)))
}

func TestEpaycoConfirmationRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)

	form := epaycoForm(f.payment.Reference, "556677", "987654", "60000.00", "COP", "1")
	form.Set("x_signature", "deadbeef")

	w := f.postEpayco(t, form)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, f.payment.ID).Error)
	assert.Equal(t, models.PaymentPending, payment.Status)
}

func TestEpaycoConfirmationUnknownReference(t *testing.T) {
	f := newWebhookFixture(t)

	form := epaycoForm("AGRO-20260115-ZZZZ9999", "556677", "987654", "60000.00", "COP", "1")
	w := f.postEpayco(t, form)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEpaycoConfirmationRejectedCancelsOrder(t *testing.T) {
	f := newWebhookFixture(t)

	form := epaycoForm(f.payment.Reference, "556677", "987654", "60000.00", "COP", "2")
	w := f.postEpayco(t, form)
	assert.Equal(t, http.StatusOK, w.Code)

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, f.payment.ID).Error)
	assert.Equal(t, models.PaymentRejected, payment.Status)

	var order models.Order
	require.NoError(t, f.db.First(&order, f.payment.OrderID).Error)
	assert.Equal(t, models.OrderCancelado, order.Estado)

	// Stock was never taken for a payment that never captured
	var publication models.Publication
	require.NoError(t, f.db.First(&publication, f.publication.ID).Error)
	assert.True(t, publication.CantidadDisponible.Equal(decimal.NewFromInt(100)))
}

func TestMercadoPagoNotificationRejectsEmptyBody(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/mercadopago",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMercadoPagoNotificationIgnoresOtherTopics(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/mercadopago",
		strings.NewReader(`{"type":"merchant_order","data":{"id":"123"}}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
