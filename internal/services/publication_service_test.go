// internal/services/publication_service_test.go
package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
)

func TestQuotePricesInRequestedUnit(t *testing.T) {
	db := newTestDB(t)
	seller := createProducer(t, db, "cafetero")
	publications := NewPublicationService(db)

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
		CantidadDisponible: decimal.NewFromInt(20),
		CantidadMinima:     decimal.NewFromInt(1),
		Estado:             models.PublicationActiva,
	}
	require.NoError(t, db.Create(listing).Error)

	quote, err := publications.Quote(listing.ID, units.UnitKilogram, decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.Equal(t, "4347.07", quote.PrecioPorUnidad.StringFixed(2))
	require.NotNil(t, quote.Total)
	assert.Equal(t, "434707.00", quote.Total.StringFixed(2))
	assert.True(t, quote.Disponible)
	// 20 arrobas expressed in kg
	assert.Equal(t, "230.040", quote.CantidadDisponible.StringFixed(3))
}

func TestQuoteWithoutQuantityOmitsTotal(t *testing.T) {
	db := newTestDB(t)
	seller := createProducer(t, db, "papero")
	publications := NewPublicationService(db)

	listing := createListing(t, db, seller, 2000, 50)

	quote, err := publications.Quote(listing.ID, "", decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, units.UnitKilogram, quote.Unidad)
	assert.Equal(t, "2000.00", quote.PrecioPorUnidad.StringFixed(2))
	assert.Nil(t, quote.Cantidad)
	assert.Nil(t, quote.Total)
	assert.True(t, quote.Disponible)
}

func TestQuoteFlagsOverStockAndBelowMinimum(t *testing.T) {
	db := newTestDB(t)
	seller := createProducer(t, db, "yuquero")
	publications := NewPublicationService(db)

	listing := createListing(t, db, seller, 1500, 30)
	listing.CantidadMinima = decimal.NewFromInt(5)
	require.NoError(t, db.Save(listing).Error)

	over, err := publications.Quote(listing.ID, units.UnitKilogram, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.False(t, over.Disponible)

	under, err := publications.Quote(listing.ID, units.UnitKilogram, decimal.NewFromInt(2))
	require.NoError(t, err)
	assert.False(t, under.Disponible)

	ok, err := publications.Quote(listing.ID, units.UnitKilogram, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, ok.Disponible)
}

func TestQuoteRejectsNonConvertibleUnit(t *testing.T) {
	db := newTestDB(t)
	seller := createProducer(t, db, "frutero")
	publications := NewPublicationService(db)

	listing := createListing(t, db, seller, 2000, 50)

	_, err := publications.Quote(listing.ID, units.UnitCaja, decimal.NewFromInt(3))
	assert.Error(t, err)
}
