// internal/models/publication_test.go
package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itemt/agroconnect-backend/internal/units"
)

func arrobaListing() *Publication {
	return &Publication{
		PrecioPorUnidad:    decimal.NewFromInt(50000),
		UnidadMedida:       units.UnitArroba,
		CantidadDisponible: decimal.NewFromInt(10),
		CantidadMinima:     decimal.NewFromInt(1),
		Estado:             PublicationActiva,
	}
}

func TestPriceInUnit(t *testing.T) {
	p := arrobaListing()

	perKg, ok := p.PriceInUnit(units.UnitKilogram)
	require.True(t, ok)
	assert.True(t, perKg.Equal(decimal.RequireFromString("4347.07")), "got %s", perKg)

	same, ok := p.PriceInUnit(units.UnitArroba)
	require.True(t, ok)
	assert.True(t, same.Equal(p.PrecioPorUnidad))

	_, ok = p.PriceInUnit(units.UnitCaja)
	assert.False(t, ok)
}

func TestCheckAvailabilityCrossUnit(t *testing.T) {
	p := arrobaListing() // 10 arrobas = 115.02 kg

	ok, remaining := p.CheckAvailability(decimal.NewFromInt(100), units.UnitKilogram)
	assert.True(t, ok)
	assert.True(t, remaining.Equal(decimal.RequireFromString("115.02")), "got %s", remaining)

	ok, _ = p.CheckAvailability(decimal.NewFromInt(120), units.UnitKilogram)
	assert.False(t, ok)
}

func TestCheckAvailabilityNonConvertibleFallsBackToNative(t *testing.T) {
	p := &Publication{
		PrecioPorUnidad:    decimal.NewFromInt(1500),
		UnidadMedida:       units.UnitUnidad,
		CantidadDisponible: decimal.NewFromInt(200),
	}

	// A kg request against a discrete listing is compared as-is.
	ok, remaining := p.CheckAvailability(decimal.NewFromInt(50), units.UnitKilogram)
	assert.True(t, ok)
	assert.True(t, remaining.Equal(decimal.NewFromInt(200)))

	ok, _ = p.CheckAvailability(decimal.NewFromInt(201), units.UnitKilogram)
	assert.False(t, ok)
}

func TestIsSoldOut(t *testing.T) {
	p := arrobaListing()
	assert.False(t, p.IsSoldOut())

	p.CantidadDisponible = decimal.Zero
	assert.True(t, p.IsSoldOut())
}

func TestCartItemSubtotal(t *testing.T) {
	item := &CartItem{
		Cantidad:    decimal.NewFromInt(5),
		Unidad:      units.UnitKilogram,
		Publication: *arrobaListing(),
	}

	// 5 kg at 4,347.07/kg.
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("21735.35")),
		"got %s", item.Subtotal())

	// Discrete listing falls back to the native price.
	item.Publication.UnidadMedida = units.UnitCaja
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("7500")))
}
