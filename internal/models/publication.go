// internal/models/publication.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/itemt/agroconnect-backend/internal/units"
)

type Publication struct {
	BaseModel
	CropID              uuid.UUID         `json:"crop_id" gorm:"type:uuid;not null;index"`
	VendedorID          uuid.UUID         `json:"vendedor_id" gorm:"type:uuid;not null;index"`
	PrecioPorUnidad     decimal.Decimal   `json:"precio_por_unidad" gorm:"type:decimal(12,2);not null"`
	UnidadMedida        units.Unit        `json:"unidad_medida" gorm:"type:varchar(20);not null"`
	CantidadDisponible  decimal.Decimal   `json:"cantidad_disponible" gorm:"type:decimal(10,2);not null"`
	CantidadMinima      decimal.Decimal   `json:"cantidad_minima" gorm:"type:decimal(10,2);default:1"`
	Estado              PublicationStatus `json:"estado" gorm:"type:varchar(20);default:'activa';index"`
	Descripcion         string            `json:"descripcion" gorm:"type:text"`

	// Relationships
	Crop     Crop    `json:"crop,omitempty" gorm:"foreignKey:CropID"`
	Vendedor User    `json:"vendedor,omitempty" gorm:"foreignKey:VendedorID"`
	Orders   []Order `json:"orders,omitempty" gorm:"foreignKey:PublicationID"`
}

// PriceInUnit derives the per-unit price in the requested unit. The second
// return is false when the publication's unit and the target are not both
// convertible weight units; callers fall back to the native price.
func (p *Publication) PriceInUnit(target units.Unit) (decimal.Decimal, bool) {
	return units.PriceIn(p.PrecioPorUnidad, p.UnidadMedida, target)
}

// CheckAvailability converts the requested quantity into the publication's
// native unit and compares it against the available stock. The returned
// quantity is the remaining stock expressed in the requester's unit, so a
// buyer shopping in kg sees a kg figure even when the listing sells in
// arrobas. A non-convertible request is compared in the native unit.
func (p *Publication) CheckAvailability(requested decimal.Decimal, requestedUnit units.Unit) (bool, decimal.Decimal) {
	native, ok := units.Convert(requested, requestedUnit, p.UnidadMedida)
	if !ok {
		// Fail closed on conversion: treat the request as native-unit.
		native = requested
		requestedUnit = p.UnidadMedida
	}

	available := native.LessThanOrEqual(p.CantidadDisponible)

	remaining, ok := units.Convert(p.CantidadDisponible, p.UnidadMedida, requestedUnit)
	if !ok {
		remaining = p.CantidadDisponible
	}
	return available, remaining
}

// IsSoldOut reports whether the available quantity has been exhausted.
func (p *Publication) IsSoldOut() bool {
	return !p.CantidadDisponible.IsPositive()
}

func (p *Publication) IsActive() bool {
	return p.Estado == PublicationActiva
}
