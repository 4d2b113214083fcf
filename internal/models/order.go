// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/itemt/agroconnect-backend/internal/units"
)

// Order tracks one buyer's commitment against a publication. The seller is
// stored directly at creation time instead of being derived through
// publication -> crop -> productor, so later inventory edits cannot change
// who an existing order belongs to.
type Order struct {
	BaseModel
	PublicationID uuid.UUID `json:"publication_id" gorm:"type:uuid;not null;index"`
	CompradorID   uuid.UUID `json:"comprador_id" gorm:"type:uuid;not null;index"`
	VendedorID    uuid.UUID `json:"vendedor_id" gorm:"type:uuid;not null;index"`

	CantidadAcordada decimal.Decimal `json:"cantidad_acordada" gorm:"type:decimal(10,2);not null"`
	UnidadSolicitada units.Unit      `json:"unidad_solicitada" gorm:"type:varchar(20);not null"`
	PrecioTotal      decimal.Decimal `json:"precio_total" gorm:"type:decimal(14,2);not null"`
	Estado           OrderStatus     `json:"estado" gorm:"type:varchar(20);default:'pendiente';index"`

	NotasComprador    string `json:"notas_comprador" gorm:"type:text"`
	NotasVendedor     string `json:"notas_vendedor" gorm:"type:text"`
	DireccionEntrega  string `json:"direccion_entrega" gorm:"type:text;not null"`
	MotivoCancelacion string `json:"motivo_cancelacion,omitempty" gorm:"type:text"`

	FechaConfirmacion     *time.Time `json:"fecha_confirmacion"`
	FechaEnvio            *time.Time `json:"fecha_envio"`
	FechaEntregaEstimada  *time.Time `json:"fecha_entrega_estimada"`
	FechaRecibido         *time.Time `json:"fecha_recibido"`

	// Relationships
	Publication Publication `json:"publication,omitempty" gorm:"foreignKey:PublicationID"`
	Comprador   User        `json:"comprador,omitempty" gorm:"foreignKey:CompradorID"`
	Vendedor    User        `json:"vendedor,omitempty" gorm:"foreignKey:VendedorID"`
	Payment     *Payment    `json:"payment,omitempty" gorm:"foreignKey:OrderID"`
	Ratings     []Rating    `json:"ratings,omitempty" gorm:"foreignKey:OrderID"`
}

// IsPaid reports whether the order's payment has been approved.
func (o *Order) IsPaid() bool {
	return o.Payment != nil && o.Payment.Status == PaymentApproved
}

func (o *Order) IsTerminal() bool {
	return o.Estado == OrderCompletado || o.Estado == OrderCancelado
}

// CanBeConfirmedBySeller gates pendiente -> confirmado. Confirmation is a
// seller action and requires an approved payment first.
func (o *Order) CanBeConfirmedBySeller() bool {
	return o.Estado == OrderPendiente && o.IsPaid()
}

// CanStartPreparation gates confirmado -> en_preparacion (seller).
func (o *Order) CanStartPreparation() bool {
	return o.Estado == OrderConfirmado
}

// CanBeShipped gates en_preparacion -> enviado (seller).
func (o *Order) CanBeShipped() bool {
	return o.Estado == OrderEnPreparacion
}

// CanBeMarkedInTransit gates enviado -> en_transito (seller).
func (o *Order) CanBeMarkedInTransit() bool {
	return o.Estado == OrderEnviado
}

// CanBeReceived gates enviado/en_transito -> recibido (buyer).
func (o *Order) CanBeReceived() bool {
	return o.Estado == OrderEnviado || o.Estado == OrderEnTransito
}

// CanBeCompleted gates the final transition to completado. A received
// order can only move forward to completado; shipped and in-transit orders
// may be completed directly by the buyer acknowledging delivery.
func (o *Order) CanBeCompleted() bool {
	return o.Estado == OrderRecibido || o.CanBeReceived()
}

// CanBeCancelledByBuyer allows cancellation before preparation starts.
func (o *Order) CanBeCancelledByBuyer() bool {
	return o.Estado == OrderPendiente || o.Estado == OrderConfirmado
}

// CanBeCancelledBySeller additionally covers en_preparacion.
func (o *Order) CanBeCancelledBySeller() bool {
	return o.Estado == OrderPendiente || o.Estado == OrderConfirmado ||
		o.Estado == OrderEnPreparacion
}

// CanBeRated reports whether rating is unlocked for this order.
func (o *Order) CanBeRated() bool {
	return o.Estado == OrderCompletado
}
