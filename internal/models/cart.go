// internal/models/cart.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/itemt/agroconnect-backend/internal/units"
)

type Cart struct {
	BaseModel
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`

	// Relationships
	User  User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []CartItem `json:"items,omitempty" gorm:"foreignKey:CartID"`
}

type CartItem struct {
	BaseModel
	CartID        uuid.UUID       `json:"cart_id" gorm:"type:uuid;not null;index"`
	PublicationID uuid.UUID       `json:"publication_id" gorm:"type:uuid;not null;index"`
	Cantidad      decimal.Decimal `json:"cantidad" gorm:"type:decimal(10,2);not null"`
	Unidad        units.Unit      `json:"unidad" gorm:"type:varchar(20);not null"`

	// Relationships
	Cart        Cart        `json:"cart,omitempty" gorm:"foreignKey:CartID"`
	Publication Publication `json:"publication,omitempty" gorm:"foreignKey:PublicationID"`
}

// Subtotal prices the item in the buyer's requested unit when the listing
// unit converts, and falls back to the listing's native price otherwise.
func (i *CartItem) Subtotal() decimal.Decimal {
	if price, ok := i.Publication.PriceInUnit(i.Unidad); ok {
		return price.Mul(i.Cantidad).Round(2)
	}
	return i.Publication.PrecioPorUnidad.Mul(i.Cantidad).Round(2)
}

// Total sums the subtotals of every loaded item.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for idx := range c.Items {
		total = total.Add(c.Items[idx].Subtotal())
	}
	return total
}
