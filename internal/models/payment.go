// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is the one-to-one gateway transaction for an order. Status moves
// pending -> approved/rejected through the webhook handlers; the conditional
// updates in the payment service keep replayed webhooks from applying the
// stock side effects twice.
type Payment struct {
	BaseModel
	OrderID uuid.UUID `json:"order_id" gorm:"type:uuid;uniqueIndex;not null"`
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`

	Gateway       PaymentGateway `json:"gateway" gorm:"type:varchar(20);not null"`
	Reference     string         `json:"reference" gorm:"size:255;uniqueIndex;not null"`
	TransactionID string         `json:"transaction_id" gorm:"size:255;index"`
	PreferenceID  string         `json:"preference_id" gorm:"size:255"`

	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null"`
	Currency      string          `json:"currency" gorm:"size:3;default:'COP'"`
	PaymentMethod PaymentMethod   `json:"payment_method" gorm:"type:varchar(20)"`
	Status        PaymentStatus   `json:"status" gorm:"type:varchar(20);default:'pending';index"`

	Description  string     `json:"description" gorm:"type:text"`
	ResponseData JSONB      `json:"response_data" gorm:"type:jsonb"`
	PaidAt       *time.Time `json:"paid_at"`

	// Relationships
	Order Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (p *Payment) IsApproved() bool {
	return p.Status == PaymentApproved
}

func (p *Payment) IsPending() bool {
	return p.Status == PaymentPending || p.Status == PaymentInProcess
}

// WasCaptured reports whether an approval ever happened, which is what
// decides if a later rejection must restore publication stock.
func (p *Payment) WasCaptured() bool {
	return p.PaidAt != nil
}
