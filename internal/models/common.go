// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, isString := value.(string); isString {
			bytes = []byte(s)
		} else {
			return nil
		}
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	RoleProductor UserRole = "productor"
	RoleComprador UserRole = "comprador"
	RoleAdmin     UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActivo     UserStatus = "activo"
	UserStatusSuspendido UserStatus = "suspendido"
)

type CropCategory string

const (
	CategoryHortalizas        CropCategory = "hortalizas"
	CategoryFrutas            CropCategory = "frutas"
	CategoryCerealesGranos    CropCategory = "cereales_granos"
	CategoryLeguminosas       CropCategory = "leguminosas"
	CategoryTuberculos        CropCategory = "tuberculos"
	CategoryHierbasAromaticas CropCategory = "hierbas_aromaticas"
	CategoryOtros             CropCategory = "otros"
)

type CropState string

const (
	CropSembrado          CropState = "sembrado"
	CropEnCrecimiento     CropState = "en_crecimiento"
	CropListoParaCosechar CropState = "listo_para_cosechar"
	CropCosechado         CropState = "cosechado"
)

type PublicationStatus string

const (
	PublicationActiva  PublicationStatus = "activa"
	PublicationPausada PublicationStatus = "pausada"
	PublicationAgotada PublicationStatus = "agotada"
)

type OrderStatus string

const (
	OrderPendiente     OrderStatus = "pendiente"
	OrderConfirmado    OrderStatus = "confirmado"
	OrderEnPreparacion OrderStatus = "en_preparacion"
	OrderEnviado       OrderStatus = "enviado"
	OrderEnTransito    OrderStatus = "en_transito"
	OrderRecibido      OrderStatus = "recibido"
	OrderCompletado    OrderStatus = "completado"
	OrderCancelado     OrderStatus = "cancelado"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentInProcess PaymentStatus = "in_process"
	PaymentApproved  PaymentStatus = "approved"
	PaymentRejected  PaymentStatus = "rejected"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const (
	MethodCard     PaymentMethod = "card"
	MethodPSE      PaymentMethod = "pse"
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
)

type PaymentGateway string

const (
	GatewayEpayco      PaymentGateway = "epayco"
	GatewayMercadoPago PaymentGateway = "mercadopago"
	GatewaySimulado    PaymentGateway = "simulado"
)

type RatingDirection string

const (
	RatingCompradorAVendedor RatingDirection = "comprador_a_vendedor"
	RatingVendedorAComprador RatingDirection = "vendedor_a_comprador"
)
