// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null;index"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'activo'"`
	FirstName    string     `json:"first_name" gorm:"size:100"`
	LastName     string     `json:"last_name" gorm:"size:100"`
	Phone        string     `json:"phone" gorm:"size:30"`
	City         string     `json:"city" gorm:"size:100"`
	Department   string     `json:"department" gorm:"size:100"`
	AvatarURL    string     `json:"avatar_url" gorm:"size:500"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	ResetToken        string     `json:"-" gorm:"size:64;index"`
	ResetTokenExpires *time.Time `json:"-"`

	// Relationships
	ProducerProfile *ProducerProfile `json:"producer_profile,omitempty" gorm:"foreignKey:UserID"`
	BuyerProfile    *BuyerProfile    `json:"buyer_profile,omitempty" gorm:"foreignKey:UserID"`
	Crops           []Crop           `json:"crops,omitempty" gorm:"foreignKey:ProductorID"`
	Publications    []Publication    `json:"publications,omitempty" gorm:"foreignKey:VendedorID"`
	Orders          []Order          `json:"orders,omitempty" gorm:"foreignKey:CompradorID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}

// ProducerProfile carries the seller-side statistics that are recomputed
// when an order reaches completado.
type ProducerProfile struct {
	BaseModel
	UserID               uuid.UUID       `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	Location             string          `json:"location" gorm:"size:255"`
	FarmDescription      string          `json:"farm_description" gorm:"type:text"`
	MainCrops            string          `json:"main_crops" gorm:"size:255"`
	TotalVentas          int64           `json:"total_ventas" gorm:"default:0"`
	IngresosTotales      decimal.Decimal `json:"ingresos_totales" gorm:"type:decimal(14,2);default:0"`
	FechaPrimeraVenta    *time.Time      `json:"fecha_primera_venta"`
	CalificacionPromedio decimal.Decimal `json:"calificacion_promedio" gorm:"type:decimal(3,2);default:0"`
	TotalCalificaciones  int64           `json:"total_calificaciones" gorm:"default:0"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type BuyerProfile struct {
	BaseModel
	UserID             uuid.UUID       `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	CompanyName        string          `json:"company_name" gorm:"size:255"`
	BusinessType       string          `json:"business_type" gorm:"size:255"`
	TotalCompras       int64           `json:"total_compras" gorm:"default:0"`
	GastosTotales      decimal.Decimal `json:"gastos_totales" gorm:"type:decimal(14,2);default:0"`
	FechaPrimeraCompra *time.Time      `json:"fecha_primera_compra"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
