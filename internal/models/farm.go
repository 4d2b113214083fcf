// internal/models/farm.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/itemt/agroconnect-backend/internal/units"
)

type Farm struct {
	BaseModel
	ProductorID     uuid.UUID       `json:"productor_id" gorm:"type:uuid;not null;index"`
	Name            string          `json:"name" gorm:"size:150;not null"`
	Location        string          `json:"location" gorm:"size:255;not null"`
	AreaHectareas   decimal.Decimal `json:"area_hectareas" gorm:"type:decimal(10,2);not null"`
	Certificaciones pq.StringArray  `json:"certificaciones" gorm:"type:text[]"`
	Description     string          `json:"description" gorm:"type:text"`

	// Relationships
	Productor User   `json:"productor,omitempty" gorm:"foreignKey:ProductorID"`
	Crops     []Crop `json:"crops,omitempty" gorm:"foreignKey:FarmID"`
}

type Crop struct {
	BaseModel
	ProductorID         uuid.UUID       `json:"productor_id" gorm:"type:uuid;not null;index"`
	FarmID              *uuid.UUID      `json:"farm_id" gorm:"type:uuid;index"`
	Nombre              string          `json:"nombre" gorm:"size:100;not null"`
	Categoria           CropCategory    `json:"categoria" gorm:"type:varchar(30);default:'otros';index"`
	CantidadEstimada    decimal.Decimal `json:"cantidad_estimada" gorm:"type:decimal(10,2);default:0"`
	UnidadMedida        units.Unit      `json:"unidad_medida" gorm:"type:varchar(20);default:'kg'"`
	Estado              CropState       `json:"estado" gorm:"type:varchar(20);default:'sembrado';index"`
	FechaDisponibilidad *time.Time      `json:"fecha_disponibilidad"`
	ImagenURL           string          `json:"imagen_url" gorm:"size:500"`
	Notas               string          `json:"notas" gorm:"type:text"`

	// Relationships
	Productor     User          `json:"productor,omitempty" gorm:"foreignKey:ProductorID"`
	Farm          *Farm         `json:"farm,omitempty" gorm:"foreignKey:FarmID"`
	Publicaciones []Publication `json:"publicaciones,omitempty" gorm:"foreignKey:CropID"`
}

// IsHarvested reports whether the crop can back a marketplace publication.
func (c *Crop) IsHarvested() bool {
	return c.Estado == CropCosechado
}
