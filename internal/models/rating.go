// internal/models/rating.go
package models

import (
	"github.com/google/uuid"
)

// Rating is one party's review of the other for a completed order. The
// composite unique index allows at most one rating per direction per order.
type Rating struct {
	BaseModel
	OrderID       uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_order_calificador"`
	CalificadorID uuid.UUID       `json:"calificador_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_order_calificador"`
	CalificadoID  uuid.UUID       `json:"calificado_id" gorm:"type:uuid;not null;index"`
	Tipo          RatingDirection `json:"tipo" gorm:"type:varchar(30);not null"`

	CalificacionGeneral      int    `json:"calificacion_general" gorm:"not null"`
	CalificacionComunicacion int    `json:"calificacion_comunicacion" gorm:"not null"`
	CalificacionPuntualidad  int    `json:"calificacion_puntualidad" gorm:"not null"`
	CalificacionCalidad      int    `json:"calificacion_calidad" gorm:"not null"`
	Comentario               string `json:"comentario" gorm:"type:text"`

	// Relationships
	Order       Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Calificador User  `json:"calificador,omitempty" gorm:"foreignKey:CalificadorID"`
	Calificado  User  `json:"calificado,omitempty" gorm:"foreignKey:CalificadoID"`
}
