// internal/services/rating_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

var (
	ErrRatingExists       = errors.New("order already rated by this user")
	ErrOrderNotCompleted  = errors.New("only completed orders can be rated")
)

type RatingService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type CreateRatingRequest struct {
	OrderID                  uuid.UUID `json:"order_id" validate:"required"`
	CalificacionGeneral      int       `json:"calificacion_general" validate:"required,min=1,max=5"`
	CalificacionComunicacion int       `json:"calificacion_comunicacion" validate:"required,min=1,max=5"`
	CalificacionPuntualidad  int       `json:"calificacion_puntualidad" validate:"required,min=1,max=5"`
	CalificacionCalidad      int       `json:"calificacion_calidad" validate:"required,min=1,max=5"`
	Comentario               string    `json:"comentario,omitempty" validate:"max=2000"`
}

func NewRatingService(db *gorm.DB, notifications *NotificationService) *RatingService {
	return &RatingService{
		db:            db,
		notifications: notifications,
	}
}

// Create records a rating. Either party may rate once per order, and only
// after the order is completado.
func (s *RatingService) Create(calificadorID uuid.UUID, req *CreateRatingRequest) (*models.Rating, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var order models.Order
	if err := s.db.First(&order, req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.CompradorID != calificadorID && order.VendedorID != calificadorID {
		return nil, ErrNotOrderParty
	}
	if !order.CanBeRated() {
		return nil, ErrOrderNotCompleted
	}

	var tipo models.RatingDirection
	var calificadoID uuid.UUID
	if order.CompradorID == calificadorID {
		tipo = models.RatingCompradorAVendedor
		calificadoID = order.VendedorID
	} else {
		tipo = models.RatingVendedorAComprador
		calificadoID = order.CompradorID
	}

	var existing int64
	s.db.Model(&models.Rating{}).
		Where("order_id = ? AND calificador_id = ?", order.ID, calificadorID).
		Count(&existing)
	if existing > 0 {
		return nil, ErrRatingExists
	}

	rating := &models.Rating{
		OrderID:                  order.ID,
		CalificadorID:            calificadorID,
		CalificadoID:             calificadoID,
		Tipo:                     tipo,
		CalificacionGeneral:      req.CalificacionGeneral,
		CalificacionComunicacion: req.CalificacionComunicacion,
		CalificacionPuntualidad:  req.CalificacionPuntualidad,
		CalificacionCalidad:      req.CalificacionCalidad,
		Comentario:               req.Comentario,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rating).Error; err != nil {
			return fmt.Errorf("failed to create rating: %w", err)
		}

		// Seller averages live on the producer profile
		if tipo == models.RatingCompradorAVendedor {
			return s.recomputeSellerRating(tx, calificadoID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		s.notifications.NotifyRatingReceived(rating, calificadoID)
	}

	return rating, nil
}

// ListForUser returns the ratings received by a user, newest first.
func (s *RatingService) ListForUser(userID uuid.UUID, params utils.PaginationParams) ([]models.Rating, int64, error) {
	query := s.db.Model(&models.Rating{}).Where("calificado_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ratings: %w", err)
	}

	var ratings []models.Rating
	if err := utils.ApplyPagination(query.Preload("Calificador").Order("created_at DESC"), params).
		Find(&ratings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ratings: %w", err)
	}

	return ratings, total, nil
}

// ListForOrder returns both directions for one order, for either party.
func (s *RatingService) ListForOrder(userID, orderID uuid.UUID) ([]models.Rating, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if order.CompradorID != userID && order.VendedorID != userID {
		return nil, ErrNotOrderParty
	}

	var ratings []models.Rating
	if err := s.db.Preload("Calificador").
		Where("order_id = ?", orderID).
		Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch ratings: %w", err)
	}
	return ratings, nil
}

func (s *RatingService) recomputeSellerRating(tx *gorm.DB, vendedorID uuid.UUID) error {
	var stats struct {
		Promedio decimal.Decimal
		Total    int64
	}

	row := tx.Model(&models.Rating{}).
		Where("calificado_id = ? AND tipo = ?", vendedorID, models.RatingCompradorAVendedor).
		Select("COALESCE(AVG(calificacion_general), 0) as promedio, COUNT(*) as total").
		Row()
	if err := row.Scan(&stats.Promedio, &stats.Total); err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	return tx.Model(&models.ProducerProfile{}).
		Where("user_id = ?", vendedorID).
		Updates(map[string]interface{}{
			"calificacion_promedio": stats.Promedio.Round(2),
			"total_calificaciones":  stats.Total,
		}).Error
}
