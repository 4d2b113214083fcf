// internal/services/publication_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type PublicationService struct {
	db *gorm.DB
}

type CreatePublicationRequest struct {
	CropID             uuid.UUID       `json:"crop_id" validate:"required"`
	PrecioPorUnidad    decimal.Decimal `json:"precio_por_unidad" validate:"required"`
	UnidadMedida       units.Unit      `json:"unidad_medida" validate:"required,unit"`
	CantidadDisponible decimal.Decimal `json:"cantidad_disponible" validate:"required"`
	CantidadMinima     decimal.Decimal `json:"cantidad_minima,omitempty"`
	Descripcion        string          `json:"descripcion,omitempty"`
}

type UpdatePublicationRequest struct {
	PrecioPorUnidad    *decimal.Decimal `json:"precio_por_unidad,omitempty"`
	CantidadDisponible *decimal.Decimal `json:"cantidad_disponible,omitempty"`
	CantidadMinima     *decimal.Decimal `json:"cantidad_minima,omitempty"`
	Descripcion        *string          `json:"descripcion,omitempty"`
}

// SearchPublicationsParams filters the public catalog.
type SearchPublicationsParams struct {
	Query      string
	Categoria  models.CropCategory
	Department string
	Unit       units.Unit
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	VendedorID *uuid.UUID
}

func NewPublicationService(db *gorm.DB) *PublicationService {
	return &PublicationService{db: db}
}

func (s *PublicationService) Create(vendedorID uuid.UUID, req *CreatePublicationRequest) (*models.Publication, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !req.PrecioPorUnidad.IsPositive() {
		return nil, errors.New("price must be positive")
	}
	if !req.CantidadDisponible.IsPositive() {
		return nil, errors.New("available quantity must be positive")
	}

	var crop models.Crop
	if err := s.db.Where("id = ? AND productor_id = ?", req.CropID, vendedorID).
		First(&crop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("crop not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Only harvested crops can go on sale
	if !crop.IsHarvested() {
		return nil, errors.New("crop is not harvested yet")
	}

	var existing int64
	s.db.Model(&models.Publication{}).
		Where("crop_id = ? AND estado IN ?", crop.ID,
			[]models.PublicationStatus{models.PublicationActiva, models.PublicationPausada}).
		Count(&existing)
	if existing > 0 {
		return nil, errors.New("crop already has an open publication")
	}

	minima := req.CantidadMinima
	if !minima.IsPositive() {
		minima = decimal.NewFromInt(1)
	}
	if minima.GreaterThan(req.CantidadDisponible) {
		return nil, errors.New("minimum quantity exceeds available quantity")
	}

	publication := &models.Publication{
		CropID:             crop.ID,
		VendedorID:         vendedorID,
		PrecioPorUnidad:    req.PrecioPorUnidad,
		UnidadMedida:       req.UnidadMedida,
		CantidadDisponible: req.CantidadDisponible,
		CantidadMinima:     minima,
		Estado:             models.PublicationActiva,
		Descripcion:        req.Descripcion,
	}

	if err := s.db.Create(publication).Error; err != nil {
		return nil, fmt.Errorf("failed to create publication: %w", err)
	}

	return publication, nil
}

func (s *PublicationService) GetByID(publicationID uuid.UUID) (*models.Publication, error) {
	var publication models.Publication
	if err := s.db.Preload("Crop").Preload("Crop.Farm").Preload("Vendedor").
		First(&publication, publicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("publication not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &publication, nil
}

// PublicationQuote prices a listing in the buyer's unit and reports whether
// a requested quantity can be served from the current stock.
type PublicationQuote struct {
	PublicationID      uuid.UUID        `json:"publication_id"`
	Unidad             units.Unit       `json:"unidad"`
	PrecioPorUnidad    decimal.Decimal  `json:"precio_por_unidad"`
	Cantidad           *decimal.Decimal `json:"cantidad,omitempty"`
	Total              *decimal.Decimal `json:"total,omitempty"`
	Disponible         bool             `json:"disponible"`
	CantidadDisponible decimal.Decimal  `json:"cantidad_disponible"`
}

// Quote converts a publication's price and availability into the requested
// unit. A zero cantidad quotes the price and remaining stock only.
func (s *PublicationService) Quote(publicationID uuid.UUID, unidad units.Unit, cantidad decimal.Decimal) (*PublicationQuote, error) {
	var publication models.Publication
	if err := s.db.First(&publication, publicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("publication not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if unidad == "" {
		unidad = publication.UnidadMedida
	}

	price, ok := publication.PriceInUnit(unidad)
	if !ok {
		return nil, fmt.Errorf("cannot convert %s to %s", publication.UnidadMedida, unidad)
	}

	_, remaining := publication.CheckAvailability(decimal.Zero, unidad)
	quote := &PublicationQuote{
		PublicationID:      publication.ID,
		Unidad:             unidad,
		PrecioPorUnidad:    price,
		Disponible:         publication.IsActive() && !publication.IsSoldOut(),
		CantidadDisponible: remaining,
	}

	if cantidad.IsPositive() {
		available, _ := publication.CheckAvailability(cantidad, unidad)
		total := price.Mul(cantidad).Round(2)
		quote.Cantidad = &cantidad
		quote.Total = &total

		// The minimum is stored in the listing's native unit.
		native, _ := units.Convert(cantidad, unidad, publication.UnidadMedida)
		quote.Disponible = quote.Disponible && available &&
			!native.LessThan(publication.CantidadMinima)
	}

	return quote, nil
}

// Search lists active publications in the public catalog.
func (s *PublicationService) Search(filters SearchPublicationsParams, params utils.PaginationParams) ([]models.Publication, int64, error) {
	query := s.db.Model(&models.Publication{}).
		Joins("JOIN crops ON crops.id = publications.crop_id").
		Where("publications.estado = ?", models.PublicationActiva)

	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("crops.nombre ILIKE ? OR publications.descripcion ILIKE ?", like, like)
	}
	if filters.Categoria != "" {
		query = query.Where("crops.categoria = ?", filters.Categoria)
	}
	if filters.Department != "" {
		query = query.Joins("JOIN users ON users.id = publications.vendedor_id").
			Where("users.department = ?", filters.Department)
	}
	if filters.Unit != "" {
		query = query.Where("publications.unidad_medida = ?", filters.Unit)
	}
	if filters.MinPrice != nil {
		query = query.Where("publications.precio_por_unidad >= ?", filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("publications.precio_por_unidad <= ?", filters.MaxPrice)
	}
	if filters.VendedorID != nil {
		query = query.Where("publications.vendedor_id = ?", filters.VendedorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count publications: %w", err)
	}

	allowedSortFields := []string{"created_at", "precio_por_unidad", "cantidad_disponible"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var publications []models.Publication
	if err := query.Preload("Crop").Preload("Vendedor").Find(&publications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch publications: %w", err)
	}

	return publications, total, nil
}

// ListBySeller returns all of a seller's publications regardless of state.
func (s *PublicationService) ListBySeller(vendedorID uuid.UUID, params utils.PaginationParams) ([]models.Publication, int64, error) {
	query := s.db.Model(&models.Publication{}).Where("vendedor_id = ?", vendedorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count publications: %w", err)
	}

	var publications []models.Publication
	if err := utils.ApplyPagination(query.Preload("Crop").Order("created_at DESC"), params).
		Find(&publications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch publications: %w", err)
	}

	return publications, total, nil
}

func (s *PublicationService) Update(vendedorID, publicationID uuid.UUID, req *UpdatePublicationRequest) (*models.Publication, error) {
	publication, err := s.getOwned(vendedorID, publicationID)
	if err != nil {
		return nil, err
	}

	if req.PrecioPorUnidad != nil {
		if !req.PrecioPorUnidad.IsPositive() {
			return nil, errors.New("price must be positive")
		}
		publication.PrecioPorUnidad = *req.PrecioPorUnidad
	}
	if req.CantidadDisponible != nil {
		if req.CantidadDisponible.IsNegative() {
			return nil, errors.New("available quantity cannot be negative")
		}
		publication.CantidadDisponible = *req.CantidadDisponible

		// Restocking an exhausted listing reactivates it
		if publication.Estado == models.PublicationAgotada && req.CantidadDisponible.IsPositive() {
			publication.Estado = models.PublicationActiva
		}
		if publication.IsSoldOut() && publication.Estado == models.PublicationActiva {
			publication.Estado = models.PublicationAgotada
		}
	}
	if req.CantidadMinima != nil {
		if !req.CantidadMinima.IsPositive() {
			return nil, errors.New("minimum quantity must be positive")
		}
		publication.CantidadMinima = *req.CantidadMinima
	}
	if req.Descripcion != nil {
		publication.Descripcion = *req.Descripcion
	}

	if err := s.db.Save(publication).Error; err != nil {
		return nil, fmt.Errorf("failed to update publication: %w", err)
	}

	return publication, nil
}

func (s *PublicationService) Pause(vendedorID, publicationID uuid.UUID) (*models.Publication, error) {
	return s.setStatus(vendedorID, publicationID, models.PublicationActiva, models.PublicationPausada)
}

func (s *PublicationService) Resume(vendedorID, publicationID uuid.UUID) (*models.Publication, error) {
	publication, err := s.getOwned(vendedorID, publicationID)
	if err != nil {
		return nil, err
	}
	if publication.Estado != models.PublicationPausada {
		return nil, errors.New("publication is not paused")
	}
	if publication.IsSoldOut() {
		return nil, errors.New("publication has no stock")
	}

	publication.Estado = models.PublicationActiva
	if err := s.db.Save(publication).Error; err != nil {
		return nil, fmt.Errorf("failed to resume publication: %w", err)
	}
	return publication, nil
}

func (s *PublicationService) Delete(vendedorID, publicationID uuid.UUID) error {
	publication, err := s.getOwned(vendedorID, publicationID)
	if err != nil {
		return err
	}

	var openOrders int64
	s.db.Model(&models.Order{}).
		Where("publication_id = ? AND estado NOT IN ?", publicationID,
			[]models.OrderStatus{models.OrderCompletado, models.OrderCancelado}).
		Count(&openOrders)
	if openOrders > 0 {
		return errors.New("publication has open orders")
	}

	if err := s.db.Delete(publication).Error; err != nil {
		return fmt.Errorf("failed to delete publication: %w", err)
	}
	return nil
}

func (s *PublicationService) getOwned(vendedorID, publicationID uuid.UUID) (*models.Publication, error) {
	var publication models.Publication
	if err := s.db.Where("id = ? AND vendedor_id = ?", publicationID, vendedorID).
		First(&publication).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("publication not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &publication, nil
}

func (s *PublicationService) setStatus(vendedorID, publicationID uuid.UUID, from, to models.PublicationStatus) (*models.Publication, error) {
	publication, err := s.getOwned(vendedorID, publicationID)
	if err != nil {
		return nil, err
	}
	if publication.Estado != from {
		return nil, fmt.Errorf("publication is not %s", from)
	}

	publication.Estado = to
	if err := s.db.Save(publication).Error; err != nil {
		return nil, fmt.Errorf("failed to update publication status: %w", err)
	}
	return publication, nil
}
