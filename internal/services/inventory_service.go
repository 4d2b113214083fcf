// internal/services/inventory_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

// InventoryService manages a producer's farms and crops, the raw material
// behind marketplace publications.
type InventoryService struct {
	db *gorm.DB
}

type CreateFarmRequest struct {
	Name            string          `json:"name" validate:"required,min=3,max=150"`
	Location        string          `json:"location" validate:"required"`
	AreaHectareas   decimal.Decimal `json:"area_hectareas" validate:"required"`
	Certificaciones []string        `json:"certificaciones,omitempty"`
	Description     string          `json:"description,omitempty"`
}

type UpdateFarmRequest struct {
	Name            string           `json:"name,omitempty"`
	Location        string           `json:"location,omitempty"`
	AreaHectareas   *decimal.Decimal `json:"area_hectareas,omitempty"`
	Certificaciones []string         `json:"certificaciones,omitempty"`
	Description     *string          `json:"description,omitempty"`
}

type CreateCropRequest struct {
	FarmID              *uuid.UUID          `json:"farm_id,omitempty"`
	Nombre              string              `json:"nombre" validate:"required,min=2,max=100"`
	Categoria           models.CropCategory `json:"categoria" validate:"required"`
	CantidadEstimada    decimal.Decimal     `json:"cantidad_estimada"`
	UnidadMedida        units.Unit          `json:"unidad_medida" validate:"required,unit"`
	Estado              models.CropState    `json:"estado,omitempty"`
	FechaDisponibilidad *time.Time          `json:"fecha_disponibilidad,omitempty"`
	Notas               string              `json:"notas,omitempty"`
}

type UpdateCropRequest struct {
	FarmID              *uuid.UUID          `json:"farm_id,omitempty"`
	Nombre              string              `json:"nombre,omitempty"`
	Categoria           models.CropCategory `json:"categoria,omitempty"`
	CantidadEstimada    *decimal.Decimal    `json:"cantidad_estimada,omitempty"`
	UnidadMedida        units.Unit          `json:"unidad_medida,omitempty" validate:"omitempty,unit"`
	Estado              models.CropState    `json:"estado,omitempty"`
	FechaDisponibilidad *time.Time          `json:"fecha_disponibilidad,omitempty"`
	ImagenURL           *string             `json:"imagen_url,omitempty"`
	Notas               *string             `json:"notas,omitempty"`
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// Farms

func (s *InventoryService) CreateFarm(productorID uuid.UUID, req *CreateFarmRequest) (*models.Farm, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !req.AreaHectareas.IsPositive() {
		return nil, errors.New("area must be positive")
	}

	farm := &models.Farm{
		ProductorID:     productorID,
		Name:            req.Name,
		Location:        req.Location,
		AreaHectareas:   req.AreaHectareas,
		Certificaciones: req.Certificaciones,
		Description:     req.Description,
	}

	if err := s.db.Create(farm).Error; err != nil {
		return nil, fmt.Errorf("failed to create farm: %w", err)
	}

	return farm, nil
}

func (s *InventoryService) GetFarm(productorID, farmID uuid.UUID) (*models.Farm, error) {
	var farm models.Farm
	if err := s.db.Preload("Crops").
		Where("id = ? AND productor_id = ?", farmID, productorID).
		First(&farm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("farm not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &farm, nil
}

func (s *InventoryService) ListFarms(productorID uuid.UUID, params utils.PaginationParams) ([]models.Farm, int64, error) {
	query := s.db.Model(&models.Farm{}).Where("productor_id = ?", productorID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count farms: %w", err)
	}

	var farms []models.Farm
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&farms).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch farms: %w", err)
	}

	return farms, total, nil
}

func (s *InventoryService) UpdateFarm(productorID, farmID uuid.UUID, req *UpdateFarmRequest) (*models.Farm, error) {
	farm, err := s.GetFarm(productorID, farmID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		farm.Name = req.Name
	}
	if req.Location != "" {
		farm.Location = req.Location
	}
	if req.AreaHectareas != nil {
		if !req.AreaHectareas.IsPositive() {
			return nil, errors.New("area must be positive")
		}
		farm.AreaHectareas = *req.AreaHectareas
	}
	if req.Certificaciones != nil {
		farm.Certificaciones = req.Certificaciones
	}
	if req.Description != nil {
		farm.Description = *req.Description
	}

	if err := s.db.Save(farm).Error; err != nil {
		return nil, fmt.Errorf("failed to update farm: %w", err)
	}

	return farm, nil
}

func (s *InventoryService) DeleteFarm(productorID, farmID uuid.UUID) error {
	farm, err := s.GetFarm(productorID, farmID)
	if err != nil {
		return err
	}

	// Crops stay but lose their farm link
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Crop{}).
			Where("farm_id = ?", farmID).
			Update("farm_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach crops: %w", err)
		}
		if err := tx.Delete(farm).Error; err != nil {
			return fmt.Errorf("failed to delete farm: %w", err)
		}
		return nil
	})
}

// Crops

func (s *InventoryService) CreateCrop(productorID uuid.UUID, req *CreateCropRequest) (*models.Crop, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.FarmID != nil {
		if _, err := s.GetFarm(productorID, *req.FarmID); err != nil {
			return nil, err
		}
	}

	estado := req.Estado
	if estado == "" {
		estado = models.CropSembrado
	}

	crop := &models.Crop{
		ProductorID:         productorID,
		FarmID:              req.FarmID,
		Nombre:              req.Nombre,
		Categoria:           req.Categoria,
		CantidadEstimada:    req.CantidadEstimada,
		UnidadMedida:        req.UnidadMedida,
		Estado:              estado,
		FechaDisponibilidad: req.FechaDisponibilidad,
		Notas:               req.Notas,
	}

	if err := s.db.Create(crop).Error; err != nil {
		return nil, fmt.Errorf("failed to create crop: %w", err)
	}

	return crop, nil
}

func (s *InventoryService) GetCrop(productorID, cropID uuid.UUID) (*models.Crop, error) {
	var crop models.Crop
	if err := s.db.Preload("Farm").
		Where("id = ? AND productor_id = ?", cropID, productorID).
		First(&crop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("crop not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &crop, nil
}

func (s *InventoryService) ListCrops(productorID uuid.UUID, estado models.CropState, params utils.PaginationParams) ([]models.Crop, int64, error) {
	query := s.db.Model(&models.Crop{}).Where("productor_id = ?", productorID)
	if estado != "" {
		query = query.Where("estado = ?", estado)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count crops: %w", err)
	}

	var crops []models.Crop
	if err := utils.ApplyPagination(query.Preload("Farm").Order("created_at DESC"), params).
		Find(&crops).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch crops: %w", err)
	}

	return crops, total, nil
}

func (s *InventoryService) UpdateCrop(productorID, cropID uuid.UUID, req *UpdateCropRequest) (*models.Crop, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	crop, err := s.GetCrop(productorID, cropID)
	if err != nil {
		return nil, err
	}

	if req.FarmID != nil {
		if _, err := s.GetFarm(productorID, *req.FarmID); err != nil {
			return nil, err
		}
		crop.FarmID = req.FarmID
	}
	if req.Nombre != "" {
		crop.Nombre = req.Nombre
	}
	if req.Categoria != "" {
		crop.Categoria = req.Categoria
	}
	if req.CantidadEstimada != nil {
		crop.CantidadEstimada = *req.CantidadEstimada
	}
	if req.UnidadMedida != "" {
		crop.UnidadMedida = req.UnidadMedida
	}
	if req.Estado != "" {
		crop.Estado = req.Estado
	}
	if req.FechaDisponibilidad != nil {
		crop.FechaDisponibilidad = req.FechaDisponibilidad
	}
	if req.ImagenURL != nil {
		crop.ImagenURL = *req.ImagenURL
	}
	if req.Notas != nil {
		crop.Notas = *req.Notas
	}

	if err := s.db.Save(crop).Error; err != nil {
		return nil, fmt.Errorf("failed to update crop: %w", err)
	}

	return crop, nil
}

func (s *InventoryService) DeleteCrop(productorID, cropID uuid.UUID) error {
	crop, err := s.GetCrop(productorID, cropID)
	if err != nil {
		return err
	}

	// A crop with a live listing cannot disappear from under it
	var activeCount int64
	s.db.Model(&models.Publication{}).
		Where("crop_id = ? AND estado = ?", cropID, models.PublicationActiva).
		Count(&activeCount)
	if activeCount > 0 {
		return errors.New("crop has an active publication")
	}

	if err := s.db.Delete(crop).Error; err != nil {
		return fmt.Errorf("failed to delete crop: %w", err)
	}

	return nil
}
