// internal/services/cart_service.go
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

type CartService struct {
	db *gorm.DB
}

type AddCartItemRequest struct {
	PublicationID uuid.UUID       `json:"publication_id" validate:"required"`
	Cantidad      decimal.Decimal `json:"cantidad" validate:"required"`
	Unidad        units.Unit      `json:"unidad" validate:"required,unit"`
}

type UpdateCartItemRequest struct {
	Cantidad decimal.Decimal `json:"cantidad" validate:"required"`
	Unidad   units.Unit      `json:"unidad,omitempty" validate:"omitempty,unit"`
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// GetCart returns the user's cart, creating it on first use.
func (s *CartService) GetCart(userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Preload("Items").
		Preload("Items.Publication").Preload("Items.Publication.Crop").
		Where("user_id = ?", userID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := s.db.Create(&cart).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		return &cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &cart, nil
}

func (s *CartService) AddItem(userID uuid.UUID, req *AddCartItemRequest) (*models.Cart, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Cantidad.IsPositive() {
		return nil, errors.New("quantity must be positive")
	}

	var publication models.Publication
	if err := s.db.First(&publication, req.PublicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("publication not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.validateItem(userID, &publication, req.Cantidad, req.Unidad); err != nil {
		return nil, err
	}

	cart, err := s.GetCart(userID)
	if err != nil {
		return nil, err
	}

	// Re-adding a listing replaces the prior line
	var item models.CartItem
	err = s.db.Where("cart_id = ? AND publication_id = ?", cart.ID, publication.ID).
		First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			CartID:        cart.ID,
			PublicationID: publication.ID,
			Cantidad:      req.Cantidad,
			Unidad:        req.Unidad,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to add cart item: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	default:
		item.Cantidad = req.Cantidad
		item.Unidad = req.Unidad
		if err := s.db.Save(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	}

	return s.GetCart(userID)
}

func (s *CartService) UpdateItem(userID, itemID uuid.UUID, req *UpdateCartItemRequest) (*models.Cart, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Cantidad.IsPositive() {
		return nil, errors.New("quantity must be positive")
	}

	item, err := s.getOwnedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	unidad := item.Unidad
	if req.Unidad != "" {
		unidad = req.Unidad
	}

	if err := s.validateItem(userID, &item.Publication, req.Cantidad, unidad); err != nil {
		return nil, err
	}

	item.Cantidad = req.Cantidad
	item.Unidad = unidad
	if err := s.db.Save(item).Error; err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return s.GetCart(userID)
}

func (s *CartService) RemoveItem(userID, itemID uuid.UUID) (*models.Cart, error) {
	item, err := s.getOwnedItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Delete(item).Error; err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	return s.GetCart(userID)
}

func (s *CartService) Clear(userID uuid.UUID) error {
	cart, err := s.GetCart(userID)
	if err != nil {
		return err
	}

	if err := s.db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartService) validateItem(userID uuid.UUID, publication *models.Publication, cantidad decimal.Decimal, unidad units.Unit) error {
	if publication.VendedorID == userID {
		return errors.New("cannot buy your own publication")
	}
	if !publication.IsActive() {
		return errors.New("publication is not active")
	}

	// Mixed weight/discrete units never compare
	if unidad != publication.UnidadMedida && !(units.IsConvertible(unidad) && units.IsConvertible(publication.UnidadMedida)) {
		return errors.New("requested unit is not convertible to the listing unit")
	}

	available, _ := publication.CheckAvailability(cantidad, unidad)
	if !available {
		return errors.New("requested quantity not available")
	}

	native, ok := units.Convert(cantidad, unidad, publication.UnidadMedida)
	if !ok {
		native = cantidad
	}
	if native.LessThan(publication.CantidadMinima) {
		return errors.New("quantity is below the minimum purchase amount")
	}

	return nil
}

func (s *CartService) getOwnedItem(userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.db.Preload("Publication").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("cart item not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &item, nil
}
