// internal/services/user_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateUserProfileRequest struct {
	FirstName  string  `json:"first_name,omitempty"`
	LastName   string  `json:"last_name,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	City       string  `json:"city,omitempty"`
	Department string  `json:"department,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`

	// Producer fields
	Location        *string `json:"location,omitempty"`
	FarmDescription *string `json:"farm_description,omitempty"`
	MainCrops       *string `json:"main_crops,omitempty"`

	// Buyer fields
	CompanyName  *string `json:"company_name,omitempty"`
	BusinessType *string `json:"business_type,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,strong_password"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("ProducerProfile").Preload("BuyerProfile").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// GetPublicProfile returns the fields visible to other marketplace users.
func (s *UserService) GetPublicProfile(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Select("id, username, role, first_name, last_name, city, department, created_at").
		Preload("ProducerProfile").
		First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(userID uuid.UUID, req *UpdateUserProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.Preload("ProducerProfile").Preload("BuyerProfile").First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.City != "" {
		user.City = req.City
	}
	if req.Department != "" {
		user.Department = req.Department
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}

		if user.Role == models.RoleProductor && user.ProducerProfile != nil {
			profile := user.ProducerProfile
			if req.Location != nil {
				profile.Location = *req.Location
			}
			if req.FarmDescription != nil {
				profile.FarmDescription = *req.FarmDescription
			}
			if req.MainCrops != nil {
				profile.MainCrops = *req.MainCrops
			}
			if err := tx.Save(profile).Error; err != nil {
				return fmt.Errorf("failed to update producer profile: %w", err)
			}
		}

		if user.Role == models.RoleComprador && user.BuyerProfile != nil {
			profile := user.BuyerProfile
			if req.CompanyName != nil {
				profile.CompanyName = *req.CompanyName
			}
			if req.BusinessType != nil {
				profile.BusinessType = *req.BusinessType
			}
			if err := tx.Save(profile).Error; err != nil {
				return fmt.Errorf("failed to update buyer profile: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserService) ChangePassword(userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	if err := user.CheckPassword(req.CurrentPassword); err != nil {
		return errors.New("invalid current password")
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (s *UserService) DeleteAccount(userID uuid.UUID, password string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	if err := user.CheckPassword(password); err != nil {
		return errors.New("invalid password")
	}

	// Accounts with orders still in flight cannot be removed
	var openOrders int64
	s.db.Model(&models.Order{}).
		Where("(comprador_id = ? OR vendedor_id = ?) AND estado NOT IN ?",
			userID, userID, []models.OrderStatus{models.OrderCompletado, models.OrderCancelado}).
		Count(&openOrders)
	if openOrders > 0 {
		return errors.New("account has active orders")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Publication{}).
			Where("vendedor_id = ? AND estado = ?", userID, models.PublicationActiva).
			Update("estado", models.PublicationPausada).Error; err != nil {
			return fmt.Errorf("failed to pause listings: %w", err)
		}

		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		return nil
	})
}
