// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type AdminService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// DashboardStats is the admin landing snapshot.
type DashboardStats struct {
	TotalUsers        int64           `json:"total_users"`
	TotalProductores  int64           `json:"total_productores"`
	TotalCompradores  int64           `json:"total_compradores"`
	SuspendedUsers    int64           `json:"suspended_users"`
	ActiveListings    int64           `json:"active_listings"`
	SoldOutListings   int64           `json:"sold_out_listings"`
	OrdersByStatus    map[string]int64 `json:"orders_by_status"`
	CompletedRevenue  decimal.Decimal `json:"completed_revenue"`
	ApprovedPayments  int64           `json:"approved_payments"`
	NewUsersThisMonth int64           `json:"new_users_this_month"`
}

type SuspendUserRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func NewAdminService(db *gorm.DB, notifications *NotificationService) *AdminService {
	return &AdminService{
		db:            db,
		notifications: notifications,
	}
}

func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{OrdersByStatus: make(map[string]int64)}

	s.db.Model(&models.User{}).Count(&stats.TotalUsers)
	s.db.Model(&models.User{}).Where("role = ?", models.RoleProductor).Count(&stats.TotalProductores)
	s.db.Model(&models.User{}).Where("role = ?", models.RoleComprador).Count(&stats.TotalCompradores)
	s.db.Model(&models.User{}).Where("status = ?", models.UserStatusSuspendido).Count(&stats.SuspendedUsers)

	s.db.Model(&models.Publication{}).Where("estado = ?", models.PublicationActiva).Count(&stats.ActiveListings)
	s.db.Model(&models.Publication{}).Where("estado = ?", models.PublicationAgotada).Count(&stats.SoldOutListings)

	var rows []struct {
		Estado models.OrderStatus
		Count  int64
	}
	if err := s.db.Model(&models.Order{}).
		Select("estado, COUNT(*) as count").
		Group("estado").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate orders: %w", err)
	}
	for _, row := range rows {
		stats.OrdersByStatus[string(row.Estado)] = row.Count
	}

	if err := s.db.Model(&models.Order{}).
		Where("estado = ?", models.OrderCompletado).
		Select("COALESCE(SUM(precio_total), 0)").
		Scan(&stats.CompletedRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}

	s.db.Model(&models.Payment{}).Where("status = ?", models.PaymentApproved).Count(&stats.ApprovedPayments)

	monthStart := time.Now().AddDate(0, 0, -30)
	s.db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	return stats, nil
}

func (s *AdminService) ListUsers(role models.UserRole, status models.UserStatus, search string, params utils.PaginationParams) ([]models.User, int64, error) {
	query := s.db.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?",
			like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "username", "email", "last_login_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

func (s *AdminService) SuspendUser(adminID, userID uuid.UUID, req *SuspendUserRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if adminID == userID {
		return nil, errors.New("cannot suspend your own account")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user.Role == models.RoleAdmin {
		return nil, errors.New("cannot suspend an admin account")
	}
	if user.Status == models.UserStatusSuspendido {
		return nil, errors.New("user is already suspended")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		user.Status = models.UserStatusSuspendido
		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("failed to suspend user: %w", err)
		}

		// A suspended seller's catalog goes dark immediately
		if user.Role == models.RoleProductor {
			if err := tx.Model(&models.Publication{}).
				Where("vendedor_id = ? AND estado = ?", userID, models.PublicationActiva).
				Update("estado", models.PublicationPausada).Error; err != nil {
				return fmt.Errorf("failed to pause listings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		_ = s.notifications.Notify(userID, "account_suspended", "Cuenta suspendida", req.Reason, nil)
	}

	return &user, nil
}

func (s *AdminService) ReactivateUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user.Status != models.UserStatusSuspendido {
		return nil, errors.New("user is not suspended")
	}

	user.Status = models.UserStatusActivo
	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to reactivate user: %w", err)
	}

	return &user, nil
}

// ListOrders gives admins visibility across all marketplace orders.
func (s *AdminService) ListOrders(estado models.OrderStatus, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{})
	if estado != "" {
		query = query.Where("estado = ?", estado)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := utils.ApplyPagination(query.Preload("Publication").Preload("Publication.Crop").
		Preload("Comprador").Preload("Vendedor").Preload("Payment").
		Order("created_at DESC"), params).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

func (s *AdminService) ListPayments(status models.PaymentStatus, params utils.PaginationParams) ([]models.Payment, int64, error) {
	query := s.db.Model(&models.Payment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var payments []models.Payment
	if err := utils.ApplyPagination(query.Preload("Order").Preload("User").
		Order("created_at DESC"), params).
		Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	return payments, total, nil
}
