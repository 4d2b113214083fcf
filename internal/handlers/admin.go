// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/itemt/agroconnect-backend/internal/i18n"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	role := models.UserRole(c.Query("role"))
	status := models.UserStatus(c.Query("status"))
	search := c.Query("search")

	users, total, err := h.adminService.ListUsers(role, status, search, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// POST /admin/users/:id/suspend
func (h *AdminHandler) SuspendUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.SuspendUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	user, err := h.adminService.SuspendUser(adminID, userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminUserSuspended),
		"user":    user,
	})
}

// POST /admin/users/:id/reactivate
func (h *AdminHandler) ReactivateUser(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.adminService.ReactivateUser(userID)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminUserReactivated),
		"user":    user,
	})
}

// GET /admin/orders
func (h *AdminHandler) ListOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	estado := models.OrderStatus(c.Query("estado"))

	orders, total, err := h.adminService.ListOrders(estado, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /admin/payments
func (h *AdminHandler) ListPayments(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	status := models.PaymentStatus(c.Query("status"))

	payments, total, err := h.adminService.ListPayments(status, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payments, total, params))
}
