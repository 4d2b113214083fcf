// internal/handlers/order.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/itemt/agroconnect-backend/internal/i18n"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.orderService.Create(userID, &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderCreated),
		"order":   order,
	})
}

// GET /orders/purchases
func (h *OrderHandler) ListPurchases(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	estado := models.OrderStatus(c.Query("estado"))

	orders, total, err := h.orderService.ListForBuyer(userID, estado, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /orders/sales
func (h *OrderHandler) ListSales(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	estado := models.OrderStatus(c.Query("estado"))

	orders, total, err := h.orderService.ListForSeller(userID, estado, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /orders/:id
func (h *OrderHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(userID, orderID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /orders/:id/confirm
func (h *OrderHandler) Confirm(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		NotasVendedor string `json:"notas_vendedor,omitempty"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.Confirm(userID, orderID, req.NotasVendedor)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderConfirmed),
		"order":   order,
	})
}

// POST /orders/:id/prepare
func (h *OrderHandler) StartPreparation(c *gin.Context) {
	h.transition(c, i18n.KeyOrderInPreparation, h.orderService.StartPreparation)
}

// POST /orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		FechaEntregaEstimada *time.Time `json:"fecha_entrega_estimada,omitempty"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.Ship(userID, orderID, req.FechaEntregaEstimada)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderShipped),
		"order":   order,
	})
}

// POST /orders/:id/transit
func (h *OrderHandler) MarkInTransit(c *gin.Context) {
	h.transition(c, i18n.KeyOrderInTransit, h.orderService.MarkInTransit)
}

// POST /orders/:id/receive
func (h *OrderHandler) MarkReceived(c *gin.Context) {
	h.transition(c, i18n.KeyOrderReceived, h.orderService.MarkReceived)
}

// POST /orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, i18n.KeyOrderCompleted, h.orderService.Complete)
}

// POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.orderService.Cancel(userID, orderID, &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderCancelled),
		"order":   order,
	})
}

// transition wraps the no-body state transition endpoints.
func (h *OrderHandler) transition(c *gin.Context, messageKey string, fn func(uuid.UUID, uuid.UUID) (*models.Order, error)) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := fn(userID, orderID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"order":   order,
	})
}

func (h *OrderHandler) renderError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, "order")
	case errors.Is(err, services.ErrNotOrderParty):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrOrderNotPaid):
		utils.ErrorResponse(c, http.StatusConflict, "ORDER_NOT_PAID", i18n.T(lang, i18n.KeyOrderNotPaid), nil)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION", i18n.T(lang, i18n.KeyOrderInvalidTransition), nil)
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}
