// internal/handlers/payment.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/itemt/agroconnect-backend/internal/gateway"
	"github.com/itemt/agroconnect-backend/internal/i18n"
	"github.com/itemt/agroconnect-backend/internal/services"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /payments/checkout
func (h *PaymentHandler) Checkout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	resp, err := h.paymentService.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// POST /payments/:id/simulate
func (h *PaymentHandler) Simulate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	paymentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	payment, err := h.paymentService.Simulate(c.Request.Context(), userID, paymentID, req.Approve)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET /payments
func (h *PaymentHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	payments, total, err := h.paymentService.ListForUser(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(payments, total, params))
}

// GET /payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	paymentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetByID(userID, paymentID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}

// GET /orders/:id/payment
func (h *PaymentHandler) GetForOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetForOrder(userID, orderID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, payment)
}

// POST /payments/:id/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	paymentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.Cancel(userID, paymentID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentCancelled),
		"payment": payment,
	})
}

func (h *PaymentHandler) renderError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrPaymentNotFound):
		utils.NotFoundResponse(c, "payment")
	case errors.Is(err, services.ErrOrderNotFound):
		utils.NotFoundResponse(c, "order")
	case errors.Is(err, services.ErrNotOrderParty):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrPaymentExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPaymentAlreadyExists))
	case errors.Is(err, services.ErrAmountTooLow):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyPaymentBelowMinimum), nil)
	default:
		utils.BadRequestResponse(c, err.Error(), nil)
	}
}

// WebhookHandler terminates the gateway callbacks. These endpoints answer
// with bare status codes: the caller is a payment gateway, not the SPA.
type WebhookHandler struct {
	paymentService *services.PaymentService
}

func NewWebhookHandler(paymentService *services.PaymentService) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
	}
}

// POST /webhooks/epayco
func (h *WebhookHandler) EpaycoConfirmation(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err := h.paymentService.ProcessEpaycoConfirmation(c.Request.Context(), c.Request.PostForm)
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, gateway.ErrInvalidSignature):
		logrus.WithField("remote", c.ClientIP()).Warn("epayco confirmation with invalid signature")
		c.Status(http.StatusBadRequest)
	case errors.Is(err, services.ErrPaymentNotFound):
		c.Status(http.StatusNotFound)
	default:
		logrus.WithError(err).Error("epayco confirmation failed")
		c.Status(http.StatusInternalServerError)
	}
}

// POST /webhooks/mercadopago
func (h *WebhookHandler) MercadoPagoNotification(c *gin.Context) {
	// The body is advisory only; the payment state is fetched from the API.
	var body struct {
		Type string `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Data.ID == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	if body.Type != "" && body.Type != "payment" {
		c.Status(http.StatusOK)
		return
	}

	err := h.paymentService.ProcessMercadoPagoWebhook(c.Request.Context(), body.Data.ID)
	switch {
	case err == nil:
		c.Status(http.StatusOK)
	case errors.Is(err, services.ErrPaymentNotFound):
		c.Status(http.StatusNotFound)
	default:
		logrus.WithError(err).Error("mercadopago notification failed")
		c.Status(http.StatusInternalServerError)
	}
}
