// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/config"
	"github.com/itemt/agroconnect-backend/internal/gateway"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrPaymentExists    = errors.New("order already has a payment")
	ErrAmountTooLow     = errors.New("amount is below the allowed minimum")
	ErrAmountMismatch   = errors.New("confirmation amount does not match the payment")
	ErrSimulationClosed = errors.New("simulated payments are only available in test mode")
)

type PaymentService struct {
	db            *gorm.DB
	cfg           *config.Config
	epayco        *gateway.EpaycoClient
	mercadopago   *gateway.MercadoPagoClient
	redis         *redis.Client
	notifications *NotificationService
}

type CheckoutRequest struct {
	OrderID uuid.UUID             `json:"order_id" validate:"required"`
	Gateway models.PaymentGateway `json:"gateway" validate:"required"`
	Method  models.PaymentMethod  `json:"method,omitempty"`
}

// CheckoutResponse is returned to the frontend to start the gateway flow.
type CheckoutResponse struct {
	Payment      *models.Payment       `json:"payment"`
	EpaycoData   *gateway.CheckoutData `json:"epayco_data,omitempty"`
	RedirectURL  string                `json:"redirect_url,omitempty"`
	Simulated    bool                  `json:"simulated"`
}

func NewPaymentService(db *gorm.DB, cfg *config.Config, redisClient *redis.Client, notifications *NotificationService) *PaymentService {
	s := &PaymentService{
		db:            db,
		cfg:           cfg,
		epayco:        gateway.NewEpaycoClient(cfg.Payment),
		redis:         redisClient,
		notifications: notifications,
	}

	if cfg.Payment.MercadoPagoToken != "" {
		mp, err := gateway.NewMercadoPagoClient(cfg.Payment)
		if err != nil {
			logrus.WithError(err).Warn("MercadoPago client unavailable")
		} else {
			s.mercadopago = mp
		}
	}

	return s
}

// Checkout opens a payment for a pendiente order. One live payment per order;
// a cancelled or failed attempt can be replaced by a new checkout.
func (s *PaymentService) Checkout(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CheckoutResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var order models.Order
	if err := s.db.Preload("Publication").Preload("Publication.Crop").
		First(&order, req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if order.CompradorID != userID {
		return nil, ErrNotOrderParty
	}
	if order.Estado != models.OrderPendiente {
		return nil, ErrInvalidTransition
	}

	var existing models.Payment
	err := s.db.Where("order_id = ? AND status NOT IN ?", order.ID,
		[]models.PaymentStatus{models.PaymentCancelled, models.PaymentFailed, models.PaymentRejected}).
		First(&existing).Error
	if err == nil {
		return nil, ErrPaymentExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	minimum := decimal.NewFromFloat(s.cfg.Payment.MinimumAmount)
	if order.PrecioTotal.LessThan(minimum) {
		return nil, ErrAmountTooLow
	}

	reference, err := utils.GeneratePaymentReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment reference: %w", err)
	}

	gatewayName := req.Gateway
	simulated := false
	if !s.cfg.PaymentGatewayConfigured() || gatewayName == models.GatewaySimulado {
		gatewayName = models.GatewaySimulado
		simulated = true
	}

	description := fmt.Sprintf("AgroConnect pedido %s: %s %s de %s",
		order.ID, order.CantidadAcordada, order.UnidadSolicitada, order.Publication.Crop.Nombre)

	payment := &models.Payment{
		OrderID:       order.ID,
		UserID:        userID,
		Gateway:       gatewayName,
		Reference:     reference,
		Amount:        order.PrecioTotal,
		Currency:      s.cfg.Payment.Currency,
		PaymentMethod: req.Method,
		Status:        models.PaymentPending,
		Description:   description,
	}

	resp := &CheckoutResponse{Simulated: simulated}

	switch gatewayName {
	case models.GatewayEpayco:
		if !s.epayco.Configured() {
			return nil, gateway.ErrNotConfigured
		}
		data := s.epayco.BuildCheckout(reference, description, order.PrecioTotal,
			s.cfg.Payment.Currency, s.cfg.Payment.ResponseURL, s.cfg.Payment.ConfirmationURL)
		resp.EpaycoData = &data

	case models.GatewayMercadoPago:
		if s.mercadopago == nil {
			return nil, gateway.ErrNotConfigured
		}
		pref, err := s.mercadopago.CreatePreference(ctx, reference, description, order.PrecioTotal,
			s.cfg.Payment.ResponseURL, s.cfg.Payment.ResponseURL, s.cfg.Payment.ConfirmationURL)
		if err != nil {
			return nil, err
		}
		payment.PreferenceID = pref.ID
		resp.RedirectURL = pref.InitPoint
		if s.cfg.Payment.TestMode && pref.SandboxURL != "" {
			resp.RedirectURL = pref.SandboxURL
		}

	case models.GatewaySimulado:
		// Approved or rejected later through the simulation endpoint

	default:
		return nil, fmt.Errorf("unsupported gateway %q", req.Gateway)
	}

	if err := s.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	resp.Payment = payment
	return resp, nil
}

// Simulate resolves a simulated payment without a real gateway. Only open in
// test mode so production cannot mint approvals.
func (s *PaymentService) Simulate(ctx context.Context, userID, paymentID uuid.UUID, approve bool) (*models.Payment, error) {
	if !s.cfg.Payment.TestMode {
		return nil, ErrSimulationClosed
	}

	payment, err := s.getOwned(userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Gateway != models.GatewaySimulado {
		return nil, errors.New("payment does not use the simulated gateway")
	}
	if !payment.IsPending() {
		return nil, errors.New("payment is not pending")
	}

	conf := &gateway.Confirmation{
		Reference:     payment.Reference,
		TransactionID: fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Method:        string(models.MethodTransfer),
	}
	if approve {
		conf.Status = gateway.ConfirmationApproved
	} else {
		conf.Status = gateway.ConfirmationRejected
	}

	if err := s.applyConfirmation(ctx, conf); err != nil {
		return nil, err
	}
	return s.getOwned(userID, paymentID)
}

func (s *PaymentService) GetByID(userID, paymentID uuid.UUID) (*models.Payment, error) {
	return s.getOwned(userID, paymentID)
}

func (s *PaymentService) GetForOrder(userID, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if order.CompradorID != userID && order.VendedorID != userID {
		return nil, ErrNotOrderParty
	}
	return &payment, nil
}

// ListForUser returns the user's payment history, newest first.
func (s *PaymentService) ListForUser(userID uuid.UUID, params utils.PaginationParams) ([]models.Payment, int64, error) {
	query := s.db.Model(&models.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var payments []models.Payment
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).
		Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}
	return payments, total, nil
}

// Cancel drops a pending payment so a new checkout can start.
func (s *PaymentService) Cancel(userID, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.getOwned(userID, paymentID)
	if err != nil {
		return nil, err
	}

	result := s.db.Model(&models.Payment{}).
		Where("id = ? AND status IN ?", payment.ID,
			[]models.PaymentStatus{models.PaymentPending, models.PaymentInProcess}).
		Update("status", models.PaymentCancelled)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to cancel payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errors.New("payment is not pending")
	}

	payment.Status = models.PaymentCancelled
	return payment, nil
}

// ProcessEpaycoConfirmation handles the gateway's server-to-server POST.
func (s *PaymentService) ProcessEpaycoConfirmation(ctx context.Context, form url.Values) error {
	conf, err := s.epayco.ParseConfirmation(form)
	if err != nil {
		return err
	}

	if !s.claimWebhook(ctx, "epayco", conf.TransactionID) {
		logrus.WithField("transaction_id", conf.TransactionID).Info("Duplicate ePayco confirmation ignored")
		return nil
	}

	return s.applyConfirmation(ctx, conf)
}

// ProcessMercadoPagoWebhook handles the notification for a payment id. The
// webhook body is untrusted; the payment state is fetched from the API.
func (s *PaymentService) ProcessMercadoPagoWebhook(ctx context.Context, paymentID string) error {
	if s.mercadopago == nil {
		return gateway.ErrNotConfigured
	}

	if !s.claimWebhook(ctx, "mercadopago", paymentID) {
		logrus.WithField("payment_id", paymentID).Info("Duplicate MercadoPago notification ignored")
		return nil
	}

	conf, err := s.mercadopago.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	return s.applyConfirmation(ctx, conf)
}

func (s *PaymentService) applyConfirmation(ctx context.Context, conf *gateway.Confirmation) error {
	var payment models.Payment
	if err := s.db.Where("reference = ?", conf.Reference).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if !conf.Amount.IsZero() && !conf.Amount.Equal(payment.Amount) {
		logrus.WithFields(logrus.Fields{
			"reference": conf.Reference,
			"expected":  payment.Amount.String(),
			"got":       conf.Amount.String(),
		}).Error("Confirmation amount mismatch")
		return ErrAmountMismatch
	}

	switch conf.Status {
	case gateway.ConfirmationApproved:
		return s.markAsApproved(&payment, conf)
	case gateway.ConfirmationRejected, gateway.ConfirmationFailed:
		return s.markAsRejected(&payment, conf)
	case gateway.ConfirmationPending:
		return s.markInProcess(&payment, conf)
	default:
		return fmt.Errorf("unknown confirmation status %q", conf.Status)
	}
}

// markAsApproved flips pending -> approved exactly once and takes the stock.
// A replayed approval hits zero affected rows and becomes a no-op.
func (s *PaymentService) markAsApproved(payment *models.Payment, conf *gateway.Confirmation) error {
	now := time.Now()

	var approvedNow bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status IN ?", payment.ID,
				[]models.PaymentStatus{models.PaymentPending, models.PaymentInProcess}).
			Updates(map[string]interface{}{
				"status":         models.PaymentApproved,
				"transaction_id": conf.TransactionID,
				"payment_method": methodFromConfirmation(conf.Method),
				"response_data":  models.JSONB(conf.Raw),
				"paid_at":        now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to approve payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Already settled, nothing more to do
			return nil
		}
		approvedNow = true

		var order models.Order
		if err := tx.First(&order, payment.OrderID).Error; err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}

		return takeStock(tx, &order)
	})
	if err != nil {
		return err
	}

	if approvedNow && s.notifications != nil {
		var order models.Order
		if err := s.db.First(&order, payment.OrderID).Error; err == nil {
			payment.Status = models.PaymentApproved
			payment.PaidAt = &now
			s.notifications.NotifyPaymentApproved(payment, &order)
		}
	}
	return nil
}

// markAsRejected settles the payment as rejected. When an earlier approval
// already captured stock, the quantity goes back and the order is cancelled.
func (s *PaymentService) markAsRejected(payment *models.Payment, conf *gateway.Confirmation) error {
	wasCaptured := payment.WasCaptured()

	var rejectedNow bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status IN ?", payment.ID,
				[]models.PaymentStatus{models.PaymentPending, models.PaymentInProcess, models.PaymentApproved}).
			Updates(map[string]interface{}{
				"status":         models.PaymentRejected,
				"transaction_id": conf.TransactionID,
				"response_data":  models.JSONB(conf.Raw),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to reject payment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		rejectedNow = true

		var order models.Order
		if err := tx.First(&order, payment.OrderID).Error; err != nil {
			return fmt.Errorf("failed to load order: %w", err)
		}

		if wasCaptured {
			if err := restoreStock(tx, &order); err != nil {
				return err
			}
		}

		// A rejected payment force-cancels the order unless it already closed
		if !order.IsTerminal() {
			order.Estado = models.OrderCancelado
			order.MotivoCancelacion = "pago rechazado por la pasarela"
			if err := tx.Save(&order).Error; err != nil {
				return fmt.Errorf("failed to cancel order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if rejectedNow && s.notifications != nil {
		var order models.Order
		if err := s.db.First(&order, payment.OrderID).Error; err == nil {
			payment.Status = models.PaymentRejected
			s.notifications.NotifyPaymentRejected(payment, &order)
		}
	}
	return nil
}

func (s *PaymentService) markInProcess(payment *models.Payment, conf *gateway.Confirmation) error {
	return s.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":         models.PaymentInProcess,
			"transaction_id": conf.TransactionID,
			"response_data":  models.JSONB(conf.Raw),
		}).Error
}

// claimWebhook reserves a webhook delivery id so replays short-circuit before
// touching the database. Redis being down degrades to the conditional updates
// alone, which stay correct.
func (s *PaymentService) claimWebhook(ctx context.Context, gatewayName, deliveryID string) bool {
	if s.redis == nil || deliveryID == "" {
		return true
	}

	key := fmt.Sprintf("webhook:%s:%s", gatewayName, deliveryID)
	ok, err := s.redis.SetNX(ctx, key, 1, 24*time.Hour).Result()
	if err != nil {
		logrus.WithError(err).Warn("Webhook dedup unavailable, relying on conditional updates")
		return true
	}
	return ok
}

func (s *PaymentService) getOwned(userID, paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Where("id = ? AND user_id = ?", paymentID, userID).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &payment, nil
}

// takeStock removes the order's quantity from the publication under a
// non-negative guard and flips the listing to agotada when it empties.
func takeStock(tx *gorm.DB, order *models.Order) error {
	var publication models.Publication
	if err := tx.First(&publication, order.PublicationID).Error; err != nil {
		return fmt.Errorf("failed to load publication: %w", err)
	}

	native, ok := units.Convert(order.CantidadAcordada, order.UnidadSolicitada, publication.UnidadMedida)
	if !ok {
		native = order.CantidadAcordada
	}

	result := tx.Model(&models.Publication{}).
		Where("id = ? AND cantidad_disponible >= ?", publication.ID, native).
		Update("cantidad_disponible", gorm.Expr("cantidad_disponible - ?", native))
	if result.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Payment already settled; clamp instead of going negative and let
		// the seller resolve the oversell
		logrus.WithFields(logrus.Fields{
			"publication_id": publication.ID,
			"order_id":       order.ID,
		}).Warn("Stock short at payment approval, clamping to zero")
		if err := tx.Model(&models.Publication{}).
			Where("id = ?", publication.ID).
			Update("cantidad_disponible", decimal.Zero).Error; err != nil {
			return fmt.Errorf("failed to clamp stock: %w", err)
		}
	}

	if err := tx.Model(&models.Publication{}).
		Where("id = ? AND cantidad_disponible <= 0 AND estado = ?", publication.ID, models.PublicationActiva).
		Update("estado", models.PublicationAgotada).Error; err != nil {
		return fmt.Errorf("failed to flag publication agotada: %w", err)
	}
	return nil
}

func methodFromConfirmation(method string) models.PaymentMethod {
	switch method {
	case "PSE", "pse":
		return models.MethodPSE
	case "", "cash", "efectivo":
		return models.MethodCash
	case string(models.MethodTransfer):
		return models.MethodTransfer
	default:
		return models.MethodCard
	}
}
