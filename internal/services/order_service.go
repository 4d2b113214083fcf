// internal/services/order_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/units"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("order does not allow this operation in its current state")
	ErrOrderNotPaid       = errors.New("order does not have an approved payment")
	ErrNotOrderParty      = errors.New("user is not a party to this order")
)

type OrderService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type CreateOrderRequest struct {
	PublicationID    uuid.UUID       `json:"publication_id" validate:"required"`
	Cantidad         decimal.Decimal `json:"cantidad" validate:"required"`
	Unidad           units.Unit      `json:"unidad" validate:"required,unit"`
	DireccionEntrega string          `json:"direccion_entrega" validate:"required"`
	NotasComprador   string          `json:"notas_comprador,omitempty"`
}

type CancelOrderRequest struct {
	Motivo string `json:"motivo" validate:"required"`
}

func NewOrderService(db *gorm.DB, notifications *NotificationService) *OrderService {
	return &OrderService{
		db:            db,
		notifications: notifications,
	}
}

// Create places a pendiente order. Stock is reserved when the payment is
// approved, not here, so an abandoned checkout never locks inventory.
func (s *OrderService) Create(compradorID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !req.Cantidad.IsPositive() {
		return nil, errors.New("quantity must be positive")
	}

	var publication models.Publication
	if err := s.db.Preload("Crop").First(&publication, req.PublicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("publication not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if publication.VendedorID == compradorID {
		return nil, errors.New("cannot buy your own publication")
	}
	if !publication.IsActive() {
		return nil, errors.New("publication is not active")
	}
	if req.Unidad != publication.UnidadMedida &&
		!(units.IsConvertible(req.Unidad) && units.IsConvertible(publication.UnidadMedida)) {
		return nil, errors.New("requested unit is not convertible to the listing unit")
	}

	available, _ := publication.CheckAvailability(req.Cantidad, req.Unidad)
	if !available {
		return nil, errors.New("requested quantity not available")
	}

	native, ok := units.Convert(req.Cantidad, req.Unidad, publication.UnidadMedida)
	if !ok {
		native = req.Cantidad
	}
	if native.LessThan(publication.CantidadMinima) {
		return nil, errors.New("quantity is below the minimum purchase amount")
	}

	total := orderTotal(&publication, req.Cantidad, req.Unidad)

	order := &models.Order{
		PublicationID:    publication.ID,
		CompradorID:      compradorID,
		VendedorID:       publication.VendedorID,
		CantidadAcordada: req.Cantidad,
		UnidadSolicitada: req.Unidad,
		PrecioTotal:      total,
		Estado:           models.OrderPendiente,
		NotasComprador:   req.NotasComprador,
		DireccionEntrega: req.DireccionEntrega,
	}

	if err := s.db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if s.notifications != nil {
		s.notifications.NotifyOrderCreated(order, publication.Crop.Nombre)
	}

	return order, nil
}

// CreateFromCart turns every cart line into its own order and empties the
// cart. Lines are validated again because listings may have changed since
// they were added.
func (s *OrderService) CreateFromCart(compradorID uuid.UUID, direccion, notas string) ([]models.Order, error) {
	if direccion == "" {
		return nil, errors.New("delivery address is required")
	}

	var cart models.Cart
	if err := s.db.Preload("Items").Preload("Items.Publication").Preload("Items.Publication.Crop").
		Where("user_id = ?", compradorID).
		First(&cart).Error; err != nil {
		return nil, errors.New("cart is empty")
	}
	if len(cart.Items) == 0 {
		return nil, errors.New("cart is empty")
	}

	var orders []models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range cart.Items {
			item := &cart.Items[i]
			publication := &item.Publication

			if !publication.IsActive() {
				return fmt.Errorf("publication %s is no longer active", publication.ID)
			}
			available, _ := publication.CheckAvailability(item.Cantidad, item.Unidad)
			if !available {
				return fmt.Errorf("publication %s no longer has the requested quantity", publication.ID)
			}

			order := models.Order{
				PublicationID:    publication.ID,
				CompradorID:      compradorID,
				VendedorID:       publication.VendedorID,
				CantidadAcordada: item.Cantidad,
				UnidadSolicitada: item.Unidad,
				PrecioTotal:      orderTotal(publication, item.Cantidad, item.Unidad),
				Estado:           models.OrderPendiente,
				NotasComprador:   notas,
				DireccionEntrega: direccion,
			}
			if err := tx.Create(&order).Error; err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
			orders = append(orders, order)
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifications != nil {
		for i := range orders {
			item := cart.Items[i]
			s.notifications.NotifyOrderCreated(&orders[i], item.Publication.Crop.Nombre)
		}
	}

	return orders, nil
}

func (s *OrderService) GetByID(userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Publication").Preload("Publication.Crop").
		Preload("Comprador").Preload("Vendedor").
		Preload("Payment").Preload("Ratings").
		First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if order.CompradorID != userID && order.VendedorID != userID {
		return nil, ErrNotOrderParty
	}
	return &order, nil
}

func (s *OrderService) ListForBuyer(compradorID uuid.UUID, estado models.OrderStatus, params utils.PaginationParams) ([]models.Order, int64, error) {
	return s.list("comprador_id", compradorID, estado, params)
}

func (s *OrderService) ListForSeller(vendedorID uuid.UUID, estado models.OrderStatus, params utils.PaginationParams) ([]models.Order, int64, error) {
	return s.list("vendedor_id", vendedorID, estado, params)
}

func (s *OrderService) list(column string, userID uuid.UUID, estado models.OrderStatus, params utils.PaginationParams) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where(column+" = ?", userID)
	if estado != "" {
		query = query.Where("estado = ?", estado)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := utils.ApplyPagination(query.Preload("Publication").Preload("Publication.Crop").Preload("Payment").
		Order("created_at DESC"), params).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// Seller transitions

func (s *OrderService) Confirm(vendedorID, orderID uuid.UUID, notasVendedor string) (*models.Order, error) {
	order, err := s.getForSeller(vendedorID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Estado == models.OrderPendiente && !order.IsPaid() {
		return nil, ErrOrderNotPaid
	}
	if !order.CanBeConfirmedBySeller() {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	order.Estado = models.OrderConfirmado
	order.FechaConfirmacion = &now
	if notasVendedor != "" {
		order.NotasVendedor = notasVendedor
	}

	if err := s.db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}

	s.notifyBuyer(order)
	return order, nil
}

func (s *OrderService) StartPreparation(vendedorID, orderID uuid.UUID) (*models.Order, error) {
	return s.sellerTransition(vendedorID, orderID, models.OrderEnPreparacion,
		func(o *models.Order) bool { return o.CanStartPreparation() }, nil)
}

func (s *OrderService) Ship(vendedorID, orderID uuid.UUID, entregaEstimada *time.Time) (*models.Order, error) {
	return s.sellerTransition(vendedorID, orderID, models.OrderEnviado,
		func(o *models.Order) bool { return o.CanBeShipped() },
		func(o *models.Order) {
			now := time.Now()
			o.FechaEnvio = &now
			o.FechaEntregaEstimada = entregaEstimada
		})
}

func (s *OrderService) MarkInTransit(vendedorID, orderID uuid.UUID) (*models.Order, error) {
	return s.sellerTransition(vendedorID, orderID, models.OrderEnTransito,
		func(o *models.Order) bool { return o.CanBeMarkedInTransit() }, nil)
}

// Buyer transitions

func (s *OrderService) MarkReceived(compradorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.getForBuyer(compradorID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeReceived() {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	order.Estado = models.OrderRecibido
	order.FechaRecibido = &now

	if err := s.db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("failed to mark order received: %w", err)
	}

	s.notifySeller(order)
	return order, nil
}

// Complete closes the order. Completion is the buyer's acknowledgment and
// triggers the statistics recompute on both profiles.
func (s *OrderService) Complete(compradorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.getForBuyer(compradorID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCompleted() {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	if order.FechaRecibido == nil {
		order.FechaRecibido = &now
	}
	order.Estado = models.OrderCompletado

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("failed to complete order: %w", err)
		}
		if err := s.recomputeSellerStats(tx, order.VendedorID); err != nil {
			return err
		}
		return s.recomputeBuyerStats(tx, order.CompradorID)
	})
	if err != nil {
		return nil, err
	}

	s.notifySeller(order)
	return order, nil
}

// Cancel handles both parties. A paid order returns its quantity to the
// publication's stock, since stock was taken at payment approval.
func (s *OrderService) Cancel(userID, orderID uuid.UUID, req *CancelOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order, err := s.GetByID(userID, orderID)
	if err != nil {
		return nil, err
	}

	isBuyer := order.CompradorID == userID
	if isBuyer && !order.CanBeCancelledByBuyer() {
		return nil, ErrInvalidTransition
	}
	if !isBuyer && !order.CanBeCancelledBySeller() {
		return nil, ErrInvalidTransition
	}

	wasPaid := order.IsPaid()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		order.Estado = models.OrderCancelado
		order.MotivoCancelacion = req.Motivo
		if err := tx.Save(order).Error; err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		if wasPaid {
			if err := restoreStock(tx, order); err != nil {
				return err
			}
			if err := tx.Model(&models.Payment{}).
				Where("order_id = ? AND status = ?", order.ID, models.PaymentApproved).
				Update("status", models.PaymentRefunded).Error; err != nil {
				return fmt.Errorf("failed to flag payment for refund: %w", err)
			}
		} else {
			// Abandoned checkouts leave a pending payment behind
			if err := tx.Model(&models.Payment{}).
				Where("order_id = ? AND status IN ?", order.ID,
					[]models.PaymentStatus{models.PaymentPending, models.PaymentInProcess}).
				Update("status", models.PaymentCancelled).Error; err != nil {
				return fmt.Errorf("failed to cancel pending payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if isBuyer {
		s.notifySeller(order)
	} else {
		s.notifyBuyer(order)
	}
	return order, nil
}

// Helpers

func (s *OrderService) sellerTransition(vendedorID, orderID uuid.UUID, to models.OrderStatus, allowed func(*models.Order) bool, mutate func(*models.Order)) (*models.Order, error) {
	order, err := s.getForSeller(vendedorID, orderID)
	if err != nil {
		return nil, err
	}
	if !allowed(order) {
		return nil, ErrInvalidTransition
	}

	order.Estado = to
	if mutate != nil {
		mutate(order)
	}

	if err := s.db.Save(order).Error; err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.notifyBuyer(order)
	return order, nil
}

func (s *OrderService) getForSeller(vendedorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(vendedorID, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendedorID != vendedorID {
		return nil, ErrNotOrderParty
	}
	return order, nil
}

func (s *OrderService) getForBuyer(compradorID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.GetByID(compradorID, orderID)
	if err != nil {
		return nil, err
	}
	if order.CompradorID != compradorID {
		return nil, ErrNotOrderParty
	}
	return order, nil
}

func (s *OrderService) notifyBuyer(order *models.Order) {
	if s.notifications != nil {
		s.notifications.NotifyOrderStatusChanged(order, order.CompradorID, "es")
	}
}

func (s *OrderService) notifySeller(order *models.Order) {
	if s.notifications != nil {
		s.notifications.NotifyOrderStatusChanged(order, order.VendedorID, "es")
	}
}

// recomputeSellerStats rebuilds the producer profile aggregates from the
// completed orders instead of incrementing counters, so replays and manual
// fixes converge to the same numbers.
func (s *OrderService) recomputeSellerStats(tx *gorm.DB, vendedorID uuid.UUID) error {
	var stats struct {
		Total   int64
		Ingresos decimal.Decimal
		Primera *time.Time
	}

	row := tx.Model(&models.Order{}).
		Where("vendedor_id = ? AND estado = ?", vendedorID, models.OrderCompletado).
		Select("COUNT(*) as total, COALESCE(SUM(precio_total), 0) as ingresos, MIN(created_at) as primera").
		Row()
	if err := row.Scan(&stats.Total, &stats.Ingresos, &stats.Primera); err != nil {
		return fmt.Errorf("failed to aggregate seller stats: %w", err)
	}

	result := tx.Model(&models.ProducerProfile{}).
		Where("user_id = ?", vendedorID).
		Updates(map[string]interface{}{
			"total_ventas":        stats.Total,
			"ingresos_totales":    stats.Ingresos,
			"fecha_primera_venta": stats.Primera,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update producer stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		logrus.WithField("vendedor_id", vendedorID).Warn("Producer profile missing during stats recompute")
	}
	return nil
}

func (s *OrderService) recomputeBuyerStats(tx *gorm.DB, compradorID uuid.UUID) error {
	var stats struct {
		Total   int64
		Gastos  decimal.Decimal
		Primera *time.Time
	}

	row := tx.Model(&models.Order{}).
		Where("comprador_id = ? AND estado = ?", compradorID, models.OrderCompletado).
		Select("COUNT(*) as total, COALESCE(SUM(precio_total), 0) as gastos, MIN(created_at) as primera").
		Row()
	if err := row.Scan(&stats.Total, &stats.Gastos, &stats.Primera); err != nil {
		return fmt.Errorf("failed to aggregate buyer stats: %w", err)
	}

	result := tx.Model(&models.BuyerProfile{}).
		Where("user_id = ?", compradorID).
		Updates(map[string]interface{}{
			"total_compras":        stats.Total,
			"gastos_totales":       stats.Gastos,
			"fecha_primera_compra": stats.Primera,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update buyer stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		logrus.WithField("comprador_id", compradorID).Warn("Buyer profile missing during stats recompute")
	}
	return nil
}

// orderTotal prices the order in the buyer's unit when convertible and in
// the listing's native unit otherwise.
func orderTotal(publication *models.Publication, cantidad decimal.Decimal, unidad units.Unit) decimal.Decimal {
	if price, ok := publication.PriceInUnit(unidad); ok {
		return price.Mul(cantidad).Round(2)
	}
	return publication.PrecioPorUnidad.Mul(cantidad).Round(2)
}

// restoreStock puts an order's quantity back on its publication, converted
// into the publication's native unit, and reactivates an agotada listing.
func restoreStock(tx *gorm.DB, order *models.Order) error {
	var publication models.Publication
	if err := tx.First(&publication, order.PublicationID).Error; err != nil {
		return fmt.Errorf("failed to load publication for stock restore: %w", err)
	}

	native, ok := units.Convert(order.CantidadAcordada, order.UnidadSolicitada, publication.UnidadMedida)
	if !ok {
		native = order.CantidadAcordada
	}

	updates := map[string]interface{}{
		"cantidad_disponible": gorm.Expr("cantidad_disponible + ?", native),
	}
	if err := tx.Model(&models.Publication{}).
		Where("id = ?", publication.ID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	if err := tx.Model(&models.Publication{}).
		Where("id = ? AND estado = ?", publication.ID, models.PublicationAgotada).
		Update("estado", models.PublicationActiva).Error; err != nil {
		return fmt.Errorf("failed to reactivate publication: %w", err)
	}
	return nil
}
