// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/config"
	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

// Notification types stored on the in-app rows.
const (
	NotificationOrderCreated   = "order_created"
	NotificationOrderStatus    = "order_status"
	NotificationPaymentOK      = "payment_approved"
	NotificationPaymentFailed  = "payment_rejected"
	NotificationNewMessage     = "new_message"
	NotificationRatingReceived = "rating_received"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
	emails *resend.Client
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, cfg *config.Config) *NotificationService {
	s := &NotificationService{
		db:     db,
		config: cfg,
	}
	if cfg.Email.ResendAPIKey != "" {
		s.emails = resend.NewClient(cfg.Email.ResendAPIKey)
	}
	return s
}

// Notify creates an in-app notification row. Email delivery is separate so a
// mail outage never blocks the triggering operation.
func (s *NotificationService) Notify(userID uuid.UUID, notifType, title, message string, data map[string]interface{}) error {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Data:    models.JSONB(data),
	}

	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *NotificationService) NotifyOrderCreated(order *models.Order, productName string) {
	title := "Nuevo pedido recibido"
	msg := fmt.Sprintf("Recibiste un pedido de %s %s de %s", order.CantidadAcordada, order.UnidadSolicitada, productName)
	data := map[string]interface{}{"order_id": order.ID.String()}

	if err := s.Notify(order.VendedorID, NotificationOrderCreated, title, msg, data); err != nil {
		logrus.WithError(err).Warn("Failed to create order notification")
	}

	go s.emailUser(order.VendedorID, "order_created", map[string]interface{}{
		"ProductName": productName,
		"Quantity":    order.CantidadAcordada.String(),
		"Unit":        string(order.UnidadSolicitada),
		"Total":       order.PrecioTotal.StringFixed(2),
		"OrderURL":    fmt.Sprintf("%s/pedidos/%s", s.config.Frontend.BaseURL, order.ID),
	})
}

func (s *NotificationService) NotifyOrderStatusChanged(order *models.Order, recipientID uuid.UUID, lang string) {
	title := "Actualización de pedido"
	msg := statusMessage(order.Estado)
	data := map[string]interface{}{
		"order_id": order.ID.String(),
		"status":   string(order.Estado),
	}

	if err := s.Notify(recipientID, NotificationOrderStatus, title, msg, data); err != nil {
		logrus.WithError(err).Warn("Failed to create order status notification")
	}

	go s.emailUser(recipientID, "order_status", map[string]interface{}{
		"Status":   statusMessage(order.Estado),
		"OrderURL": fmt.Sprintf("%s/pedidos/%s", s.config.Frontend.BaseURL, order.ID),
	})
}

func (s *NotificationService) NotifyPaymentApproved(payment *models.Payment, order *models.Order) {
	data := map[string]interface{}{
		"order_id":   order.ID.String(),
		"payment_id": payment.ID.String(),
		"amount":     payment.Amount.StringFixed(2),
	}

	if err := s.Notify(order.CompradorID, NotificationPaymentOK, "Pago aprobado",
		fmt.Sprintf("Tu pago de $%s %s fue aprobado", payment.Amount.StringFixed(2), payment.Currency), data); err != nil {
		logrus.WithError(err).Warn("Failed to create payment notification")
	}
	if err := s.Notify(order.VendedorID, NotificationPaymentOK, "Pedido pagado",
		"El comprador completó el pago. Ya puedes confirmar el pedido.", data); err != nil {
		logrus.WithError(err).Warn("Failed to create payment notification")
	}

	go s.emailUser(order.CompradorID, "payment_approved", map[string]interface{}{
		"Amount":   payment.Amount.StringFixed(2),
		"Currency": payment.Currency,
		"OrderURL": fmt.Sprintf("%s/pedidos/%s", s.config.Frontend.BaseURL, order.ID),
	})
}

func (s *NotificationService) NotifyPaymentRejected(payment *models.Payment, order *models.Order) {
	data := map[string]interface{}{
		"order_id":   order.ID.String(),
		"payment_id": payment.ID.String(),
	}

	if err := s.Notify(order.CompradorID, NotificationPaymentFailed, "Pago rechazado",
		"Tu pago fue rechazado por la pasarela. El pedido fue cancelado.", data); err != nil {
		logrus.WithError(err).Warn("Failed to create payment notification")
	}
}

func (s *NotificationService) NotifyNewMessage(message *models.Message, recipientID uuid.UUID, senderName string) {
	data := map[string]interface{}{
		"conversation_id": message.ConversationID.String(),
	}

	if err := s.Notify(recipientID, NotificationNewMessage, "Nuevo mensaje",
		fmt.Sprintf("%s te envió un mensaje", senderName), data); err != nil {
		logrus.WithError(err).Warn("Failed to create message notification")
	}
}

func (s *NotificationService) NotifyRatingReceived(rating *models.Rating, recipientID uuid.UUID) {
	data := map[string]interface{}{
		"order_id":  rating.OrderID.String(),
		"rating_id": rating.ID.String(),
	}

	if err := s.Notify(recipientID, NotificationRatingReceived, "Nueva calificación",
		"Recibiste una nueva calificación por un pedido completado", data); err != nil {
		logrus.WithError(err).Warn("Failed to create rating notification")
	}
}

func (s *NotificationService) SendWelcomeEmail(user *models.User) {
	go s.sendEmail(user.Email, "welcome", map[string]interface{}{
		"Name":         user.FullName(),
		"PlatformName": "AgroConnect",
		"LoginURL":     fmt.Sprintf("%s/login", s.config.Frontend.BaseURL),
	})
}

func (s *NotificationService) SendPasswordResetEmail(user *models.User, resetToken string) {
	go s.sendEmail(user.Email, "password_reset", map[string]interface{}{
		"Name":     user.FullName(),
		"ResetURL": fmt.Sprintf("%s/reset-password?token=%s", s.config.Frontend.BaseURL, resetToken),
	})
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(userID uuid.UUID, onlyUnread bool, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if onlyUnread {
		query = query.Where("read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

func (s *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *NotificationService) MarkAsRead(userID, notificationID uuid.UUID) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(userID uuid.UUID) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}

func (s *NotificationService) emailUser(userID uuid.UUID, templateName string, data map[string]interface{}) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		logrus.WithError(err).Warn("Failed to load user for email")
		return
	}
	if data["Name"] == nil {
		data["Name"] = user.FullName()
	}
	s.sendEmail(user.Email, templateName, data)
}

func (s *NotificationService) sendEmail(to, templateName string, data map[string]interface{}) {
	tmpl := s.getEmailTemplate(templateName)

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).WithField("template", templateName).Error("Failed to render email template")
		return
	}

	if s.emails == nil {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": tmpl.Subject,
		}).Info("Email delivery not configured, skipping send")
		return
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.Email.FromName, s.config.Email.FromEmail),
		To:      []string{to},
		Subject: tmpl.Subject,
		Html:    body,
	}

	if _, err := s.emails.Emails.Send(params); err != nil {
		logrus.WithError(err).WithField("to", to).Error("Failed to send email")
	}
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Bienvenido a AgroConnect",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>¡Hola {{.Name}}!</h2>
	<p>Gracias por unirte a {{.PlatformName}}, el mercado que conecta el campo colombiano con compradores de todo el país.</p>
	<a href="{{.LoginURL}}">Iniciar sesión</a>
	<p>Equipo {{.PlatformName}}</p>
</body>
</html>`,
		},
		"password_reset": {
			Subject: "Restablece tu contraseña",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hola {{.Name}},</h2>
	<p>Recibimos una solicitud para restablecer tu contraseña. El enlace vence en 1 hora.</p>
	<a href="{{.ResetURL}}">Restablecer contraseña</a>
	<p>Si no solicitaste este cambio, ignora este correo.</p>
</body>
</html>`,
		},
		"order_created": {
			Subject: "Nuevo pedido recibido",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hola {{.Name}},</h2>
	<p>Recibiste un pedido de {{.Quantity}} {{.Unit}} de {{.ProductName}} por un total de ${{.Total}}.</p>
	<a href="{{.OrderURL}}">Ver pedido</a>
</body>
</html>`,
		},
		"order_status": {
			Subject: "Actualización de tu pedido",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hola {{.Name}},</h2>
	<p>{{.Status}}.</p>
	<a href="{{.OrderURL}}">Ver pedido</a>
</body>
</html>`,
		},
		"payment_approved": {
			Subject: "Pago aprobado",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hola {{.Name}},</h2>
	<p>Tu pago de ${{.Amount}} {{.Currency}} fue aprobado. El vendedor fue notificado para preparar tu pedido.</p>
	<a href="{{.OrderURL}}">Ver pedido</a>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notificación de AgroConnect",
		Body:    "<p>{{.Message}}</p>",
	}
}

func statusMessage(status models.OrderStatus) string {
	switch status {
	case models.OrderConfirmado:
		return "Tu pedido fue confirmado por el vendedor"
	case models.OrderEnPreparacion:
		return "Tu pedido está en preparación"
	case models.OrderEnviado:
		return "Tu pedido fue enviado"
	case models.OrderEnTransito:
		return "Tu pedido está en tránsito"
	case models.OrderRecibido:
		return "El pedido fue marcado como recibido"
	case models.OrderCompletado:
		return "El pedido fue completado"
	case models.OrderCancelado:
		return "El pedido fue cancelado"
	default:
		return "Tu pedido está pendiente"
	}
}
