// internal/gateway/mercadopago.go
package gateway

import (
	"context"
	"fmt"
	"strconv"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"

	appconfig "github.com/itemt/agroconnect-backend/internal/config"
)

// Preference is the created checkout preference the buyer is redirected to.
type Preference struct {
	ID          string
	InitPoint   string
	SandboxURL  string
	Reference   string
}

type MercadoPagoClient struct {
	cfg      *mpconfig.Config
	testMode bool
	currency string
}

func NewMercadoPagoClient(paymentCfg appconfig.PaymentConfig) (*MercadoPagoClient, error) {
	if paymentCfg.MercadoPagoToken == "" {
		return nil, ErrNotConfigured
	}

	cfg, err := mpconfig.New(paymentCfg.MercadoPagoToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: %w", err)
	}

	return &MercadoPagoClient{
		cfg:      cfg,
		testMode: paymentCfg.TestMode,
		currency: paymentCfg.Currency,
	}, nil
}

// CreatePreference registers a checkout preference for a single order.
func (c *MercadoPagoClient) CreatePreference(ctx context.Context, reference, title string, amount decimal.Decimal, successURL, failureURL, notificationURL string) (*Preference, error) {
	client := preference.NewClient(c.cfg)

	unitPrice, _ := amount.Float64()
	req := preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:         reference,
				Title:      title,
				Quantity:   1,
				UnitPrice:  unitPrice,
				CurrencyID: c.currency,
			},
		},
		ExternalReference: reference,
		NotificationURL:   notificationURL,
		BackURLs: &preference.BackURLsRequest{
			Success: successURL,
			Failure: failureURL,
			Pending: successURL,
		},
	}

	resp, err := client.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to create preference: %w", err)
	}

	return &Preference{
		ID:         resp.ID,
		InitPoint:  resp.InitPoint,
		SandboxURL: resp.SandboxInitPoint,
		Reference:  reference,
	}, nil
}

// GetPayment fetches a payment by the numeric id sent in webhook notifications
// and normalizes it. The external reference carries our payment reference.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*Confirmation, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: invalid payment id %q", paymentID)
	}

	client := payment.NewClient(c.cfg)
	resp, err := client.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: failed to fetch payment %d: %w", id, err)
	}

	return &Confirmation{
		Reference:     resp.ExternalReference,
		TransactionID: strconv.Itoa(resp.ID),
		Amount:        decimal.NewFromFloat(resp.TransactionAmount),
		Currency:      resp.CurrencyID,
		Status:        mpStatusToConfirmation(resp.Status),
		Method:        resp.PaymentMethodID,
	}, nil
}

func mpStatusToConfirmation(status string) ConfirmationStatus {
	switch status {
	case "approved":
		return ConfirmationApproved
	case "rejected", "cancelled":
		return ConfirmationRejected
	case "pending", "in_process", "authorized":
		return ConfirmationPending
	default:
		return ConfirmationFailed
	}
}
