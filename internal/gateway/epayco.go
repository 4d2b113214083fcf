// internal/gateway/epayco.go
package gateway

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/itemt/agroconnect-backend/internal/config"
)

const epaycoValidationURL = "https://secure.epayco.co/validation/v1/reference"

// ConfirmationStatus is the normalized outcome of a gateway confirmation.
type ConfirmationStatus string

const (
	ConfirmationApproved ConfirmationStatus = "approved"
	ConfirmationRejected ConfirmationStatus = "rejected"
	ConfirmationPending  ConfirmationStatus = "pending"
	ConfirmationFailed   ConfirmationStatus = "failed"
)

// Confirmation is a gateway-agnostic view of a payment notification.
type Confirmation struct {
	Reference     string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Status        ConfirmationStatus
	Method        string
	Raw           map[string]interface{}
}

// CheckoutData carries everything the frontend checkout widget needs.
type CheckoutData struct {
	PublicKey       string `json:"public_key"`
	Reference       string `json:"reference"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	Test            bool   `json:"test"`
	ResponseURL     string `json:"response_url"`
	ConfirmationURL string `json:"confirmation_url"`
}

var (
	ErrInvalidSignature = errors.New("epayco: confirmation signature mismatch")
	ErrNotConfigured    = errors.New("gateway: credentials not configured")
)

type EpaycoClient struct {
	publicKey  string
	privateKey string
	customerID string
	testMode   bool
	httpClient *http.Client
}

func NewEpaycoClient(cfg config.PaymentConfig) *EpaycoClient {
	return &EpaycoClient{
		publicKey:  cfg.EpaycoPublicKey,
		privateKey: cfg.EpaycoPrivateKey,
		customerID: cfg.EpaycoCustomerID,
		testMode:   cfg.TestMode,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *EpaycoClient) Configured() bool {
	return c.publicKey != "" && c.privateKey != "" && c.customerID != ""
}

func (c *EpaycoClient) BuildCheckout(reference, description string, amount decimal.Decimal, currency, responseURL, confirmationURL string) CheckoutData {
	return CheckoutData{
		PublicKey:       c.publicKey,
		Reference:       reference,
		Amount:          amount.StringFixed(2),
		Currency:        currency,
		Description:     description,
		Test:            c.testMode,
		ResponseURL:     responseURL,
		ConfirmationURL: confirmationURL,
	}
}

// Signature computes the confirmation signature:
// sha256(custID^privateKey^reference^transactionID^amount^currency).
func (c *EpaycoClient) Signature(reference, transactionID, amount, currency string) string {
	payload := fmt.Sprintf("%s^%s^%s^%s^%s^%s",
		c.customerID, c.privateKey, reference, transactionID, amount, currency)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ParseConfirmation validates the signature of an ePayco confirmation POST
// and normalizes its x_* form fields.
func (c *EpaycoClient) ParseConfirmation(form url.Values) (*Confirmation, error) {
	refPayco := form.Get("x_ref_payco")
	transactionID := form.Get("x_transaction_id")
	amountStr := form.Get("x_amount")
	currency := form.Get("x_currency_code")
	signature := form.Get("x_signature")

	// The signature covers ePayco's own reference (x_ref_payco)
	expected := c.Signature(refPayco, transactionID, amountStr, currency)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return nil, ErrInvalidSignature
	}

	// x_id_invoice carries the merchant reference used to locate the payment
	reference := form.Get("x_id_invoice")
	if reference == "" {
		reference = refPayco
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("epayco: invalid amount %q: %w", amountStr, err)
	}

	raw := make(map[string]interface{}, len(form))
	for k := range form {
		raw[k] = form.Get(k)
	}

	return &Confirmation{
		Reference:     reference,
		TransactionID: transactionID,
		Amount:        amount,
		Currency:      currency,
		Status:        codToStatus(form.Get("x_cod_response")),
		Method:        form.Get("x_franchise"),
		Raw:           raw,
	}, nil
}

// x_cod_response: 1 approved, 2 rejected, 3 pending, 4 failed.
func codToStatus(cod string) ConfirmationStatus {
	switch cod {
	case "1":
		return ConfirmationApproved
	case "2":
		return ConfirmationRejected
	case "3":
		return ConfirmationPending
	default:
		return ConfirmationFailed
	}
}

type epaycoValidationResponse struct {
	Success bool `json:"success"`
	Data    struct {
		RefPayco      json.Number `json:"x_ref_payco"`
		TransactionID string      `json:"x_transaction_id"`
		Amount        json.Number `json:"x_amount"`
		Currency      string      `json:"x_currency_code"`
		CodResponse   json.Number `json:"x_cod_response"`
		Franchise     string      `json:"x_franchise"`
	} `json:"data"`
}

// LookupTransaction queries the validation endpoint for the final state of a
// transaction. Used to double check confirmations before approving payments.
func (c *EpaycoClient) LookupTransaction(ctx context.Context, refPayco string) (*Confirmation, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/%s", epaycoValidationURL, url.PathEscape(refPayco))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("epayco: validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("epayco: validation returned status %d", resp.StatusCode)
	}

	var body epaycoValidationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("epayco: invalid validation response: %w", err)
	}
	if !body.Success {
		return nil, fmt.Errorf("epayco: transaction %s not found", refPayco)
	}

	amount, err := decimal.NewFromString(body.Data.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("epayco: invalid amount in validation response: %w", err)
	}

	return &Confirmation{
		Reference:     body.Data.RefPayco.String(),
		TransactionID: body.Data.TransactionID,
		Amount:        amount,
		Currency:      body.Data.Currency,
		Status:        codToStatus(body.Data.CodResponse.String()),
		Method:        body.Data.Franchise,
	}, nil
}
