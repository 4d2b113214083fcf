// internal/gateway/epayco_test.go
package gateway

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itemt/agroconnect-backend/internal/config"
)

func testEpaycoClient() *EpaycoClient {
	return NewEpaycoClient(config.PaymentConfig{
		EpaycoPublicKey:  "pub_test_key",
		EpaycoPrivateKey: "priv_test_key",
		EpaycoCustomerID: "12345",
		TestMode:         true,
		Currency:         "COP",
	})
}

func confirmationForm(c *EpaycoClient, ref, txn, amount, currency, cod string) url.Values {
	form := url.Values{}
	form.Set("x_ref_payco", ref)
	form.Set("x_transaction_id", txn)
	form.Set("x_amount", amount)
	form.Set("x_currency_code", currency)
	form.Set("x_cod_response", cod)
	form.Set("x_franchise", "PSE")
	form.Set("x_signature", c.Signature(ref, txn, amount, currency))
	return form
}

func TestParseConfirmationApproved(t *testing.T) {
	client := testEpaycoClient()
	form := confirmationForm(client, "AGRO-20260115-ABCD1234", "987654", "60000.00", "COP", "1")

	conf, err := client.ParseConfirmation(form)
	require.NoError(t, err)

	assert.Equal(t, "AGRO-20260115-ABCD1234", conf.Reference)
	assert.Equal(t, "987654", conf.TransactionID)
	assert.Equal(t, ConfirmationApproved, conf.Status)
	assert.Equal(t, "PSE", conf.Method)
	assert.True(t, conf.Amount.Equal(decimal.NewFromInt(60000)))
}

func TestParseConfirmationStatuses(t *testing.T) {
	client := testEpaycoClient()

	cases := map[string]ConfirmationStatus{
		"1":  ConfirmationApproved,
		"2":  ConfirmationRejected,
		"3":  ConfirmationPending,
		"4":  ConfirmationFailed,
		"99": ConfirmationFailed,
	}

	for cod, want := range cases {
		form := confirmationForm(client, "REF-1", "1", "1000.00", "COP", cod)
		conf, err := client.ParseConfirmation(form)
		require.NoError(t, err, "cod %s", cod)
		assert.Equal(t, want, conf.Status, "cod %s", cod)
	}
}

func TestParseConfirmationRejectsTamperedSignature(t *testing.T) {
	client := testEpaycoClient()
	form := confirmationForm(client, "REF-1", "1", "60000.00", "COP", "1")

	// Amount changed after signing
	form.Set("x_amount", "1.00")

	_, err := client.ParseConfirmation(form)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseConfirmationRejectsMissingSignature(t *testing.T) {
	client := testEpaycoClient()
	form := confirmationForm(client, "REF-1", "1", "60000.00", "COP", "1")
	form.Del("x_signature")

	_, err := client.ParseConfirmation(form)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConfiguredRequiresAllCredentials(t *testing.T) {
	assert.True(t, testEpaycoClient().Configured())

	partial := NewEpaycoClient(config.PaymentConfig{EpaycoPublicKey: "pub"})
	assert.False(t, partial.Configured())
}
