package sablepay

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv(ApiKeyConfigEnvName, "  sk_test_123  ")
	t.Setenv(MerchantIdConfigEnvName, "merchant_1")
	t.Setenv(BaseUrlConfigEnvName, "https://sandbox-api.sablepay.io/")
	t.Setenv(MaxAttemptsConfigEnvName, "3")

	c := LoadConfig(context.Background(), WithEnvConfigs())
	assert.Equal(t, "sk_test_123", c.ApiKey)
	assert.Equal(t, "merchant_1", c.MerchantId)
	assert.Equal(t, "https://sandbox-api.sablepay.io/", c.BaseUrl)
	assert.EqualValues(t, 3, c.MaxAttempts)
	assert.Equal(t, defaultHttpTimeout, c.HttpTimeout)
	assert.EqualValues(t, defaultBreakerFailures, c.BreakerFailures)
	assert.Equal(t, EnvironmentSandbox, c.Environment())
	assert.NoError(t, c.Validate())
}

func TestConfigValidate(t *testing.T) {
	for _, c := range []*Config{
		{},
		{ApiKey: "key", MerchantId: "merchant"},
		{ApiKey: "key", BaseUrl: "https://api.sablepay.io"},
		{MerchantId: "merchant", BaseUrl: "https://api.sablepay.io"},
	} {
		assert.Equal(t, ErrMissingConfiguration, c.Validate())
	}

	c := &Config{ApiKey: "key", MerchantId: "merchant", BaseUrl: "api.sablepay.io"}
	err := c.Validate()
	require.Error(t, err)
	assert.NotEqual(t, ErrMissingConfiguration, err)

	assert.Contains(t, ErrMissingConfiguration.Error(), ApiKeyConfigEnvName)
	assert.Contains(t, ErrMissingConfiguration.Error(), MerchantIdConfigEnvName)
	assert.Contains(t, ErrMissingConfiguration.Error(), BaseUrlConfigEnvName)
}

func TestWithStaticConfigs(t *testing.T) {
	c := LoadConfig(context.Background(), WithStaticConfigs("key", "merchant", "https://api.sablepay.io"))
	assert.Equal(t, "key", c.ApiKey)
	assert.Equal(t, EnvironmentLive, c.Environment())
	assert.EqualValues(t, 1, c.MaxAttempts)
	assert.Equal(t, 30*time.Second, c.BreakerCooldown)
}

func TestCreatePaymentRequestValidate(t *testing.T) {
	valid := &CreatePaymentRequest{
		Amount: decimal.NewFromInt(2),
		Items: []PaymentItem{
			{Name: "Latte", Quantity: 1, Amount: decimal.NewFromInt(1)},
			{Name: "Cookie", Quantity: 1, Amount: decimal.NewFromInt(1)},
		},
	}
	assert.NoError(t, valid.Validate())

	assert.Equal(t, ErrInvalidAmount, (&CreatePaymentRequest{}).Validate())
	assert.Equal(t, ErrInvalidAmount, (&CreatePaymentRequest{Amount: decimal.NewFromInt(-1)}).Validate())

	noName := &CreatePaymentRequest{Amount: decimal.NewFromInt(1), Items: []PaymentItem{{Quantity: 1}}}
	assert.ErrorIs(t, noName.Validate(), ErrInvalidItem)

	noQuantity := &CreatePaymentRequest{Amount: decimal.NewFromInt(1), Items: []PaymentItem{{Name: "Mocha"}}}
	assert.ErrorIs(t, noQuantity.Validate(), ErrInvalidItem)
}

func TestQrPayload(t *testing.T) {
	resp := &CreatePaymentResponse{PaymentUrl: "https://pay.sablepay.io/p/1"}
	assert.Equal(t, "https://pay.sablepay.io/p/1", resp.QrPayload())

	resp.QrData = "sablepay:1"
	assert.Equal(t, "sablepay:1", resp.QrPayload())
}
