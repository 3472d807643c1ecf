package notify

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	ctx        context.Context
	server     *TestWebhookEndpoint
	signingKey string
}

func setup(t *testing.T) testEnv {
	signingKey, err := GenerateSigningKey()
	require.NoError(t, err)

	server := NewTestWebhookEndpoint(t)

	return testEnv{
		ctx:        context.Background(),
		server:     server,
		signingKey: signingKey,
	}
}

func TestNotify_HappyPath(t *testing.T) {
	env := setup(t)

	n, err := New(env.ctx, WithStaticConfigs(env.server.Url(), env.signingKey, time.Second))
	require.NoError(t, err)
	require.True(t, n.Enabled())

	endedAt := time.Now()
	require.NoError(t, n.Notify(env.ctx, &Outcome{
		PaymentId: "pay_123",
		OrderId:   "order_456",
		Status:    "completed",
		Outcome:   "succeeded",
		Amount:    "3.5",
		TxHash:    "0xabc",
		Lookups:   2,
		EndedAt:   endedAt,
	}))

	requests := env.server.GetReceivedRequests()
	require.Len(t, requests, 1)

	parsed, err := jwt.ParseWithClaims(requests[0], jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		return n.PublicKey(), nil
	})
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	require.Len(t, claims, 9)
	assert.Equal(t, "pay_123", claims["payment"])
	assert.Equal(t, "order_456", claims["order"])
	assert.Equal(t, "COMPLETED", claims["status"])
	assert.Equal(t, "succeeded", claims["outcome"])
	assert.Equal(t, "3.5", claims["amount"])
	assert.Equal(t, "0xabc", claims["txHash"])
	assert.EqualValues(t, 2, claims["lookups"])
	assert.Equal(t, endedAt.UTC().Format(time.RFC3339), claims["endedAt"])
}

func TestNotify_WrongKeyFailsVerification(t *testing.T) {
	env := setup(t)

	n, err := New(env.ctx, WithStaticConfigs(env.server.Url(), env.signingKey, time.Second))
	require.NoError(t, err)
	require.NoError(t, n.Notify(env.ctx, &Outcome{PaymentId: "pay_123", Status: "failed", Outcome: "failed"}))

	otherPublicKey, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	requests := env.server.GetReceivedRequests()
	require.Len(t, requests, 1)
	_, err = jwt.Parse(requests[0], func(token *jwt.Token) (interface{}, error) {
		return otherPublicKey, nil
	})
	assert.Error(t, err)
}

func TestNotify_EndpointError(t *testing.T) {
	env := setup(t)
	env.server.SimulateErrors()

	n, err := New(env.ctx, WithStaticConfigs(env.server.Url(), env.signingKey, time.Second))
	require.NoError(t, err)

	assert.Error(t, n.Notify(env.ctx, &Outcome{PaymentId: "pay_123", Status: "completed"}))
	assert.Len(t, env.server.GetReceivedRequests(), 1)
}

func TestNotify_Timeout(t *testing.T) {
	env := setup(t)
	env.server.SimulateDelay(200 * time.Millisecond)

	n, err := New(env.ctx, WithStaticConfigs(env.server.Url(), env.signingKey, 50*time.Millisecond))
	require.NoError(t, err)

	assert.Error(t, n.Notify(env.ctx, &Outcome{PaymentId: "pay_123", Status: "completed"}))
}

func TestNotify_Disabled(t *testing.T) {
	n, err := New(context.Background(), WithStaticConfigs("", "", time.Second))
	require.NoError(t, err)

	assert.False(t, n.Enabled())
	assert.Nil(t, n.PublicKey())
	assert.Equal(t, ErrDisabled, n.Notify(context.Background(), &Outcome{PaymentId: "pay_123"}))
}

func TestNew_Validation(t *testing.T) {
	signingKey, err := GenerateSigningKey()
	require.NoError(t, err)

	_, err = New(context.Background(), WithStaticConfigs("ftp://example.com/webhook", signingKey, time.Second))
	assert.Error(t, err)

	_, err = New(context.Background(), WithStaticConfigs("https://example.com/webhook", "", time.Second))
	assert.Equal(t, ErrInvalidSigningKey, err)

	_, err = New(context.Background(), WithStaticConfigs("https://example.com/webhook", "not-base58-0OIl", time.Second))
	assert.Equal(t, ErrInvalidSigningKey, err)

	_, err = New(context.Background(), WithStaticConfigs("https://example.com/webhook", base58.Encode([]byte("short")), time.Second))
	assert.Equal(t, ErrInvalidSigningKey, err)

	n, err := New(context.Background(), WithStaticConfigs("https://example.com/webhook", signingKey, time.Second))
	require.NoError(t, err)
	assert.True(t, n.Enabled())
}

func TestParseSigningKey(t *testing.T) {
	signingKey, err := GenerateSigningKey()
	require.NoError(t, err)

	first, err := ParseSigningKey(signingKey)
	require.NoError(t, err)
	second, err := ParseSigningKey("  " + signingKey + "\n")
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Len(t, first, ed25519.PrivateKeySize)
}
