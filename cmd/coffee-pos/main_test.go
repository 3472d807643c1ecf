package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablepay/coffee-pos/pkg/notify"
	"github.com/sablepay/coffee-pos/pkg/poller"
	sablepay_memory "github.com/sablepay/coffee-pos/pkg/sablepay/memory"
)

func TestMenuCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"menu"})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "Espresso")
	assert.Contains(t, lines[0], "1.00")
}

func TestKeygenCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"keygen"})
	require.NoError(t, cmd.Execute())

	line, _, _ := strings.Cut(out.String(), "\n")
	seed := strings.TrimPrefix(line, notify.SigningKeyConfigEnvName+"=")
	_, err := notify.ParseSigningKey(seed)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "public key: ")
}

func TestPrintStatus(t *testing.T) {
	client := sablepay_memory.NewClient()
	client.AddPayment("pay_1", "completed")

	var out bytes.Buffer
	require.NoError(t, printStatus(context.Background(), &out, client, " pay_1 ", false))
	assert.Contains(t, out.String(), "completed (success)")

	out.Reset()
	require.NoError(t, printStatus(context.Background(), &out, client, "pay_1", true))
	assert.Contains(t, out.String(), `"paymentId": "pay_1"`)

	assert.Error(t, printStatus(context.Background(), &out, client, "pay_unknown", false))
}

func TestWatchPayment(t *testing.T) {
	client := sablepay_memory.NewClient()
	client.AddPayment("pay_ok", "pending", "processing", "completed")
	client.AddPayment("pay_expired", "pending", "EXPIRED")
	client.AddPayment("pay_err", "pending")
	client.SetLookupError("pay_err", errors.New("connection reset"))

	var out bytes.Buffer
	require.NoError(t, watchPayment(context.Background(), &out, client, "pay_ok", time.Millisecond))
	assert.Equal(t, 3, client.Lookups("pay_ok"))
	assert.Contains(t, out.String(), "succeeded after 3 lookups")

	err := watchPayment(context.Background(), &out, client, "pay_expired", time.Millisecond)
	assert.Equal(t, errPaymentFailed, err)

	err = watchPayment(context.Background(), &out, client, "pay_err", time.Millisecond)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, client.Lookups("pay_err"))

	assert.Equal(t, poller.ErrInvalidPaymentId, watchPayment(context.Background(), &out, client, "  ", time.Millisecond))
}

func TestWatchPayment_Cancelled(t *testing.T) {
	client := sablepay_memory.NewClient()
	client.AddPayment("pay_1", "pending")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, watchPayment(ctx, &out, client, "pay_1", time.Millisecond))
	assert.Contains(t, out.String(), "stopped")
}
