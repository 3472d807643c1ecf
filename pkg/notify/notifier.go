package notify

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sablepay/coffee-pos/pkg/metrics"
	"github.com/sablepay/coffee-pos/pkg/netutil"
)

const (
	metricsStructName = "notify.notifier"

	webhookSentMetricName   = "Notify/WebhookSent"
	webhookFailedMetricName = "Notify/WebhookFailed"

	contentTypeHeaderName  = "Content-Type"
	contentTypeHeaderValue = "application/jwt"
)

var (
	ErrDisabled          = errors.New("outcome webhook is not configured")
	ErrInvalidSigningKey = errors.New("signing key must be a base58 encoded ed25519 seed")
)

// Outcome is what gets reported when a payment's poll session ends.
type Outcome struct {
	PaymentId string
	OrderId   string
	Status    string
	Outcome   string
	Amount    string
	TxHash    string
	Lookups   int
	EndedAt   time.Time
}

func (o *Outcome) claims(issuedAt time.Time) jwt.MapClaims {
	claims := jwt.MapClaims{
		"payment": o.PaymentId,
		"status":  strings.ToUpper(o.Status),
		"outcome": o.Outcome,
		"lookups": o.Lookups,
		"iat":     issuedAt.Unix(),
	}
	if len(o.OrderId) > 0 {
		claims["order"] = o.OrderId
	}
	if len(o.Amount) > 0 {
		claims["amount"] = o.Amount
	}
	if len(o.TxHash) > 0 {
		claims["txHash"] = o.TxHash
	}
	if !o.EndedAt.IsZero() {
		claims["endedAt"] = o.EndedAt.UTC().Format(time.RFC3339)
	}
	return claims
}

// Notifier POSTs a signed JWT describing a payment outcome to a configured
// URL.
type Notifier struct {
	log        *logrus.Entry
	httpClient *http.Client
	url        string
	signer     ed25519.PrivateKey
	timeout    time.Duration
}

// New returns a new Notifier. A Notifier without a webhook URL is valid and
// Notify returns ErrDisabled.
func New(ctx context.Context, configProvider ConfigProvider) (*Notifier, error) {
	conf := configProvider()

	n := &Notifier{
		log:        logrus.StandardLogger().WithField("type", "notify/Notifier"),
		httpClient: http.DefaultClient,
		timeout:    conf.timeout.Get(ctx),
	}

	url := strings.TrimSpace(conf.webhookUrl.Get(ctx))
	if len(url) == 0 {
		return n, nil
	}

	if _, err := netutil.ValidateHttpUrl(url, false); err != nil {
		return nil, errors.Wrap(err, "invalid webhook url")
	}

	signer, err := ParseSigningKey(conf.signingKey.Get(ctx))
	if err != nil {
		return nil, err
	}

	n.url = url
	n.signer = signer
	return n, nil
}

// Enabled returns whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return len(n.url) > 0
}

// PublicKey returns the key receivers use to verify webhook JWTs.
func (n *Notifier) PublicKey() ed25519.PublicKey {
	if n.signer == nil {
		return nil
	}
	return n.signer.Public().(ed25519.PublicKey)
}

// Notify sends the outcome. It doesn't retry.
func (n *Notifier) Notify(ctx context.Context, outcome *Outcome) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Notify")
	defer tracer.End()

	err := func() error {
		if !n.Enabled() {
			return ErrDisabled
		}

		if len(outcome.PaymentId) == 0 {
			return errors.New("payment id is required")
		}

		token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, outcome.claims(time.Now()))
		requestBody, err := token.SignedString(n.signer)
		if err != nil {
			return errors.Wrap(err, "error signing jwt")
		}

		webhookCtx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(webhookCtx, http.MethodPost, n.url, strings.NewReader(requestBody))
		if err != nil {
			return errors.Wrap(err, "error creating http request")
		}
		req.Header.Set(contentTypeHeaderName, contentTypeHeaderValue)

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return errors.Wrap(err, "error executing http post request")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("%d status code returned", resp.StatusCode)
		}
		return nil
	}()

	switch {
	case err == nil:
		metrics.RecordCount(ctx, webhookSentMetricName, 1)
	case err != ErrDisabled:
		tracer.OnError(err)
		metrics.RecordCount(ctx, webhookFailedMetricName, 1)
		n.log.WithError(err).WithField("payment_id", outcome.PaymentId).Warn("failure sending outcome webhook")
	}
	return err
}

// ParseSigningKey decodes a base58 encoded ed25519 seed.
func ParseSigningKey(value string) (ed25519.PrivateKey, error) {
	decoded, err := base58.Decode(strings.TrimSpace(value))
	if err != nil || len(decoded) != ed25519.SeedSize {
		return nil, ErrInvalidSigningKey
	}
	return ed25519.NewKeyFromSeed(decoded), nil
}

// GenerateSigningKey returns a new random base58 encoded ed25519 seed.
func GenerateSigningKey() (string, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}
	return base58.Encode(seed), nil
}
