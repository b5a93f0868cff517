package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harryyking/pothole-reporter-backend/pkg/config"
	pkgerrors "github.com/harryyking/pothole-reporter-backend/pkg/errors"
	"github.com/harryyking/pothole-reporter-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"

	defaultBaseURL = "https://api.paystack.co"
	defaultTimeout = 15 * time.Second
)

var (
	errSecretKeyRequired  = errors.New("paystack secret key is required")
	errInvalidPaystackEnv = fmt.Errorf("paystack environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps the Paystack REST API with centralized auth and error mapping.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	secretKey     string
	environment   string
	signingSecret string
}

// NewClient initializes the Paystack wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PaystackConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}
	if err := validateSecretKey(env, secretKey); err != nil {
		return nil, err
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		baseURL:       defaultBaseURL,
		secretKey:     secretKey,
		environment:   env,
		signingSecret: cfg.SigningSecret(),
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("paystack client initialized (%s)", env))
	}
	return c, nil
}

// Environment reports the normalized Paystack environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the key used to verify webhook signatures.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// Subscription is the provider-side subscription state returned by the API.
type Subscription struct {
	SubscriptionCode string     `json:"subscription_code"`
	Status           string     `json:"status"`
	Amount           int64      `json:"amount"`
	NextPaymentDate  *time.Time `json:"next_payment_date"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// FetchSubscription loads the current provider state for a subscription code.
func (c *Client) FetchSubscription(ctx context.Context, code string) (*Subscription, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription code is required")
	}

	var sub Subscription
	if err := c.get(ctx, "/subscription/"+url.PathEscape(code), &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build paystack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call paystack api")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read paystack response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "paystack resource not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("paystack api returned %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": truncate(string(body), 512)})
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paystack envelope")
	}
	if !env.Status {
		return pkgerrors.New(pkgerrors.CodeDependency, "paystack api rejected request").
			WithDetails(map[string]any{"message": env.Message})
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paystack payload")
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidPaystackEnv
	}
}

func validateSecretKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test_") {
			return nil
		}
		return fmt.Errorf("paystack environment %q requires a test secret key (sk_test_)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live_") {
			return nil
		}
		return fmt.Errorf("paystack environment %q requires a live secret key (sk_live_)", liveEnv)
	default:
		return errInvalidPaystackEnv
	}
}
