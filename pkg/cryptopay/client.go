package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://pay.crypt.bot/api"
	authHeader                  = "Crypto-Pay-API-Token"
	responseBodyReadLimit int64 = 1024
)

var (
	errTokenRequired = errors.New("crypto pay api token is required")
)

// Client wraps the payment processor's invoice API. Invoice creation is the
// only mutation; everything else is read-only rate lookup.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	token         string
	webhookSecret string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithWebhookSecret sets the shared secret handed to the signature policy.
func WithWebhookSecret(secret string) Option {
	return func(c *Client) {
		c.webhookSecret = strings.TrimSpace(secret)
	}
}

// WithTimeout bounds every API call made by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the payment processor client given an API token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		token:      trimmed,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// SigningSecret returns the webhook shared secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// Invoice is the processor-issued request for funds.
type Invoice struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
	PayURL    string `json:"pay_url"`
}

// ExchangeRate is one entry of the processor's published rate table.
type ExchangeRate struct {
	Source string          `json:"source"`
	Target string          `json:"target"`
	Rate   decimal.Decimal `json:"rate"`
}

type apiEnvelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code int    `json:"code"`
		Name string `json:"name"`
	} `json:"error"`
}

// CreateInvoice asks the processor to issue an invoice. Any transport failure,
// non-2xx status, or ok:false body yields a dependency error; callers must not
// persist an order unless this returns successfully.
func (c *Client) CreateInvoice(ctx context.Context, asset string, amount decimal.Decimal, description string, payload any) (*Invoice, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "crypto pay client not configured")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice amount must be positive")
	}

	body := map[string]any{
		"asset":       asset,
		"amount":      amount.String(),
		"description": description,
	}
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal invoice payload")
		}
		body["payload"] = string(encoded)
	}

	var invoice Invoice
	if err := c.call(ctx, http.MethodPost, "createInvoice", body, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// GetExchangeRates fetches the processor's current rate table.
func (c *Client) GetExchangeRates(ctx context.Context) ([]ExchangeRate, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "crypto pay client not configured")
	}
	var rates []ExchangeRate
	if err := c.call(ctx, http.MethodGet, "getExchangeRates", nil, &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

// RubToUSDT converts a RUB amount to USDT using the processor rate table.
// Falls back to the inverse USDT→RUB rate when the direct pair is absent.
func (c *Client) RubToUSDT(ctx context.Context, amountRUB decimal.Decimal) (decimal.Decimal, error) {
	rates, err := c.GetExchangeRates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	for _, rate := range rates {
		if strings.EqualFold(rate.Source, "RUB") && strings.EqualFold(rate.Target, "USDT") {
			return amountRUB.Mul(rate.Rate), nil
		}
	}
	for _, rate := range rates {
		if strings.EqualFold(rate.Source, "USDT") && strings.EqualFold(rate.Target, "RUB") && !rate.Rate.IsZero() {
			return amountRUB.Div(rate.Rate), nil
		}
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeDependency, "RUB to USDT rate not available")
}

func (c *Client) call(ctx context.Context, method, endpoint string, body any, out any) error {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), endpoint)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(authHeader, c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", endpoint))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			fmt.Sprintf("%s request failed", endpoint))
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", endpoint))
	}
	if !envelope.OK {
		detail := "unknown"
		if envelope.Error != nil {
			detail = fmt.Sprintf("%d %s", envelope.Error.Code, envelope.Error.Name)
		}
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s rejected: %s", endpoint, detail))
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s result", endpoint))
		}
	}
	return nil
}
