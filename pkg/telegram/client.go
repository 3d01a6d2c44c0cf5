package telegram

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

	pkgerrors "github.com/okotelnikov/vpsshop-backend/pkg/errors"
)

const (
	defaultAPIBase              = "https://api.telegram.org"
	responseBodyReadLimit int64 = 1024
)

var errBotTokenRequired = errors.New("telegram bot token is required")

// Sender is the reply surface the conversation layer depends on.
type Sender interface {
	SendMessage(ctx context.Context, req SendMessageRequest) error
	EditMessageText(ctx context.Context, req EditMessageTextRequest) error
	AnswerCallbackQuery(ctx context.Context, req AnswerCallbackQueryRequest) error
}

// Client is a minimal Bot API client covering the calls the shop needs.
type Client struct {
	httpClient *http.Client
	apiBase    string
	token      string
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

// WithAPIBase overrides the Bot API base URL.
func WithAPIBase(base string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(base)
		if trimmed != "" {
			c.apiBase = trimmed
		}
	}
}

// WithTimeout bounds every Bot API call made by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the Bot API client given a bot token.
func NewClient(token string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errBotTokenRequired
	}

	client := &Client{
		token:      trimmed,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.apiBase == "" {
		client.apiBase = defaultAPIBase
	}

	return client, nil
}

// SendMessage delivers a message to a chat.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	return c.call(ctx, "sendMessage", req)
}

// EditMessageText replaces the text/keyboard of an existing message.
func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	return c.call(ctx, "editMessageText", req)
}

// AnswerCallbackQuery acknowledges a button press so the client stops spinning.
func (c *Client) AnswerCallbackQuery(ctx context.Context, req AnswerCallbackQueryRequest) error {
	return c.call(ctx, "answerCallbackQuery", req)
}

func (c *Client) call(ctx context.Context, method string, body any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal request")
	}

	url := fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.apiBase, "/"), c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s request", method))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			fmt.Sprintf("%s request failed", method))
	}

	var envelope struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", method))
	}
	if !envelope.OK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s rejected: %s", method, envelope.Description))
	}
	return nil
}
