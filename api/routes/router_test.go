package routes

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/okotelnikov/vpsshop-backend/internal/catalog"
	"github.com/okotelnikov/vpsshop-backend/internal/conversation"
	"github.com/okotelnikov/vpsshop-backend/internal/identity"
	"github.com/okotelnikov/vpsshop-backend/internal/ledger"
	cryptopaywebhook "github.com/okotelnikov/vpsshop-backend/internal/webhooks/cryptopay"
	"github.com/okotelnikov/vpsshop-backend/pkg/config"
	"github.com/okotelnikov/vpsshop-backend/pkg/cryptopay"
	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
	"github.com/okotelnikov/vpsshop-backend/pkg/enums"
	"github.com/okotelnikov/vpsshop-backend/pkg/logger"
	"github.com/okotelnikov/vpsshop-backend/pkg/metrics"
	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

const routerTestSecret = "router-secret"

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type silentSender struct{}

func (silentSender) SendMessage(context.Context, telegram.SendMessageRequest) error { return nil }
func (silentSender) EditMessageText(context.Context, telegram.EditMessageTextRequest) error {
	return nil
}
func (silentSender) AnswerCallbackQuery(context.Context, telegram.AnswerCallbackQueryRequest) error {
	return nil
}

type memStates struct {
	states map[int64]conversation.State
}

func (m *memStates) Load(_ context.Context, chatID int64) (conversation.State, error) {
	state, ok := m.states[chatID]
	if !ok {
		return conversation.State{Phase: conversation.PhaseIdle}, nil
	}
	return state, nil
}

func (m *memStates) Save(_ context.Context, chatID int64, state conversation.State) error {
	m.states[chatID] = state
	return nil
}

func (m *memStates) Clear(_ context.Context, chatID int64) error {
	delete(m.states, chatID)
	return nil
}

type fixedInvoices struct {
	invoiceID int64
}

func (f *fixedInvoices) CreateInvoice(context.Context, string, decimal.Decimal, string, any) (*cryptopay.Invoice, error) {
	return &cryptopay.Invoice{InvoiceID: f.invoiceID, Status: "active", PayURL: "https://pay.example/x"}, nil
}

func (f *fixedInvoices) RubToUSDT(_ context.Context, amountRUB decimal.Decimal) (decimal.Decimal, error) {
	return amountRUB.Div(decimal.NewFromInt(100)).Round(2), nil
}

func routerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS accounts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT,
  telegram_id INTEGER NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_telegram_id ON accounts (telegram_id);
CREATE TABLE IF NOT EXISTS tariffs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  location TEXT NOT NULL,
  specs TEXT NOT NULL,
  price NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'RUB'
);
CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  account_id INTEGER,
  tariff_id INTEGER,
  status TEXT NOT NULL DEFAULT 'created',
  invoice_id INTEGER,
  created_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_invoice_id ON orders (invoice_id) WHERE invoice_id IS NOT NULL;`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type routerFixture struct {
	handler http.Handler
	ledger  *ledger.Service
	db      *gorm.DB
	tariff  *models.Tariff
}

func setupRouter(t *testing.T) *routerFixture {
	t.Helper()

	db := routerTestDB(t)
	tariff := &models.Tariff{
		Location: "Amsterdam",
		Specs:    "2 vCPU / 4 GB RAM",
		Price:    decimal.RequireFromString("450.00"),
		Currency: "RUB",
	}
	require.NoError(t, db.Create(tariff).Error)

	identitySvc, err := identity.NewService(identity.NewRepository(db))
	require.NoError(t, err)
	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{Repo: ledger.NewRepository(db)})
	require.NoError(t, err)

	conversationSvc, err := conversation.NewService(conversation.ServiceParams{
		Catalog:  catalog.NewRepository(db),
		Identity: identitySvc,
		Ledger:   ledgerSvc,
		Invoices: &fixedInvoices{invoiceID: 424242},
		Sender:   silentSender{},
		States:   &memStates{states: map[int64]conversation.State{}},
		Pricing:  config.PricingConfig{MarkupPercent: 30},
		Asset:    "USDT",
	})
	require.NoError(t, err)

	webhookSvc, err := cryptopaywebhook.NewService(cryptopaywebhook.ServiceParams{Ledger: ledgerSvc})
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	handler := NewRouter(RouterParams{
		Config: &config.Config{
			App:      config.AppConfig{Env: "test"},
			Telegram: config.TelegramConfig{BotToken: "test-token"},
		},
		Logg:             logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		DB:               stubPinger{},
		Redis:            stubPinger{},
		Conversation:     conversationSvc,
		CryptoPayService: webhookSvc,
		SignaturePolicy:  cryptopaywebhook.NewHMACSHA256Policy(routerTestSecret),
		WebhookMetrics:   metrics.NewWebhookMetrics(registry),
		Gatherer:         registry,
	})

	return &routerFixture{handler: handler, ledger: ledgerSvc, db: db, tariff: tariff}
}

func signedWebhookRequest(body string) *http.Request {
	mac := hmac.New(sha256.New, []byte(routerTestSecret))
	mac.Write([]byte(body))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/cryptopay", strings.NewReader(body))
	req.Header.Set("X-Signature", hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestRouter_health(t *testing.T) {
	fx := setupRouter(t)

	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Header().Get("X-VPSShop-Env"))

	w = httptest.NewRecorder()
	fx.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_metricsExposed(t *testing.T) {
	fx := setupRouter(t)

	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_webhookMethodNotAllowed(t *testing.T) {
	fx := setupRouter(t)

	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhooks/cryptopay", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	fx.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/webhooks/telegram", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// Full purchase path: the buy callback opens an order, the signed payment
// notification settles it, and a redelivered notification changes nothing.
func TestRouter_purchaseThenPaymentFlow(t *testing.T) {
	fx := setupRouter(t)

	buy := fmt.Sprintf(`{"update_id":1,"callback_query":{"id":"cb","from":{"id":900100,"username":"flow"},"message":{"message_id":5,"chat":{"id":900100}},"data":"buy:%d"}}`, fx.tariff.ID)
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/telegram", strings.NewReader(buy)))
	require.Equal(t, http.StatusOK, w.Code)

	order, err := fx.ledger.ByInvoiceID(context.Background(), 424242)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Equal(t, enums.OrderStatusCreated, order.Status)

	paid := `{"update_type":"invoice_paid","invoice_id":424242}`
	w = httptest.NewRecorder()
	fx.handler.ServeHTTP(w, signedWebhookRequest(paid))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"processed"`)

	order, err = fx.ledger.ByInvoiceID(context.Background(), 424242)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)

	// redelivery is a no-op
	w = httptest.NewRecorder()
	fx.handler.ServeHTTP(w, signedWebhookRequest(paid))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"duplicate"`)

	order, err = fx.ledger.ByInvoiceID(context.Background(), 424242)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)
}

func TestRouter_webhookRejectsBadSignature(t *testing.T) {
	fx := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/cryptopay",
		strings.NewReader(`{"update_type":"invoice_paid","invoice_id":1}`))
	req.Header.Set("X-Signature", "deadbeef")
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_orphanInvoiceAccepted(t *testing.T) {
	fx := setupRouter(t)

	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, signedWebhookRequest(`{"update_type":"invoice_paid","invoice_id":31337}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"orphan"`)

	// a paid event without any invoice id is acknowledged too, never retried
	w = httptest.NewRecorder()
	fx.handler.ServeHTTP(w, signedWebhookRequest(`{"update_type":"invoice_paid"}`))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"orphan"`)
}
