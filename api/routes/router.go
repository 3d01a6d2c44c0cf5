package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okotelnikov/vpsshop-backend/api/controllers"
	webhookcontrollers "github.com/okotelnikov/vpsshop-backend/api/controllers/webhooks"
	"github.com/okotelnikov/vpsshop-backend/api/middleware"
	cryptopaywebhook "github.com/okotelnikov/vpsshop-backend/internal/webhooks/cryptopay"
	"github.com/okotelnikov/vpsshop-backend/pkg/config"
	"github.com/okotelnikov/vpsshop-backend/pkg/logger"
	"github.com/okotelnikov/vpsshop-backend/pkg/metrics"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config *config.Config
	Logg   *logger.Logger

	DB    controllers.Pinger
	Redis controllers.Pinger

	Conversation     webhookcontrollers.ConversationService
	CryptoPayService webhookcontrollers.CryptoPayWebhookService
	SignaturePolicy  cryptopaywebhook.SignaturePolicy
	WebhookGuard     *cryptopaywebhook.IdempotencyGuard
	WebhookMetrics   *metrics.WebhookMetrics
	Gatherer         prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logg

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	if params.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/webhooks", func(r chi.Router) {
		var guard webhookcontrollers.CryptoPayGuard
		if params.WebhookGuard != nil {
			guard = params.WebhookGuard
		}
		r.Post("/cryptopay", webhookcontrollers.CryptoPayWebhook(
			params.CryptoPayService,
			params.SignaturePolicy,
			guard,
			params.WebhookMetrics,
			logg,
		))
		r.Post("/telegram", webhookcontrollers.TelegramWebhook(
			params.Conversation,
			cfg.Telegram.BotToken,
			logg,
		))
	})

	return r
}
