package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okotelnikov/vpsshop-backend/api/routes"
	"github.com/okotelnikov/vpsshop-backend/internal/catalog"
	"github.com/okotelnikov/vpsshop-backend/internal/conversation"
	"github.com/okotelnikov/vpsshop-backend/internal/identity"
	"github.com/okotelnikov/vpsshop-backend/internal/ledger"
	"github.com/okotelnikov/vpsshop-backend/internal/promo"
	cryptopaywebhook "github.com/okotelnikov/vpsshop-backend/internal/webhooks/cryptopay"
	"github.com/okotelnikov/vpsshop-backend/pkg/config"
	"github.com/okotelnikov/vpsshop-backend/pkg/cryptopay"
	"github.com/okotelnikov/vpsshop-backend/pkg/db"
	"github.com/okotelnikov/vpsshop-backend/pkg/logger"
	"github.com/okotelnikov/vpsshop-backend/pkg/metrics"
	"github.com/okotelnikov/vpsshop-backend/pkg/migrate"
	"github.com/okotelnikov/vpsshop-backend/pkg/redis"
	"github.com/okotelnikov/vpsshop-backend/pkg/telegram"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cryptoPayClient, err := cryptopay.NewClient(cfg.CryptoPay.Token,
		cryptopay.WithBaseURL(cfg.CryptoPay.APIBase),
		cryptopay.WithWebhookSecret(cfg.CryptoPay.WebhookSecret),
		cryptopay.WithTimeout(cfg.CryptoPay.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create cryptopay client", err)
		os.Exit(1)
	}

	telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken,
		telegram.WithAPIBase(cfg.Telegram.APIBase),
		telegram.WithTimeout(cfg.Telegram.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create telegram client", err)
		os.Exit(1)
	}

	identityRepo := identity.NewRepository(dbClient.DB())
	identityService, err := identity.NewService(identityRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo: ledger.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	promoService, err := promo.NewService(promo.ServiceParams{
		Repo:        promo.NewRepository(dbClient.DB()),
		Definitions: promo.DefaultDefinitions,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create promo service", err)
		os.Exit(1)
	}

	notifier := cryptopaywebhook.NewTelegramNotifier(telegramClient, identityRepo, cfg.Admin.IDs, logg)
	webhookService, err := cryptopaywebhook.NewService(cryptopaywebhook.ServiceParams{
		Ledger:   ledgerService,
		Notifier: notifier,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := cryptopaywebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "cryptopay")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	stateStore, err := conversation.NewRedisStore(redisClient, cfg.Conversation.StateTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create conversation state store", err)
		os.Exit(1)
	}

	conversationService, err := conversation.NewService(conversation.ServiceParams{
		Catalog:  catalog.NewRepository(dbClient.DB()),
		Identity: identityService,
		Ledger:   ledgerService,
		Promo:    promoService,
		Invoices: cryptoPayClient,
		Sender:   telegramClient,
		States:   stateStore,
		Admin:    cfg.Admin,
		Pricing:  cfg.Pricing,
		Asset:    cfg.CryptoPay.Asset,
		Logg:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create conversation service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:           cfg,
			Logg:             logg,
			DB:               dbClient,
			Redis:            redisClient,
			Conversation:     conversationService,
			CryptoPayService: webhookService,
			SignaturePolicy:  cryptopaywebhook.NewHMACSHA256Policy(cryptoPayClient.SigningSecret()),
			WebhookGuard:     webhookGuard,
			WebhookMetrics:   metrics.NewWebhookMetrics(registry),
			Gatherer:         registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
