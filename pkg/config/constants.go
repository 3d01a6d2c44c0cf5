package config

// EnvPrefix is unused by the explicit envconfig tags but required by Process.
const EnvPrefix = "VPSSHOP"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv        = "VPSSHOP_APP_ENV"
	EnvDBDSN         = "VPSSHOP_DB_DSN"
	EnvRedisURL      = "VPSSHOP_REDIS_URL"
	EnvTelegramToken = "VPSSHOP_TELEGRAM_BOT_TOKEN"
	EnvCryptoPayTok  = "VPSSHOP_CRYPTOPAY_TOKEN"
	EnvWebhookSecret = "VPSSHOP_CRYPTOPAY_WEBHOOK_SECRET"
	EnvAdminIDs      = "VPSSHOP_ADMIN_IDS"
)
