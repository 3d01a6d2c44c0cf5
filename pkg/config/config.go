package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Telegram     TelegramConfig
	CryptoPay    CryptoPayConfig
	Admin        AdminConfig
	Pricing      PricingConfig
	Conversation ConversationConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VPSSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"VPSSHOP_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"VPSSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VPSSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VPSSHOP_DB_DSN" required:"true"`
	Driver string `envconfig:"VPSSHOP_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"VPSSHOP_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"VPSSHOP_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"VPSSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VPSSHOP_DB_CONN_MAX_IDLE_TIME" default:"30s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VPSSHOP_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"VPSSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VPSSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VPSSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VPSSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VPSSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type TelegramConfig struct {
	BotToken string        `envconfig:"VPSSHOP_TELEGRAM_BOT_TOKEN"`
	APIBase  string        `envconfig:"VPSSHOP_TELEGRAM_API_BASE" default:"https://api.telegram.org"`
	Timeout  time.Duration `envconfig:"VPSSHOP_TELEGRAM_TIMEOUT" default:"10s"`
}

type CryptoPayConfig struct {
	Token         string        `envconfig:"VPSSHOP_CRYPTOPAY_TOKEN"`
	WebhookSecret string        `envconfig:"VPSSHOP_CRYPTOPAY_WEBHOOK_SECRET"`
	APIBase       string        `envconfig:"VPSSHOP_CRYPTOPAY_API_BASE" default:"https://pay.crypt.bot/api"`
	Asset         string        `envconfig:"VPSSHOP_CRYPTOPAY_ASSET" default:"USDT"`
	Timeout       time.Duration `envconfig:"VPSSHOP_CRYPTOPAY_TIMEOUT" default:"20s"`
}

type AdminConfig struct {
	// IDs holds the Telegram identities allowed to run administrative commands.
	IDs []int64 `envconfig:"VPSSHOP_ADMIN_IDS"`
}

// Allows reports whether the given Telegram identity is on the admin allow-list.
func (a AdminConfig) Allows(telegramID int64) bool {
	for _, id := range a.IDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

type PricingConfig struct {
	MarkupPercent  float64 `envconfig:"VPSSHOP_PRICE_MARKUP_PERCENT" default:"30"`
	SupportContact string  `envconfig:"VPSSHOP_SUPPORT_CONTACT" default:"@vpsshop_support"`
}

type ConversationConfig struct {
	StateTTL time.Duration `envconfig:"VPSSHOP_CONVERSATION_STATE_TTL" default:"24h"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"VPSSHOP_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VPSSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VPSSHOP_AUTO_MIGRATE" default:"false"`
}
