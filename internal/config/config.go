package config

import (
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Kalshi      KalshiConfig      `mapstructure:"kalshi"`
	Polymarket  PolymarketConfig  `mapstructure:"polymarket"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Accounts    []AccountConfig   `mapstructure:"accounts"`
}

type ServerConfig struct {
	Port                   string `mapstructure:"port"`
	ReadOnly               bool   `mapstructure:"read_only"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	// When false, requests without X-Gateway-Key are served as the default account.
	RequireAPIKey  bool   `mapstructure:"require_api_key"`
	DefaultAccount string `mapstructure:"default_account"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// KalshiConfig keeps three base URL lists apart. Order placement is deliberately
// production only; account reads try the sandbox first.
type KalshiConfig struct {
	PublicBaseURLs        []string `mapstructure:"public_base_urls"`
	AccountBaseURLs       []string `mapstructure:"account_base_urls"`
	OrderBaseURLs         []string `mapstructure:"order_base_urls"`
	StickyEndpoints       bool     `mapstructure:"sticky_endpoints"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds"`
	PriceConcurrency      int      `mapstructure:"price_concurrency"`
}

type PolymarketConfig struct {
	ClobBaseURL           string `mapstructure:"clob_base_url"`
	ChainID               int64  `mapstructure:"chain_id"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

type CatalogConfig struct {
	SeriesTickers         []string `mapstructure:"series_tickers"`
	MaxPages              int      `mapstructure:"max_pages"`
	PageLimit             int      `mapstructure:"page_limit"`
	MarketsLimit          int      `mapstructure:"markets_limit"`
	EnrichTopN            int      `mapstructure:"enrich_top_n"`
	EnrichConcurrency     int      `mapstructure:"enrich_concurrency"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds"`
}

type CredentialsConfig struct {
	// memory, redis or postgres
	Backend   string `mapstructure:"backend"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type AccountConfig struct {
	UserID     string                  `mapstructure:"user_id"`
	GatewayKey string                  `mapstructure:"gateway_key"`
	RateLimit  RateLimitConfig         `mapstructure:"rate_limit"`
	Kalshi     KalshiAccountConfig     `mapstructure:"kalshi"`
	Polymarket PolymarketAccountConfig `mapstructure:"polymarket"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type KalshiAccountConfig struct {
	APIKeyID   string `mapstructure:"api_key_id"`
	PrivateKey string `mapstructure:"private_key"`
}

type PolymarketAccountConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Secret        string `mapstructure:"secret"`
	Passphrase    string `mapstructure:"passphrase"`
	OwnerAddress  string `mapstructure:"owner_address"`
	FunderAddress string `mapstructure:"funder_address"`
	SignatureType *int   `mapstructure:"signature_type"`
}

var DefaultSeriesTickers = []string{
	"KXFED", "KXCPI", "KXGDP", "KXPAYROLLS", "KXUNRATE",
	"KXBTC", "KXETH", "KXINX", "KXNASDAQ100", "KXHIGHNY",
	"KXNBA", "KXNFL", "KXMLB", "KXNHL", "KXNCAAF",
	"KXSENATE", "KXHOUSE", "KXPRESPARTY", "KXOSCARS", "KXTRUMPSAY",
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment only")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// e.g. POLYDESK_KALSHI_REQUEST_TIMEOUT_SECONDS
	v.SetEnvPrefix("polydesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_only", false)
	v.SetDefault("server.shutdown_timeout_seconds", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("auth.require_api_key", true)
	v.SetDefault("auth.default_account", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("kalshi.public_base_urls", []string{
		"https://api.elections.kalshi.com/trade-api/v2",
		"https://trading-api.kalshi.com/trade-api/v2",
	})
	v.SetDefault("kalshi.account_base_urls", []string{
		"https://demo-api.kalshi.co/trade-api/v2",
		"https://api.elections.kalshi.com/trade-api/v2",
	})
	v.SetDefault("kalshi.order_base_urls", []string{
		"https://api.elections.kalshi.com/trade-api/v2",
	})
	v.SetDefault("kalshi.sticky_endpoints", false)
	v.SetDefault("kalshi.request_timeout_seconds", 12)
	v.SetDefault("kalshi.price_concurrency", 8)

	v.SetDefault("polymarket.clob_base_url", "https://clob.polymarket.com")
	v.SetDefault("polymarket.chain_id", 137)
	v.SetDefault("polymarket.request_timeout_seconds", 10)

	v.SetDefault("catalog.series_tickers", DefaultSeriesTickers)
	v.SetDefault("catalog.max_pages", 30)
	v.SetDefault("catalog.page_limit", 200)
	v.SetDefault("catalog.markets_limit", 1000)
	v.SetDefault("catalog.enrich_top_n", 50)
	v.SetDefault("catalog.enrich_concurrency", 1)
	v.SetDefault("catalog.request_timeout_seconds", 12)

	v.SetDefault("credentials.backend", "memory")
	v.SetDefault("credentials.key_prefix", "polydesk:creds")
}

// normalize clamps values that would otherwise break the aggregator.
func (c *Config) normalize() {
	if c.Catalog.RequestTimeoutSeconds < 10 {
		c.Catalog.RequestTimeoutSeconds = 10
	}
	if c.Catalog.RequestTimeoutSeconds > 15 {
		c.Catalog.RequestTimeoutSeconds = 15
	}
	if c.Catalog.EnrichConcurrency < 1 {
		c.Catalog.EnrichConcurrency = 1
	}
	if c.Kalshi.PriceConcurrency < 1 {
		c.Kalshi.PriceConcurrency = 1
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 5
	}
	c.Credentials.Backend = strings.ToLower(strings.TrimSpace(c.Credentials.Backend))
}
