package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultCatalogURL is the product filter endpoint of the catalog service
const DefaultCatalogURL = "https://catalog-management-system-dev-ak3ogf6zea-uc.a.run.app/cms/product/v2/filter/product"

type Config struct {
	Server    ServerConfig
	Catalog   CatalogConfig
	Scanner   ScannerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Secure    SecureStoreConfig
	Google    GoogleConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type CatalogConfig struct {
	URL            string
	PageSize       int
	Timeout        time.Duration // 0 leaves the transport default
	SearchDebounce time.Duration
}

type ScannerConfig struct {
	Cooldown time.Duration
}

type StorageConfig struct {
	Backend string // bolt, redis or postgres
	Path    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SecureStoreConfig struct {
	KeyHex  string
	KeyFile string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type LogConfig struct {
	File      string
	MaxSizeMB int
}

// RateLimitConfig budgets remote catalog calls per user and window
type RateLimitConfig struct {
	Enabled  bool
	Searches int
	Lookups  int
	Window   time.Duration
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func Load() *Config {
	// .env values go into the process environment so that both viper and
	// libraries reading os.Getenv see them
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: no .env file loaded: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("CATALOG_URL", DefaultCatalogURL)
	viper.SetDefault("CATALOG_PAGE_SIZE", 10)
	viper.SetDefault("CATALOG_TIMEOUT", "0s")
	viper.SetDefault("SEARCH_DEBOUNCE", "500ms")
	viper.SetDefault("SCAN_COOLDOWN", "2s")
	viper.SetDefault("STORAGE_BACKEND", "bolt")
	viper.SetDefault("STORAGE_PATH", "storefront.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SECURE_STORE_KEY_FILE", "storefront.key")
	viper.SetDefault("GOOGLE_SCOPES", "openid,email,profile")
	viper.SetDefault("LOG_MAX_SIZE_MB", 50)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_SEARCHES", 30)
	viper.SetDefault("RATE_LIMIT_LOOKUPS", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Catalog: CatalogConfig{
			URL:            viper.GetString("CATALOG_URL"),
			PageSize:       viper.GetInt("CATALOG_PAGE_SIZE"),
			Timeout:        viper.GetDuration("CATALOG_TIMEOUT"),
			SearchDebounce: viper.GetDuration("SEARCH_DEBOUNCE"),
		},
		Scanner: ScannerConfig{
			Cooldown: viper.GetDuration("SCAN_COOLDOWN"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(viper.GetString("STORAGE_BACKEND")),
			Path:    viper.GetString("STORAGE_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Secure: SecureStoreConfig{
			KeyHex:  viper.GetString("SECURE_STORE_KEY"),
			KeyFile: viper.GetString("SECURE_STORE_KEY_FILE"),
		},
		Google: GoogleConfig{
			ClientID:     viper.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: viper.GetString("GOOGLE_CLIENT_SECRET"),
			Scopes:       splitList(viper.GetString("GOOGLE_SCOPES")),
		},
		Log: LogConfig{
			File:      viper.GetString("LOG_FILE"),
			MaxSizeMB: viper.GetInt("LOG_MAX_SIZE_MB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:  viper.GetBool("RATE_LIMIT_ENABLED"),
			Searches: viper.GetInt("RATE_LIMIT_SEARCHES"),
			Lookups:  viper.GetInt("RATE_LIMIT_LOOKUPS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
