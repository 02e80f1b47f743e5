package config

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string   `mapstructure:"APP_PORT"`
	Env               string   `mapstructure:"ENV"`
	LogLevel          string   `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int      `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`

	// Zone booking slot dates and times are expressed in.
	Timezone string `mapstructure:"TIMEZONE"`

	// Remote booking API.
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	AssetBaseURL   string        `mapstructure:"ASSET_BASE_URL"`
	SocketURL      string        `mapstructure:"SOCKET_URL"`
	SocketToken    string        `mapstructure:"SOCKET_TOKEN"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	PageSize       int           `mapstructure:"PAGE_SIZE"`
	SearchDebounce time.Duration `mapstructure:"SEARCH_DEBOUNCE"`

	// Session cookie issued by the remote API; the secret is shared with it.
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	SessionCookie string `mapstructure:"SESSION_COOKIE"`

	// Redis configuration.
	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB    int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB    int           `mapstructure:"REDIS_QUEUE_DB"`
	CatalogCacheTTL time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	// Third-party integrations. Empty values disable the integration.
	StripeKey           string `mapstructure:"STRIPE_KEY"`
	CloudinaryURL       string `mapstructure:"CLOUDINARY_URL"`
	FirebaseCredentials string `mapstructure:"FIREBASE_CREDENTIALS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig.normalize()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("CORS_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("API_BASE_URL", "http://localhost:5000")
	v.SetDefault("ASSET_BASE_URL", "http://localhost:5000/uploads")
	v.SetDefault("SOCKET_URL", "")
	v.SetDefault("SOCKET_TOKEN", "")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("SEARCH_DEBOUNCE", "500ms")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SESSION_COOKIE", "token")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")
	v.SetDefault("STRIPE_KEY", "")
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("FIREBASE_CREDENTIALS", "")
}

func (c *Config) normalize() {
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	c.AssetBaseURL = strings.TrimRight(c.AssetBaseURL, "/")
	if c.SocketURL == "" {
		c.SocketURL = DeriveSocketURL(c.APIBaseURL)
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
}

// DeriveSocketURL maps the API base URL onto the ws(s) scheme of the same host.
func DeriveSocketURL(apiBase string) string {
	u, err := url.Parse(apiBase)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/socket"
	u.RawQuery = ""
	return u.String()
}

// Location resolves Timezone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Unknown TIMEZONE %q, using host zone", c.Timezone)
		return time.Local
	}
	return loc
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
