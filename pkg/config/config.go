package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Auth providers accepted by AUTH_PROVIDER.
const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"
)

type Config struct {
	Port                    string  `mapstructure:"PORT"`
	Env                     string  `mapstructure:"ENV"`
	PostgresConnStr         string  `mapstructure:"POSTGRES_CONN_STR"`
	MongoURI                string  `mapstructure:"MONGO_URI"`
	MongoDatabase           string  `mapstructure:"MONGO_DATABASE"`
	JWTSecret               string  `mapstructure:"JWT_SECRET"`
	JWTTTLHours             int     `mapstructure:"JWT_TTL_HOURS"`
	AuthProvider            string  `mapstructure:"AUTH_PROVIDER"`
	FirebaseCredentialsPath string  `mapstructure:"FIREBASE_CREDENTIALS_PATH"`
	FirebaseStorageBucket   string  `mapstructure:"FIREBASE_STORAGE_BUCKET"`
	UploadDir               string  `mapstructure:"UPLOAD_DIR"`
	PublicBaseURL           string  `mapstructure:"PUBLIC_BASE_URL"`
	MetricsPort             string  `mapstructure:"METRICS_PORT"`
	AllowedOrigins          string  `mapstructure:"ALLOWED_ORIGINS"`
	RateLimitRPS            float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst          int     `mapstructure:"RATE_LIMIT_BURST"`
	LogLevel                string  `mapstructure:"LOG_LEVEL"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, assuming environment variables are set.")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("POSTGRES_CONN_STR", "")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "nano_feed")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL_HOURS", 24*7)
	v.SetDefault("AUTH_PROVIDER", AuthProviderJWT)
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "")
	v.SetDefault("FIREBASE_STORAGE_BUCKET", "")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("METRICS_PORT", "9090")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.AuthProvider = strings.ToLower(strings.TrimSpace(cfg.AuthProvider))
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.PostgresConnStr == "" {
		return errors.New("POSTGRES_CONN_STR is required")
	}
	if c.MongoURI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTLHours <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}

	switch c.AuthProvider {
	case AuthProviderJWT:
	case AuthProviderFirebase:
		if c.FirebaseCredentialsPath == "" {
			return errors.New("FIREBASE_CREDENTIALS_PATH is required when AUTH_PROVIDER is firebase")
		}
	default:
		return fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", AuthProviderJWT, AuthProviderFirebase, c.AuthProvider)
	}

	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.AllowedOrigins == "*" {
			logrus.Warn("ALLOWED_ORIGINS is set to '*' in production")
		}
	} else if len(c.JWTSecret) < 32 {
		logrus.Warn("JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
