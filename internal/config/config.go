package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port                     string  `mapstructure:"PORT"`
	Env                      string  `mapstructure:"ENV"`
	DatabaseURL              string  `mapstructure:"DATABASE_URL"`
	DBMaxConns               int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns               int32   `mapstructure:"DB_MIN_CONNS"`
	RedisURL                 string  `mapstructure:"REDIS_URL"`
	AuthSigningKey           string  `mapstructure:"AUTH_SIGNING_KEY"`
	PeerReviewRate           float64 `mapstructure:"PEER_REVIEW_RATE"`
	NotifyWebhookURL         string  `mapstructure:"NOTIFY_WEBHOOK_URL"`
	DirectoryCacheTTLSeconds int     `mapstructure:"DIRECTORY_CACHE_TTL_SECONDS"`
	MigrationsDir            string  `mapstructure:"MIGRATIONS_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("PEER_REVIEW_RATE", 0.15)
	v.SetDefault("DIRECTORY_CACHE_TTL_SECONDS", 5)
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("PEER_REVIEW_RATE")
	v.BindEnv("NOTIFY_WEBHOOK_URL")
	v.BindEnv("DIRECTORY_CACHE_TTL_SECONDS")
	v.BindEnv("MIGRATIONS_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuth is active — all requests run as an admin professional.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key is mandatory so that real JWT authentication is enforced, and
// the peer-review sampling rate must be a probability.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf(
			"AUTH_SIGNING_KEY must be set when ENV is %q. "+
				"Refusing to start without authentication configuration", c.Env)
	}
	if !c.IsDev() && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if c.PeerReviewRate < 0 || c.PeerReviewRate > 1 {
		return fmt.Errorf("PEER_REVIEW_RATE must be within [0,1], got %v", c.PeerReviewRate)
	}
	return nil
}
