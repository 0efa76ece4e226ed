package cmd

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries every runtime setting of the service. Values come from the
// environment, optionally seeded from a .env file in development.
type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSslMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	// OfferTTL bounds how long a courier may sit on an offer before the
	// expiry job resolves it as expired.
	OfferTTL time.Duration `envconfig:"OFFER_TTL" default:"30s"`

	// MaxOfferRounds bounds how many couriers are tried per order before
	// dispatch escalates to manual handling.
	MaxOfferRounds int `envconfig:"MAX_OFFER_ROUNDS" default:"5"`

	// ProofPrivateKeyPath points at the PEM-encoded RSA private key used to
	// open proof-of-delivery envelopes.
	ProofPrivateKeyPath string `envconfig:"PROOF_PRIVATE_KEY" required:"true"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	return config, nil
}
