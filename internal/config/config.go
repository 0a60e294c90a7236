// Package config holds the runtime settings for the marketplace server.
// The struct is built once in main and passed by reference; business logic
// never reads the environment directly.
package config

import (
	"os"
	"time"
)

type Config struct {
	Addr     string
	MongoURI string
	MongoDB  string

	SessionLifetime time.Duration

	StripeKey      string
	StripeBaseURL  string
	Currency       string
	GatewayTimeout time.Duration

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// Load reads configuration from the environment, falling back to
// development defaults. Call godotenv.Load before this if a .env file
// should be honoured.
func Load() *Config {
	return &Config{
		Addr:            getenv("ADDR", ":4000"),
		MongoURI:        getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getenv("MONGO_DB", "etiet"),
		SessionLifetime: getduration("SESSION_LIFETIME", 12*time.Hour),
		StripeKey:       os.Getenv("STRIPE_KEY"),
		StripeBaseURL:   getenv("STRIPE_BASE_URL", "https://api.stripe.com"),
		Currency:        getenv("CURRENCY", "inr"),
		GatewayTimeout:  getduration("GATEWAY_TIMEOUT", 10*time.Second),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3Bucket:        getenv("S3_BUCKET", "etiet-images"),
		S3Region:        getenv("S3_REGION", "us-east-1"),
		S3BaseEndpoint:  os.Getenv("S3_ENDPOINT"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
