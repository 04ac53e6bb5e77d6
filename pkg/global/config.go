package global

import (
	"errors"
	"time"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

var DefaultAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Config holds every runtime setting read from the environment.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	StoreTimeout  time.Duration

	RedisAddress    string
	RedisPassword   string
	ItemCacheTTL    time.Duration
	CheckoutLockTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string

	OpenAIEndpoint   string
	OpenAIAPIKey     string
	OpenAIDeployment string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Env:      GetEnvOrDefault("ENV", "development"),
		Port:     GetEnvOrDefault("PORT", "5500"),
		LogLevel: GetEnvOrDefault("LOG_LEVEL", "info"),

		StoreDriver:   GetEnvOrDefault("STORE_DRIVER", StoreDriverMongo),
		MongoURI:      GetEnvOrDefault("MONGODB_URI", ""),
		MongoDatabase: GetEnvOrDefault("MONGODB_DATABASE", "eatathome"),
		StoreTimeout:  GetEnvDuration("STORE_TIMEOUT", 10*time.Second),

		RedisAddress:    GetEnvOrDefault("REDIS_ADDRESS", ""),
		RedisPassword:   GetEnvOrDefault("REDIS_PASSWORD", ""),
		ItemCacheTTL:    GetEnvDuration("ITEM_CACHE_TTL", 5*time.Minute),
		CheckoutLockTTL: GetEnvDuration("CHECKOUT_LOCK_TTL", 30*time.Second),

		KafkaBrokers: GetEnvList("KAFKA_BROKERS", nil),
		KafkaTopic:   GetEnvOrDefault("KAFKA_TOPIC", "order.placed"),

		RateLimitRPS:   GetEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: GetEnvInt("RATE_LIMIT_BURST", 20),
		AllowedOrigins: GetEnvList("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins),

		OpenAIEndpoint:   GetEnvOrDefault("AZURE_OPENAI_ENDPOINT", ""),
		OpenAIAPIKey:     GetEnvOrDefault("AZURE_OPENAI_API_KEY", ""),
		OpenAIDeployment: GetEnvOrDefault("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-35-turbo"),
	}

	switch cfg.StoreDriver {
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			return cfg, errors.New("MONGODB_URI is not set in environment variables")
		}
	case StoreDriverMemory:
	default:
		return cfg, errors.New("STORE_DRIVER must be one of: mongo, memory")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
