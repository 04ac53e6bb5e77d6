package global

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "PORT", "MONGODB_URI", "MONGODB_DATABASE", "STORE_TIMEOUT", "CHECKOUT_LOCK_TTL",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", StoreDriverMemory)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5500", cfg.Port)
	assert.Equal(t, "eatathome", cfg.MongoDatabase)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "order.placed", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, DefaultAllowedOrigins, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresMongoURI(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreDriverMongo)
	t.Setenv("MONGODB_URI", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigParsesValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", StoreDriverMongo)
	t.Setenv("MONGODB_URI", "mongodb://127.0.0.1:27017")
	t.Setenv("ENV", "production")
	t.Setenv("STORE_TIMEOUT", "3s")
	t.Setenv("CHECKOUT_LOCK_TTL", "garbage")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "x")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 30*time.Second, cfg.CheckoutLockTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
}
