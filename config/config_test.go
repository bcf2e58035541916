package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, ":8083", cfg.Server.HTTPPort)
	assert.Equal(t, "dev", cfg.Server.AppEnv)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "orders.events", cfg.Kafka.OrdersTopic)
	assert.Equal(t, "stock.sync.failures", cfg.Kafka.SyncFailuresTopic)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Elastic.Addresses)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", ":9090")
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "25")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("LOGGER_DISABLE_STACKTRACE", "false")

	cfg := LoadEnv()

	assert.Equal(t, ":9090", cfg.Server.HTTPPort)
	assert.Equal(t, 25, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Logger.DisableStacktrace)
}

func TestLoadEnvBadIntFallsBack(t *testing.T) {
	t.Setenv("POSTGRES_MAX_OPEN_CONNS", "not-a-number")
	cfg := LoadEnv()
	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
}
