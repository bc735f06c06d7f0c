package bootstrap

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/config"
	"auditwatch/internal/logger"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "audit",
		Password: "p@ss word",
		DBName:   "events",
	})
	assert.Equal(t, "postgres://audit:p%40ss%20word@db:5432/events?sslmode=disable", dsn)
}

func TestDatabaseConnector_OptionalStores(t *testing.T) {
	dc := NewDatabaseConnector(&config.Config{}, logger.NopLogger())
	ctx := context.Background()

	rdb, err := dc.InitRedis(ctx)
	require.NoError(t, err)
	assert.Nil(t, rdb)

	db, err := dc.InitPostgreSQL(ctx)
	require.NoError(t, err)
	assert.Nil(t, db)

	mc, err := dc.InitMongoDB(ctx)
	require.NoError(t, err)
	assert.Nil(t, mc)

	assert.Empty(t, dc.ShutdownDatabases(ctx, nil, nil, nil))
}

func TestDatabaseConnector_InitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Database.Redis = config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr)}

	dc := NewDatabaseConnector(cfg, logger.NopLogger())
	rdb, err := dc.InitRedis(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rdb)
	assert.Empty(t, dc.ShutdownDatabases(context.Background(), rdb, nil, nil))
}

func TestBase_ProducerLifecycle(t *testing.T) {
	cfg := &config.Config{Broker: config.BrokerConfig{Type: "kafka", Kafka: config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}}}}
	b := NewBase(cfg, logger.NopLogger())

	require.NoError(t, b.InitProducer("audit-service"))
	assert.NotNil(t, b.Producer)
	assert.NoError(t, b.Shutdown(context.Background(), nil))
	assert.Nil(t, b.Producer)
}

func TestBase_UnknownBroker(t *testing.T) {
	b := NewBase(&config.Config{Broker: config.BrokerConfig{Type: "rabbitmq"}}, logger.NopLogger())

	assert.Error(t, b.InitProducer("svc"))
	_, err := b.OpenSource("audit", "Audit", "svc")
	assert.Error(t, err)
	assert.Empty(t, b.Sources)
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
