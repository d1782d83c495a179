package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_ENABLED", "DB_HOST", "CACHE_BACKEND", "CACHE_TTL", "MQTT_ENABLED", "MQTT_QOS", "ADMIN_TOKEN", "ACL_DECISION_TIMEOUT_MS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "emstrack", cfg.Database.Database)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10000, cfg.Cache.Size)
	assert.Equal(t, "emstrack:acl", cfg.Cache.Prefix)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "emstrack/acl/cache/clear", cfg.MQTT.InvalidationTopic)
	assert.Equal(t, 2*time.Second, cfg.ACL.DecisionTimeout)
	assert.Empty(t, cfg.Admin.Token)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_NAME", "ems")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_TTL", "30")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_BROKER", "tcp://mosquitto:1883")
	t.Setenv("MQTT_QOS", "2")
	t.Setenv("ADMIN_TOKEN", "s3cret")
	t.Setenv("ACL_DECISION_TIMEOUT_MS", "500")
	t.Setenv("SEED_FILE", "seed.yaml")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "ems", cfg.Database.Database)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://mosquitto:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	assert.Equal(t, "s3cret", cfg.Admin.Token)
	assert.Equal(t, 500*time.Millisecond, cfg.ACL.DecisionTimeout)
	assert.Equal(t, "seed.yaml", cfg.SeedFile)
}

func TestLoad_BadTimeoutFallsBack(t *testing.T) {
	t.Setenv("ACL_DECISION_TIMEOUT_MS", "soon")

	assert.Equal(t, 2*time.Second, Load().ACL.DecisionTimeout)
}
