package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "emstrack-acl/common/config"

	"github.com/joho/godotenv"
)

// Config emstrack-acl settings
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  commoncfg.DatabaseConfig
	Redis     commoncfg.RedisConfig
	Cache     commoncfg.CacheConfig
	MQTT      MQTTConfig
	ACL       struct {
		DecisionTimeout time.Duration
	}
	Admin struct {
		Token string // empty disables the bearer check
	}
	// SeedFile YAML fixture for the in-memory repositories (DB disabled)
	SeedFile string
	Log      struct {
		Level  string
		Format string
	}
}

// MQTTConfig broker connection plus the cache invalidation channel
type MQTTConfig struct {
	commoncfg.MQTTConfig
	Enabled           bool
	InvalidationTopic string
}

// Load reads the environment. A .env file in the working directory, when
// present, fills variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "emstrack"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 20
	cfg.Database.MaxIdle = 5
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Cache.Backend = "memory"
	cfg.Cache.TTL = 5 * time.Minute
	cfg.Cache.Size = 10000
	cfg.Cache.Prefix = "emstrack:acl"
	cfg.Cache.LoadFromEnv("CACHE")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "emstrack-acl"
	cfg.MQTT.QoS = 1
	cfg.MQTT.MQTTConfig.LoadFromEnv("MQTT")
	cfg.MQTT.InvalidationTopic = getEnv("MQTT_INVALIDATION_TOPIC", "emstrack/acl/cache/clear")

	cfg.ACL.DecisionTimeout = time.Duration(parseInt(getEnv("ACL_DECISION_TIMEOUT_MS", "2000"), 2000)) * time.Millisecond
	cfg.Admin.Token = getEnv("ADMIN_TOKEN", "")
	cfg.SeedFile = getEnv("SEED_FILE", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
