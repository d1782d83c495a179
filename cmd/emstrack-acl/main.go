package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emstrack-acl/common/database"
	"emstrack-acl/common/logger"
	mqttcommon "emstrack-acl/common/mqtt"
	rediscommon "emstrack-acl/common/redis"
	"emstrack-acl/internal/acl"
	"emstrack-acl/internal/config"
	"emstrack-acl/internal/consumer"
	httpapi "emstrack-acl/internal/http"
	"emstrack-acl/internal/permission"
	"emstrack-acl/internal/repository"
	"emstrack-acl/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "emstrack-acl")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	instanceID := uuid.NewString()
	zl.Info("Starting emstrack-acl",
		zap.String("instance_id", instanceID),
		zap.Bool("db_enabled", cfg.DBEnabled),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
	)

	// repositories
	var (
		db        *sql.DB
		usersRepo repository.UsersRepository
		permsRepo repository.PermissionsRepository
		callsRepo repository.CallsRepository
	)
	if cfg.DBEnabled {
		db, err = database.NewPostgresDB(&cfg.Database)
		if err != nil {
			zl.Fatal("Failed to connect to database", zap.Error(err))
		}
		usersRepo = repository.NewPostgresUsersRepository(db)
		permsRepo = repository.NewPostgresPermissionsRepository(db)
		callsRepo = repository.NewPostgresCallsRepository(db)
	} else {
		mem := repository.NewMemoryStore()
		if cfg.SeedFile != "" {
			seed, err := repository.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				zl.Fatal("Failed to load seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
			}
			if err := seed.Apply(mem); err != nil {
				zl.Fatal("Failed to apply seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
			}
		}
		zl.Warn("DB disabled, using in-memory repositories", zap.String("seed_file", cfg.SeedFile))
		usersRepo, permsRepo, callsRepo = mem, mem, mem
	}

	// permission cache
	var (
		cache       permission.Cache
		redisClient *rediscommon.Client
	)
	switch cfg.Cache.Backend {
	case "redis":
		redisClient = rediscommon.NewRedisClient(&cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rediscommon.Ping(pingCtx, redisClient); err != nil {
			zl.Warn("Redis not reachable at startup, cache will be bypassed until it is", zap.Error(err))
		}
		cancel()
		cache = permission.NewRedisCache(redisClient, cfg.Cache.Prefix, cfg.Cache.TTL, zl)
	case "none":
		cache = permission.NopCache{}
	default:
		cache = permission.NewMemoryCache(cfg.Cache.Size, cfg.Cache.TTL)
	}
	store := permission.NewStore(permsRepo, cache, zl)
	engine := acl.NewEngine(usersRepo, callsRepo, store, zl)

	// cross-instance invalidation
	var (
		mqttClient  *mqttcommon.Client
		invalidator *consumer.InvalidationConsumer
		publisher   service.Publisher
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MQTT.Enabled {
		// one client id per host: the broker drops an older session using the same id
		suffix := instanceID[:8]
		if hostname, err := os.Hostname(); err == nil && hostname != "" {
			suffix = hostname
		}
		cfg.MQTT.ClientID = cfg.MQTT.ClientID + "-" + suffix
		mqttClient, err = mqttcommon.NewClient(&cfg.MQTT.MQTTConfig, zl)
		if err != nil {
			zl.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		publisher = mqttClient
		invalidator = consumer.NewInvalidationConsumer(mqttClient, cfg.MQTT.InvalidationTopic, cfg.MQTT.QoS, instanceID, store, zl)
		if err := invalidator.Start(ctx); err != nil {
			zl.Fatal("Failed to start invalidation consumer", zap.Error(err))
		}
	}
	cacheService := service.NewCacheService(store, publisher, cfg.MQTT.InvalidationTopic, cfg.MQTT.QoS, instanceID, zl)

	// HTTP
	router := httpapi.NewRouter(zl)
	router.RegisterMQTTAuthRoutes(httpapi.NewMQTTAuthHandler(engine, cfg.ACL.DecisionTimeout, zl))
	router.RegisterAdminRoutes(httpapi.NewAdminHandler(cacheService, cfg.Admin.Token, zl))
	router.RegisterHealthRoutes()

	srv := service.NewServer(cfg.HTTP.Addr, router, zl)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zl.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			zl.Error("HTTP server failed", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		zl.Error("Error during HTTP shutdown", zap.Error(err))
	}
	if invalidator != nil {
		_ = invalidator.Stop(shutdownCtx)
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = rediscommon.Close(redisClient)
	}
	_ = database.Close(db)

	zl.Info("Service stopped")
}
