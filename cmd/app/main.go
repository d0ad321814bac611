package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/suchimauz/clinic-admin/internal/adapters/in/http"
	"github.com/suchimauz/clinic-admin/internal/adapters/in/rabbitmq"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/cache"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/clinicapi"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/credentials"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/guard"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/logger"
	"github.com/suchimauz/clinic-admin/internal/adapters/out/metrics"
	"github.com/suchimauz/clinic-admin/internal/config"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
	"github.com/suchimauz/clinic-admin/internal/core/services"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера с таймзоной
	mainLogger, err := logger.NewConsoleLogger(cfg.App.Timezone, cfg.App.LogLevel, cfg.IsLocal())
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := mainLogger.WithModule("Main")

	logger.Info("app.starting", out.LogFields{
		"version":         cfg.App.Version,
		"env":             cfg.App.Env,
		"timezone":        cfg.App.Timezone,
		"rabbitmqEnabled": cfg.RabbitMQ.Enabled,
		"redisEnabled":    cfg.Redis.Enabled,
		"cacheEnabled":    cfg.Cache.Enabled,
		"policy":          cfg.Cascade.Policy,
		"concurrency":     cfg.Cascade.Concurrency,
	})

	// Настройка Gin в зависимости от окружения
	if cfg.IsNotLocal() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация адаптеров
	var credentialPort out.CredentialPort
	if cfg.HasLoginCredentials() {
		credentialPort = credentials.NewLoginProvider(cfg, mainLogger.WithModule("LoginProvider"))
	} else {
		credentialPort = credentials.NewStaticProvider(cfg.ClinicAPI.Token)
	}

	clinicAPIAdapter := clinicapi.NewClinicAPIAdapter(cfg, credentialPort, mainLogger.WithModule("ClinicAPIAdapter"))

	var reportPort out.ReportStorePort
	if cfg.Cache.Enabled {
		cacheAdapter, err := cache.NewCacheAdapter(cfg, mainLogger.WithModule("CacheAdapter"))
		if err != nil {
			logger.Error("app.cache.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}
		reportPort = cacheAdapter
	}

	var guardPort out.InFlightGuardPort
	if cfg.Redis.Enabled {
		redisClient := guard.NewRedisClient(cfg)
		defer redisClient.Close()

		redisGuard := guard.NewRedisGuard(redisClient, cfg.Redis.GuardTTL, mainLogger.WithModule("RedisGuard"))
		if err := redisGuard.Ping(ctx); err != nil {
			logger.Error("app.redis.init_failed", out.LogFields{
				"addr":  cfg.Redis.Addr,
				"error": err.Error(),
			})
			os.Exit(1)
		}
		guardPort = redisGuard
	} else {
		guardPort = guard.NewMemoryGuard()
	}

	metricsAdapter := metrics.NewDeletionMetrics(prometheus.DefaultRegisterer)

	// Инициализация сервиса
	deletionService := services.NewDoctorDeletionService(
		clinicAPIAdapter,
		guardPort,
		reportPort,
		metricsAdapter,
		mainLogger,
		cfg,
	)

	// Настройка HTTP сервера
	router := gin.Default()
	controller := http.NewDoctorDeletionController(
		deletionService,
		cfg,
		prometheus.DefaultGatherer,
		mainLogger.WithModule("HttpController"),
	)
	controller.RegisterRoutes(router)

	// Настройка RabbitMQ слушателя только если он включен
	if cfg.RabbitMQ.Enabled {
		listener, err := rabbitmq.NewDeletionListener(
			deletionService,
			cfg,
			mainLogger.WithModule("RabbitMQListener"),
		)
		if err != nil {
			logger.Error("app.rabbitmq.init_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		if err := listener.Start(ctx); err != nil {
			logger.Error("app.rabbitmq.start_failed", out.LogFields{
				"error": err.Error(),
			})
			os.Exit(1)
		}

		defer func() {
			cancel()
			if err := listener.Stop(); err != nil {
				logger.Error("app.rabbitmq.stop_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("app.http.starting", out.LogFields{
			"host": cfg.HTTP.Host,
			"port": cfg.HTTP.Port,
		})

		if err := router.Run(cfg.HTTP.Host + ":" + cfg.HTTP.Port); err != nil {
			logger.Error("app.http.failed", out.LogFields{
				"error": err.Error(),
			})
			sigChan <- syscall.SIGTERM
		}
	}()

	sig := <-sigChan
	logger.Info("app.shutdown.initiated", out.LogFields{
		"signal": sig.String(),
	})

	// Дополнительное логирование для разработки
	if cfg.IsLocal() {
		logger.Debug("app.config.debug", out.LogFields{
			"config": map[string]interface{}{
				"http": map[string]string{
					"host": cfg.HTTP.Host,
					"port": cfg.HTTP.Port,
				},
				"clinicApi": map[string]interface{}{
					"url":   cfg.ClinicAPI.URL,
					"login": cfg.HasLoginCredentials(),
				},
				"rabbitmq": map[string]interface{}{
					"enabled":  cfg.RabbitMQ.Enabled,
					"queue":    cfg.RabbitMQ.Queue,
					"exchange": cfg.RabbitMQ.Exchange,
				},
				"cache": map[string]interface{}{
					"enabled":      cfg.Cache.Enabled,
					"reports_size": cfg.Cache.ReportsSize,
				},
			},
		})
	}
}
