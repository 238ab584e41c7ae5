package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/shenikar/geofence_monitor/docs"
	"github.com/shenikar/geofence_monitor/internal/broker/rabbitmq"
	"github.com/shenikar/geofence_monitor/internal/config"
	v1 "github.com/shenikar/geofence_monitor/internal/handler/http/v1"
	mqtthandler "github.com/shenikar/geofence_monitor/internal/handler/mqtt"
	"github.com/shenikar/geofence_monitor/internal/metrics"
	"github.com/shenikar/geofence_monitor/internal/repository"
	"github.com/shenikar/geofence_monitor/internal/service"
	"github.com/shenikar/geofence_monitor/internal/webhook"
	"github.com/shenikar/geofence_monitor/pkg/logger"
	mqttclient "github.com/shenikar/geofence_monitor/pkg/mqtt"
	"github.com/shenikar/geofence_monitor/pkg/postgres"
	rabbitclient "github.com/shenikar/geofence_monitor/pkg/rabbitmq"
	redisclient "github.com/shenikar/geofence_monitor/pkg/redis"
)

// @title Workforce Geofence Monitor API
// @version 1.0
// @description Tracks employee locations against geofences and raises entry, exit, unauthorized exit and after-hours alerts.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)
	log.WithField("timezone", cfg.Timezone).Info("Configuration loaded")

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	log.Info("Running database migrations...")
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Info("Database migrations applied successfully")

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL, int32(cfg.DBMaxConns))
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPool,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Получатели событий: очередь вебхуков всегда, RabbitMQ - если задан URL
	publishers := []service.EventPublisher{webhook.NewRedisWebhookPublisher(redisClient)}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitclient.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer conn.Close()

		rabbitPublisher, err := rabbitmq.NewEventPublisher(conn)
		if err != nil {
			log.Fatalf("Failed to set up RabbitMQ publisher: %v", err)
		}
		defer rabbitPublisher.Close()
		publishers = append(publishers, rabbitPublisher)
		log.WithField("exchange", rabbitmq.ExchangeName).Info("RabbitMQ event publishing enabled")
	}

	// Инициализация и запуск воркера вебхуков
	webhookWorker := webhook.NewWebhookWorker(redisClient, log, cfg, appMetrics)
	webhookWorker.Start(ctx)

	// Инициализация репозиториев
	geofenceRepo := repository.NewGeofenceRepository(dbpool)
	geofenceCache := repository.NewGeofenceCache(redisClient, cfg.GeofenceCacheTTL)
	stateStore := repository.NewStateStore(redisClient, cfg.StateTTL)
	alertRepo := repository.NewAlertRepository(dbpool)
	attendanceRepo := repository.NewAttendanceRepository(dbpool)
	locationRepo := repository.NewLocationRepository(dbpool)

	// Инициализация сервисов
	geofenceService := service.NewGeofenceService(geofenceRepo, geofenceCache, stateStore, log)
	alertService := service.NewAlertService(alertRepo, publishers, log, appMetrics)
	monitorService := service.NewMonitorService(
		geofenceService,
		stateStore,
		locationRepo,
		alertRepo,
		attendanceRepo,
		publishers,
		service.MonitorConfig{
			Location:               cfg.Location,
			Parallelism:            cfg.MonitorParallelism,
			StatsTimeWindowMinutes: cfg.StatsTimeWindowMinutes,
		},
		log,
		appMetrics,
	)

	// Подписка на MQTT, если задан брокер
	if cfg.MQTTBroker != "" {
		mqttClient, err := mqttclient.NewClient(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTimeout)
		if err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		defer mqttClient.Disconnect(250)

		subscriber := mqtthandler.NewLocationSubscriber(mqttClient, monitorService, cfg.MQTTTopicPrefix, log)
		if err := subscriber.Start(); err != nil {
			log.Fatalf("Failed to subscribe to location feed: %v", err)
		}
		defer subscriber.Stop()
	}

	// Инициализация хэндлеров
	handler := v1.NewHandler(geofenceService, monitorService, alertService, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Swagger UI и метрики
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Запуск HTTP-сервера
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	cancel()

	log.Info("Server gracefully stopped")
}
