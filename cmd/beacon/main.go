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

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/vesselops/beacon/config"
	"github.com/vesselops/beacon/internal/handlers"
	requestrepo "github.com/vesselops/beacon/internal/repositories/request"
	signalrepo "github.com/vesselops/beacon/internal/repositories/signal"
	"github.com/vesselops/beacon/pkg/database"
	"github.com/vesselops/beacon/pkg/events"
	"github.com/vesselops/beacon/pkg/health"
	"github.com/vesselops/beacon/pkg/kafka"
	"github.com/vesselops/beacon/pkg/matching"
	"github.com/vesselops/beacon/pkg/middleware"
	"github.com/vesselops/beacon/pkg/startup"
	"github.com/vesselops/beacon/pkg/tracing"
	"github.com/vesselops/beacon/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: cfg.TracingInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		shutdown := tracing.Init(cfg.AppName, exporter)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode)
	sqlxDB, err := sqlx.Open(cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer sqlxDB.Close()

	sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	db := database.NewDatabaseInstance(sqlxDB, logger)

	signals := signalrepo.NewRepository(db, logger)
	requests := requestrepo.NewRepository(db, logger)

	var sink matching.EventSink
	var producer *kafka.Producer
	if cfg.KafkaProducerEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaEventsTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		sink = events.NewEmitter(producer, logger)
	}

	service := matching.NewService(logger, signals, requests, sink, matching.Config{
		SuggestionLimit: cfg.SuggestionLimit,
		AutoLink:        cfg.AutoLinkEnabled,
	})

	e := newServer(cfg, logger)
	checker := health.NewChecker(db, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	handlers.NewSignalHandler(service, signals, logger).Register(api.Group("/signals"))
	handlers.NewRequestHandler(requests, logger).Register(api.Group("/requests"))

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(&startup.Func{
		Name: "database",
		StartFunc: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
	})

	boot.AddDependency(&startup.Func{
		Name:  "migrations",
		Needs: []string{"database"},
		StartFunc: func(ctx context.Context) error {
			driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			ms := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
			})
			return ms.Migrate(cfg.DatabaseName, driver)
		},
	})

	if cfg.KafkaConsumerEnabled {
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaSignalsTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, service.HandleReport)

		boot.AddDependency(&startup.Func{
			Name:      "kafka-consumer",
			Needs:     []string{"migrations"},
			StartFunc: consumer.Start,
			StopFunc: func(ctx context.Context) error {
				return consumer.Stop()
			},
		})
	}

	boot.AddDependency(&startup.Func{
		Name:  "http-server",
		Needs: []string{"migrations"},
		StartFunc: func(ctx context.Context) error {
			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
				}
			}()
			return nil
		},
		StopFunc: e.Shutdown,
	})

	if err := boot.Start(ctx); err != nil {
		return err
	}
	checker.SetReady(true)
	logger.WithField("port", cfg.Port).Infof("%s started", cfg.AppName)

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return boot.Stop(shutdownCtx)
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func newServer(cfg *config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	return e
}
