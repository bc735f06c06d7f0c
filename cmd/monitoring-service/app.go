package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"auditwatch/internal/auditing"
	"auditwatch/internal/broker"
	"auditwatch/internal/config"
	"auditwatch/internal/constants"
	"auditwatch/internal/customchecks"
	"auditwatch/internal/eventlog"
	"auditwatch/internal/events"
	"auditwatch/internal/heartbeat"
	"auditwatch/internal/logger"
	"auditwatch/internal/recoverability"
	"auditwatch/pkg/bootstrap"
	"auditwatch/pkg/health"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/middleware"
	"auditwatch/pkg/ratelimit"
	"auditwatch/pkg/tracing"
)

const serviceName = constants.ServiceNameMonitoring

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	postgresDB     *sql.DB
	mongoClient    *mongo.Client
	failureStore   recoverability.FailureStore
	eventLog       eventlog.Store
	monitor        *heartbeat.Monitor
	tracker        *customchecks.Tracker
	receivers      []*broker.Receiver
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(serviceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.RegisterMonitoringMetrics()
	metrics.RegisterBrokerMetrics()
	metrics.RegisterDatabaseMetrics()
	metrics.RegisterAPIMetrics()

	if err := a.initEventLog(ctx); err != nil {
		return fmt.Errorf("failed to initialize event log: %w", err)
	}

	if err := a.initFailureStore(ctx); err != nil {
		a.Logger.WarnwCtx(ctx, "MongoDB unavailable, failed imports will only be written to disk", "error", err)
	}

	if err := a.InitProducer(serviceName); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	var notifier events.Notifier = events.NewKafkaNotifier(a.Producer, a.Config.Broker.Kafka.EventsTopic, a.Logger.Named("events"))
	if a.eventLog != nil {
		notifier = eventlog.NewRecordingNotifier(notifier, a.eventLog, a.Logger.Named("eventlog"))
	}

	a.monitor = heartbeat.NewMonitor(a.Config.Heartbeat, notifier, a.Logger.Named("heartbeat"))
	a.tracker = customchecks.NewTracker(notifier, a.Logger.Named("customchecks"))

	if a.Config.Ingestion.Enabled {
		if err := a.initReceiver(a.Config.Broker.Kafka.HeartbeatTopic, constants.StageHeartbeat, a.monitor.HandleMessage); err != nil {
			return fmt.Errorf("failed to initialize heartbeat receiver: %w", err)
		}
		if err := a.initReceiver(a.Config.Broker.Kafka.CustomCheckTopic, constants.StageCustomCheck, a.tracker.HandleMessage); err != nil {
			return fmt.Errorf("failed to initialize custom check receiver: %w", err)
		}
	}

	tp, err := tracing.Init(a.Config.Tracing, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	a.initHTTPServer(ctx)
	return nil
}

// initEventLog enables the Postgres event log when database.postgres is configured.
func (a *App) initEventLog(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	if db == nil {
		a.Logger.InfowCtx(ctx, "PostgreSQL not configured, event log disabled")
		return nil
	}
	a.postgresDB = db

	if a.Config.Database.RunMigrations {
		if err := eventlog.RunMigrations(db); err != nil {
			return err
		}
	}

	a.eventLog = eventlog.NewRepository(db)
	return nil
}

func (a *App) initFailureStore(ctx context.Context) error {
	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	if mongoClient == nil {
		return nil
	}
	a.mongoClient = mongoClient
	a.failureStore = auditing.NewMongoRepository(mongoClient.Database(a.Config.Database.MongoDB.Database))
	return nil
}

func (a *App) initReceiver(topic, stage string, handler broker.HandlerFunc) error {
	source, err := a.OpenSource(topic, stage, serviceName)
	if err != nil {
		return err
	}

	failures := recoverability.NewImportFailuresHandler(a.Config.Logging.LogPath, stage, a.failureStore, a.Logger.Named("failures"))
	policy := recoverability.NewCapturingPolicy(recoverability.ConfigFrom(a.Config.Ingestion), stage, failures, a.Logger)

	a.receivers = append(a.receivers, broker.NewReceiver(
		broker.ReceiverConfigFrom(stage, serviceName, a.Config.Ingestion),
		source,
		handler,
		policy,
		a.Logger.Named("receiver"),
	))
	return nil
}

func (a *App) initHTTPServer(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(serviceName, "/health", "/metrics", "/swagger"))
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.Logger, "/health", "/metrics", "/swagger"))

	if a.Config.API.RateLimit.Enabled {
		rateLimitConfig := ratelimit.FromSettings(a.Config.API.RateLimit)
		router.Use(ratelimit.RateLimitMiddleware(ctx, rateLimitConfig))
		a.Logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	heartbeat.NewHandler(a.monitor).RegisterRoutes(router)
	customchecks.NewHandler(a.tracker).RegisterRoutes(router)
	if a.eventLog != nil {
		eventlog.NewHandler(a.eventLog, a.Logger).RegisterRoutes(router)
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	if a.postgresDB != nil {
		healthRegistry.RegisterOptional(health.NewPostgreSQLChecker(a.postgresDB))
	}
	if a.mongoClient != nil {
		healthRegistry.RegisterOptional(health.NewMongoDBChecker(a.mongoClient))
	}

	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.monitor.Run(gCtx); err != nil && gCtx.Err() == nil {
			return fmt.Errorf("heartbeat monitor error: %w", err)
		}
		return nil
	})

	for _, receiver := range a.receivers {
		g.Go(func() error {
			if err := receiver.Run(gCtx); err != nil && gCtx.Err() == nil {
				return fmt.Errorf("receiver error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	runErr := g.Wait()
	if err := a.Shutdown(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.Base.Shutdown(ctx, func(ctx context.Context) []error {
		var errs []error

		shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer cancel()

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		return append(errs, a.dbConnector.ShutdownDatabases(shutdownCtx, nil, a.postgresDB, a.mongoClient)...)
	})
}
