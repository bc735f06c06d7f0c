package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"auditwatch/internal/auditing"
	"auditwatch/internal/bodystorage"
	"auditwatch/internal/broker"
	"auditwatch/internal/config"
	"auditwatch/internal/constants"
	"auditwatch/internal/enrichment"
	"auditwatch/internal/logger"
	"auditwatch/internal/recoverability"
	"auditwatch/pkg/bootstrap"
	"auditwatch/pkg/health"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/middleware"
	"auditwatch/pkg/ratelimit"
	"auditwatch/pkg/tracing"
)

const serviceName = constants.ServiceNameAudit

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	redis          *redis.Client
	mongoClient    *mongo.Client
	bodies         bodystorage.Storage
	repo           *auditing.MongoRepository
	ingestor       *auditing.Ingestor
	replayer       *auditing.FailedImportReplayer
	receiver       *broker.Receiver
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
	metrics.RegisterAuditMetrics()
	metrics.RegisterBrokerMetrics()
	metrics.RegisterDatabaseMetrics()
	metrics.RegisterAPIMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initStores(ctx); err != nil {
		return fmt.Errorf("failed to initialize stores: %w", err)
	}

	if err := a.initIngestion(); err != nil {
		return fmt.Errorf("failed to initialize ingestion: %w", err)
	}

	if a.Config.Ingestion.Enabled {
		if err := a.initReceiver(); err != nil {
			return fmt.Errorf("failed to initialize receiver: %w", err)
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

func (a *App) initStores(ctx context.Context) error {
	mongoClient, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return err
	}
	if mongoClient == nil {
		return fmt.Errorf("database.mongodb.uri is required")
	}
	a.mongoClient = mongoClient

	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	if rdb == nil {
		return fmt.Errorf("database.redis.host is required for body storage")
	}
	a.redis = rdb

	a.bodies = bodystorage.NewRedisStorage(rdb, a.Config.BodyStorage, a.Config.Ingestion.Retention, a.Config.CircuitBreaker)
	a.repo = auditing.NewMongoRepository(mongoClient.Database(a.Config.Database.MongoDB.Database))
	return nil
}

func (a *App) initIngestion() error {
	pipeline, err := enrichment.Build(a.Config.Enrichment)
	if err != nil {
		return fmt.Errorf("failed to build enrichment pipeline: %w", err)
	}
	a.Logger.Infow("Enrichment pipeline ready", "enrichers", pipeline.Names())

	importer := auditing.NewImporter(
		pipeline,
		bodystorage.NewBodyEnricher(a.bodies, a.Config.BodyStorage.MaxInlineSize),
		a.Config.Ingestion.Retention,
	)
	repo := auditing.NewCircuitBreakerRepository(a.repo, a.Config.CircuitBreaker)
	a.ingestor = auditing.NewIngestor(importer, repo, a.Logger.Named("ingestor"))
	a.replayer = auditing.NewFailedImportReplayer(a.ingestor, a.repo, a.Config.Logging.LogPath, a.Logger.Named("reimport"))
	return nil
}

func (a *App) initReceiver() error {
	source, err := a.OpenSource(a.Config.Broker.Kafka.AuditTopic, constants.StageAudit, serviceName)
	if err != nil {
		return err
	}

	failures := recoverability.NewImportFailuresHandler(a.Config.Logging.LogPath, constants.StageAudit, a.repo, a.Logger.Named("failures"))
	policy := recoverability.NewCapturingPolicy(recoverability.ConfigFrom(a.Config.Ingestion), constants.StageAudit, failures, a.Logger)

	a.receiver = broker.NewReceiver(
		broker.ReceiverConfigFrom(constants.StageAudit, serviceName, a.Config.Ingestion),
		source,
		a.ingestor.Ingest,
		policy,
		a.Logger.Named("receiver"),
	)
	return nil
}

func (a *App) initHTTPServer(ctx context.Context) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(serviceName, "/health", "/metrics"))
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.Logger, "/health", "/metrics"))

	if a.Config.API.RateLimit.Enabled {
		rateLimitConfig := ratelimit.FromSettings(a.Config.API.RateLimit)
		router.Use(ratelimit.RateLimitMiddleware(ctx, rateLimitConfig))
		a.Logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	auditing.NewHandler(a.bodies, a.Logger).RegisterRoutes(router)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	healthRegistry.RegisterOptional(health.NewRedisChecker(a.redis))
	if a.receiver != nil {
		healthRegistry.Register(health.NewKafkaChecker(a.Config.Broker.Kafka.Brokers))
	}

	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

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

	if a.receiver != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(gCtx, "Audit receiver starting", "topic", a.Config.Broker.Kafka.AuditTopic)
			if err := a.receiver.Run(gCtx); err != nil && gCtx.Err() == nil {
				return fmt.Errorf("audit receiver error: %w", err)
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

// Shutdown releases the broker, tracer and stores once the receiver and the
// HTTP server have stopped.
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

		return append(errs, a.shutdownStores(shutdownCtx)...)
	})
}

func (a *App) shutdownStores(ctx context.Context) []error {
	return a.dbConnector.ShutdownDatabases(ctx, a.redis, nil, a.mongoClient)
}
