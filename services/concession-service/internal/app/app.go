package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"railway/common/logger"
	"railway/common/telemetry"
	"railway/services/concession-service/internal/approval"
	"railway/services/concession-service/internal/changefeed"
	"railway/services/concession-service/internal/concession"
	"railway/services/concession-service/internal/config"
	"railway/services/concession-service/internal/db"
	"railway/services/concession-service/internal/export"
	"railway/services/concession-service/internal/health"
	"railway/services/concession-service/internal/intake"
	"railway/services/concession-service/internal/kafka"
	"railway/services/concession-service/internal/metrics"
	"railway/services/concession-service/internal/middleware"
	"railway/services/concession-service/internal/passes"
	"railway/services/concession-service/internal/student"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const healthCheckInterval = 15 * time.Second

type App struct {
	config       *config.Config
	router       chi.Router
	server       *http.Server
	grpcServer   *grpc.Server
	healthServer *grpchealth.Server
	checker      *health.Checker
	database     *bun.DB
	feed         changefeed.Feed
	producer     *kafka.Producer
	telemetry    *telemetry.Telemetry
	logger       *slog.Logger
	stop         context.CancelFunc
}

func New() *App {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogLogger := logger.NewWithServiceContext(ServiceName, Version, logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application", "env", cfg.Env, "commit", GitCommit, "built", BuildTime)

	ctx := context.Background()

	tel, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
	}, slogLogger)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	meter := otel.Meter(ServiceName)

	domainMetrics, err := metrics.New(meter)
	if err != nil {
		log.Fatalf("failed to initialize service metrics: %v", err)
	}

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := db.RunMigrations(ctx, database, append(concession.Models(), (*student.Student)(nil))...); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	if err := db.CreateIndexes(ctx, database, concession.Indexes...); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}
	if err := tel.Metrics.Database.RegisterPool(meter, database.DB); err != nil {
		slogLogger.Warn("failed to register pool metrics", "error", err)
	}

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		database:  database,
		telemetry: tel,
		logger:    slogLogger,
	}

	app.checker = health.NewChecker(tel.Metrics.Health, slogLogger)
	app.checker.Register("postgres", database.PingContext)

	// Change feed: NATS when reachable, in-process otherwise
	natsFeed, err := changefeed.NewNATS(cfg.NATS.URL, cfg.NATS.Subject, slogLogger, tel.Metrics.Messaging)
	if err != nil {
		slogLogger.Warn("NATS unavailable, using in-process change feed", "url", cfg.NATS.URL, "error", err)
		app.feed = changefeed.NewLocal()
	} else {
		app.feed = natsFeed
		app.checker.Register("nats", func(context.Context) error { return natsFeed.HealthCheck() })
	}

	if err := tel.Metrics.Health.RegisterDependencies(meter, app.checker.Names()...); err != nil {
		slogLogger.Warn("failed to register dependency metrics", "error", err)
	}

	var events concession.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogLogger, tel.Metrics.Messaging)
		if err != nil {
			slogLogger.Warn("failed to initialize kafka producer", "error", err)
		} else {
			app.producer = producer
			events = producer
		}
	} else {
		slogLogger.Info("kafka disabled, no brokers configured")
	}

	concessionRepo := concession.NewRepository(database, tel.Metrics)
	concessionService := concession.NewService(concessionRepo)

	studentRepo := student.NewRepository(database, tel.Metrics)
	studentService := student.NewService(studentRepo, student.NewCache(cfg.Students.CacheSize, cfg.Students.CacheTTL()))

	intakeOpts := []intake.Option{}
	approvalOpts := []approval.Option{}
	if events != nil {
		intakeOpts = append(intakeOpts, intake.WithEvents(events))
		approvalOpts = append(approvalOpts, approval.WithEvents(events))
	}
	intakeService := intake.NewService(concessionRepo, studentService, app.feed, domainMetrics, slogLogger, intakeOpts...)
	approvalService := approval.NewService(concessionRepo, app.feed, domainMetrics, slogLogger, approvalOpts...)

	passService := passes.NewService(concessionRepo, cfg.Passes.Window(), slogLogger)
	watcher := passes.NewWatcher(passService, app.feed, domainMetrics, slogLogger)
	exportService := export.NewService(concessionRepo, passService)

	app.router.Use(middleware.RequestLogger(slogLogger))
	app.router.Use(middleware.Metrics)
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	health.NewHandler(app.checker).RegisterRoutes(app.router)
	app.router.Handle("/metrics", promhttp.Handler())

	app.router.Route("/api", func(r chi.Router) {
		student.NewHandler(studentService, slogLogger).RegisterRoutes(r)
		intake.NewHandler(intakeService, slogLogger).RegisterRoutes(r)
		approval.NewHandler(approvalService, concessionService, slogLogger).RegisterRoutes(r)
		concession.NewHandler(concessionService, slogLogger).RegisterRoutes(r)
		passes.NewHandler(passService, watcher, slogLogger).RegisterRoutes(r)
		export.NewHandler(exportService, domainMetrics, slogLogger).RegisterRoutes(r)
	})

	// gRPC health for the orchestrator, instrumented with OTel
	app.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(tel.Metrics.Grpc.UnaryServerInterceptor()),
	)
	app.healthServer = grpchealth.NewServer()
	grpc_health_v1.RegisterHealthServer(app.grpcServer, app.healthServer)

	slogLogger.Info("application initialized successfully")

	return app
}

func (a *App) Run() error {
	// Cancelled on shutdown; ends health checks and open pass streams.
	runCtx, cancel := context.WithCancel(context.Background())
	a.stop = cancel
	go a.checker.Start(runCtx, healthCheckInterval, a.setServing)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", a.config.Grpc.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}
	go func() {
		a.logger.Info("gRPC health server starting", "port", a.config.Grpc.Port)
		if err := a.grpcServer.Serve(lis); err != nil {
			a.logger.Error("gRPC server error", "error", err)
		}
	}()

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
		BaseContext:  func(net.Listener) context.Context { return runCtx },
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setServing(ready bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if ready {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	a.healthServer.SetServingStatus("", status)
	a.healthServer.SetServingStatus(ServiceName, status)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	if a.stop != nil {
		a.stop()
	}
	a.healthServer.Shutdown()

	var shutdownErr error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http shutdown: %w", err)
		}
	}
	a.grpcServer.GracefulStop()

	if err := a.feed.Close(); err != nil {
		a.logger.Error("change feed close error", "error", err)
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", "error", err)
		}
	}
	db.Close(a.database)

	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		a.logger.Error("telemetry shutdown error", "error", err)
	}
	return shutdownErr
}
