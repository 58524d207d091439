package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gallery-api/config"
	"gallery-api/internal/application/ports"
	"gallery-api/internal/application/services"
	"gallery-api/internal/infrastructure/bgremoval"
	"gallery-api/internal/infrastructure/db/postgres"
	"gallery-api/internal/infrastructure/db/postgres/image"
	"gallery-api/internal/infrastructure/db/postgres/user"
	"gallery-api/internal/infrastructure/jwt"
	"gallery-api/internal/infrastructure/metrics"
	"gallery-api/internal/infrastructure/mq"
	"gallery-api/internal/infrastructure/ratelimit"
	"gallery-api/internal/infrastructure/s3"
	"gallery-api/internal/interface/api/rest"
	"gallery-api/internal/interface/api/rest/middleware"
	"gallery-api/internal/interface/worker"
	"gallery-api/pkg/rmqconsumer"
)

type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	dbDSN      string
	s3         ports.Storage
	redis      *redis.Client
	httpSrv    *http.Server
	router     *gin.Engine
	mCounter   *prometheus.CounterVec
	mq         ports.RabbitMQ
	mqConsumer ports.JobConsumer
	amqpDSN    string
}

func NewApp(ctx context.Context) (*App, error) {
	// logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}
	defer logger.Sync()

	// config, the environment wins over a missing .env
	if err = godotenv.Load(".env"); err != nil {
		logger.Warn("no .env file loaded, using environment", zap.Error(err))
	}
	cfg := config.Load()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// metrics
	mCounter := metrics.NewCounter()

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.App.ClientURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogGin(logger, mCounter))

	// httpServer
	httpSrv := &http.Server{
		Addr:              cfg.App.Host + ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// db
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		return nil, fmt.Errorf("DB config error: %w", err)
	}
	dbPool, err := postgres.New(ctx, logger, dbDsn)
	if err != nil {
		return nil, err
	}
	if err = postgres.Migrate(ctx, dbPool, logger); err != nil {
		dbPool.Close()
		return nil, err
	}

	// s3
	s3Client, err := s3.New(ctx, logger, cfg.S3)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	// redis, optional: without it auth routes are not rate limited
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = ratelimit.NewRedis(ctx, logger, cfg.Redis)
		if err != nil {
			logger.Warn("rate limiting disabled", zap.Error(err))
			rdb = nil
		}
	}

	// rabbitMQ
	rabbitDsn, err := cfg.AMQPDSN()
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("RabbitMQ config error: %w", err)
	}
	rbMQ := mq.New(cfg.MQ, logger)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to connect to rabbitMQ: %w", err)
	}
	if err = rbMQ.Init(); err != nil {
		dbPool.Close()
		_ = rbMQ.GetConn().Close()
		return nil, fmt.Errorf("failed init rabbitMQ: %w", err)
	}

	return &App{
		logger:   logger,
		cfg:      cfg,
		db:       dbPool,
		dbDSN:    dbDsn,
		s3:       s3Client,
		redis:    rdb,
		httpSrv:  httpSrv,
		router:   r,
		mCounter: mCounter,
		mq:       rbMQ,
		amqpDSN:  rabbitDsn,
	}, nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		_ = a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	// "errgroup" instead of "WaitGroup" because:
	// - allows return an error from gorutine
	// - group errors from multiple gorutines into one
	// - wg.Add(1), wg.Done() - automatically under the hood, so never catch deadlock if you forget something ;-)
	// - allows orchestration of parallel processes through the context.Context(gracefull shut down)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.httpSrv.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.mq.PublisherWorker(ctx)
		return nil
	})

	if a.mqConsumer != nil {
		g.Go(func() error {
			a.mqConsumer.DeliveryWorker(ctx)
			return nil
		})
	}

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
			return err
		}
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

// InitControllers wires repositories, services and routes, and starts
// consuming background jobs.
func (a *App) InitControllers() error {
	// repos
	userRepo := user.NewRepository(a.db)
	imageRepo := image.NewRepository(a.db)

	// services
	jwtService := jwt.New(a.cfg.App.JWTSecret, a.cfg.TokenTTL())
	bgRemover := bgremoval.New(a.logger, a.cfg.BgRemoval)
	authService := services.NewAuthService(jwtService, userRepo, a.mq, a.mCounter)
	userService := services.NewUserService(a.logger, userRepo, imageRepo, a.s3, a.mq, a.mCounter)
	imageService := services.NewImageService(a.logger, imageRepo, a.s3, bgRemover, a.mq, a.mCounter)

	// jobs
	consumer := rmqconsumer.New(
		a.cfg.MQ,
		a.logger,
		a.mq.GetConn(),
		worker.NewBgRemovalHandler(imageService, a.cfg.BgRemoval.Timeout, a.logger),
		mq.ActionBgRemovalRequested,
	)
	if err := consumer.Connect(a.amqpDSN); err != nil {
		return fmt.Errorf("failed to connect rabbitMQ consumer: %w", err)
	}
	if err := consumer.Init(); err != nil {
		return fmt.Errorf("failed to init rabbitMQ consumer: %w", err)
	}
	a.mqConsumer = consumer

	// middleware
	authMW := middleware.AuthMiddleware(jwtService, userService, a.logger)
	var limiters []gin.HandlerFunc
	if a.redis != nil {
		limiters = append(limiters, middleware.RateLimit(
			ratelimit.NewRedisStore(a.redis),
			a.cfg.Redis.LimitRequests,
			a.cfg.Redis.LimitWindow,
			a.logger,
		))
	}

	// controllers
	rest.NewAuthController(a.router, a.logger, userService, authService, authMW, limiters...)
	rest.NewImageController(a.router, imageService, a.logger, authMW)
	if gin.Mode() != gin.ReleaseMode {
		rest.NewDebugController(a.router, postgres.NewInspector(a.db, a.db, a.dbDSN), a.logger)
	}

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))

	return nil
}

func (a *App) Logger() *zap.Logger { return a.logger }
