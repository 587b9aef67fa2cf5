package main // Entry point package

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"
    "golang.org/x/sync/errgroup"

    "github.com/iliyamo/academy-access/internal/config"
    "github.com/iliyamo/academy-access/internal/database"
    "github.com/iliyamo/academy-access/internal/handler"
    "github.com/iliyamo/academy-access/internal/logging"
    "github.com/iliyamo/academy-access/internal/metrics"
    "github.com/iliyamo/academy-access/internal/middleware"
    "github.com/iliyamo/academy-access/internal/queue"
    "github.com/iliyamo/academy-access/internal/repository"
    "github.com/iliyamo/academy-access/internal/router"
    "github.com/iliyamo/academy-access/internal/service"
    "github.com/iliyamo/academy-access/internal/utils"
)

func main() {
    config.LoadDotEnv()
    cfg := config.Load() // Load environment config

    logger, err := logging.New(cfg.Env)
    if err != nil {
        log.Fatalf("logger: %v", err)
    }
    defer func() { _ = logger.Sync() }()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    if err := run(ctx, cfg, logger); err != nil {
        logger.Fatal("server stopped", zap.Error(err))
    }
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
    db, err := database.Open(ctx, database.Options{
        User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
    })
    if err != nil {
        return err
    }
    defer db.Close()
    if err := database.Migrate(ctx, db); err != nil {
        return err
    }

    var rdb *redis.Client
    if client, err := config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
        logger.Warn("redis unavailable, rate limiting and caching disabled", zap.Error(err))
    } else {
        rdb = client
        defer rdb.Close()
    }

    // repositories
    users := repository.NewUserRepo(db)
    coaches := repository.NewCoachRepo(db)
    permRepo := repository.NewPermissionRepo(db)
    assignRepo := repository.NewAssignmentRepo(db)
    tokenRepo := repository.NewTokenRepo(db)

    // services
    m := metrics.New(prometheus.DefaultRegisterer)
    auditor := service.NewAuditor(logger, queue.NewPublisher(cfg.RabbitURL), 256)

    signer, err := utils.NewTokenSigner(cfg.JWTSecret, cfg.JWTAlgorithm, time.Duration(cfg.AccessTTLMin)*time.Minute)
    if err != nil {
        return err
    }
    tokens := service.NewTokenService(signer, tokenRepo, cfg.RefreshTTLDays)
    perms := service.NewPermissionService(permRepo, assignRepo)
    authz := service.NewAuthorizer(perms, logger, m)
    authSvc := service.NewAuthService(users, coaches, tokens, auditor, cfg.BcryptCost, m, logger)
    principals := service.NewPrincipalService(users, coaches, tokens, authz, auditor, cfg.BcryptCost)
    grants := service.NewGrantService(perms, authz, auditor, users, coaches)

    if err := service.Bootstrap(ctx, perms, users, service.InitialAdmin(cfg.InitialAdmin), cfg.BcryptCost, logger); err != nil {
        return err
    }

    e := echo.New()
    e.HideBanner = true
    e.HTTPErrorHandler = router.ErrorHandler(logger)
    e.Use(middleware.RequestID(), middleware.RequestLogger(logger))

    guards := router.Guards{
        Resolver:  authSvc,
        Gate:      authz,
        Redis:     rdb,
        RateLimit: config.LoadRateLimitConfig(),
        Cache:     config.LoadCacheConfig(),
        Log:       logger,
    }
    router.RegisterRoutes(e, db, promhttp.Handler())
    router.RegisterAuth(e, handler.NewAuthHandler(authSvc, grants), guards)
    router.RegisterPrincipals(e, handler.NewPrincipalHandler(principals), guards)
    router.RegisterPermissions(e, handler.NewPermissionHandler(grants), guards)

    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        addr := ":" + cfg.Port
        logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            return err
        }
        return nil
    })
    g.Go(func() error {
        <-gctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        return e.Shutdown(shutdownCtx)
    })
    g.Go(func() error { return auditor.Run(gctx) })
    if cfg.AuditConsumer {
        consumer := queue.NewConsumer(cfg.RabbitURL, logger)
        g.Go(func() error { return consumer.Run(gctx) })
    }
    return g.Wait()
}
