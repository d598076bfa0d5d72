package main // Entry point package

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/hotel-reservation/internal/config"
    "github.com/iliyamo/hotel-reservation/internal/database"
    "github.com/iliyamo/hotel-reservation/internal/handler"
    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/notify"
    "github.com/iliyamo/hotel-reservation/internal/queue"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/router"
    "github.com/iliyamo/hotel-reservation/internal/service"
    "github.com/iliyamo/hotel-reservation/internal/storage"
)

func main() {
    cfg := config.Load()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()
    if err := database.Migrate(ctx, db); err != nil {
        log.Fatalf("database: migrate: %v", err)
    }

    // Redis is optional: without it live updates, rate limiting and the
    // cache are disabled.
    var rdb *redis.Client
    if c, err := config.NewRedisClient(config.LoadRedisConfig()); err != nil {
        log.Printf("redis: disabled: %v", err)
    } else {
        rdb = c
        defer rdb.Close()
    }

    publisher := queue.NewPublisher(cfg.AMQPURL, cfg.EventsQueue)
    defer publisher.Close()
    relay := notify.NewRelay(notify.NewRedisSink(rdb), publisher)

    if cfg.ConsumerOn {
        go func() {
            if err := queue.StartAuditConsumer(ctx, cfg.AMQPURL, cfg.EventsQueue, cfg.AuditLogDir); err != nil {
                log.Printf("rabbitmq: audit consumer stopped: %v", err)
            }
        }()
    }

    if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
        log.Fatalf("uploads: %v", err)
    }

    e := echo.New()
    e.HideBanner = true
    e.Validator = handler.NewRequestValidator()
    e.Use(echomw.RequestID())
    e.Use(echomw.Recover())
    e.Use(middleware.Metrics())

    protect := router.Protection{
        JWTSecret: cfg.JWTSecret,
        RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
        Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
    }

    router.RegisterRoutes(e, &handler.HealthHandler{DB: db}, cfg.UploadDir)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg,
        repository.NewHotelRepo(db), repository.NewUserRepo(db), repository.NewTokenRepo(db)), protect)
    router.RegisterReservations(e, handler.NewReservationHandler(
        service.NewReservationService(db, relay),
        storage.NewPhotoStore(cfg.UploadDir, cfg.MaxUploadBytes)), protect)
    router.RegisterRooms(e, handler.NewRoomHandler(service.NewRoomService(db, relay)), protect)
    router.RegisterEvents(e, handler.NewEventsHandler(rdb), protect)

    addr := ":" + cfg.Port
    go func() {
        log.Printf("listening on %s (env=%s)", addr, cfg.Env)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    log.Printf("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}
