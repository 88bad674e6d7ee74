package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/airplane-seat-booking/internal/config"
	"github.com/iliyamo/airplane-seat-booking/internal/database"
	"github.com/iliyamo/airplane-seat-booking/internal/handler"
	"github.com/iliyamo/airplane-seat-booking/internal/logging"
	"github.com/iliyamo/airplane-seat-booking/internal/metrics"
	"github.com/iliyamo/airplane-seat-booking/internal/middleware"
	"github.com/iliyamo/airplane-seat-booking/internal/queue"
	"github.com/iliyamo/airplane-seat-booking/internal/repository"
	"github.com/iliyamo/airplane-seat-booking/internal/router"
	"github.com/iliyamo/airplane-seat-booking/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load() // optional .env; real environment wins
	cfg := config.Load()

	if err := logging.Init(cfg.Env); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logging.Sync() }()

	if err := run(cfg); err != nil {
		logging.L().Errorw("server exited with error", "error", err)
		_ = logging.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	log := logging.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DBDSN
	if dsn == "" {
		dsn = database.MySQLDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	db, err := database.Open(ctx, cfg.DBDriver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var airplaneOpts []repository.AirplaneRepoOption
	if cc := config.LoadCacheConfig(); cc.Enabled {
		airplaneOpts = append(airplaneOpts, repository.WithGeometryCache(cache.New(cc.TTL, cc.CleanupInterval)))
	}
	airplanes := repository.NewAirplaneRepo(db, airplaneOpts...)
	bookings, err := repository.NewBookingRepo(db)
	if err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg := metrics.New(promReg)

	allocOpts := []service.AllocatorOption{service.WithMetrics(reg), service.WithLogger(log)}
	if cfg.EventsEnabled {
		pub := service.NewAMQPPublisher(cfg.RabbitURL, log)
		defer pub.Close()
		allocOpts = append(allocOpts, service.WithPublisher(pub))
	}
	alloc := service.NewAllocator(airplanes, bookings, allocOpts...)
	catalog := service.NewCatalog(airplanes, bookings)

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb == nil {
		log.Warnw("redis unreachable, rate limiting falls back to in-process buckets")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestID(), middleware.RequestLogger(log), middleware.Metrics(reg))

	router.RegisterRoutes(e, db, reg)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewAirplaneHandler(catalog), cfg.JWTSecret)
	router.RegisterCustomer(e, handler.NewBookingHandler(alloc, catalog, cfg.AllocateTimeout), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, reg))

	g, gctx := errgroup.WithContext(ctx)
	addr := ":" + cfg.Port
	g.Go(func() error {
		log.Infow("listening", "addr", addr, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.EventsEnabled {
		consumer := &queue.AuditConsumer{URL: cfg.RabbitURL, LogPath: cfg.AuditLogPath, Log: log}
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	return g.Wait()
}
