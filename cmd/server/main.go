package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/config"
	"github.com/iliyamo/park-ledger/internal/database"
	"github.com/iliyamo/park-ledger/internal/handler"
	"github.com/iliyamo/park-ledger/internal/ident"
	"github.com/iliyamo/park-ledger/internal/middleware"
	"github.com/iliyamo/park-ledger/internal/notify"
	"github.com/iliyamo/park-ledger/internal/queue"
	"github.com/iliyamo/park-ledger/internal/reconcile"
	"github.com/iliyamo/park-ledger/internal/remote"
	"github.com/iliyamo/park-ledger/internal/repository"
	"github.com/iliyamo/park-ledger/internal/router"
	"github.com/iliyamo/park-ledger/internal/service"
	"github.com/iliyamo/park-ledger/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file, using process environment")
	}
	cfg := config.Load()
	setupLogging(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func setupLogging(env string) {
	logrus.SetOutput(os.Stdout)
	if env == "prod" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.DebugLevel)
}

func run(ctx context.Context, cfg config.Config) error {
	persister, db, err := openPersister(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	st, err := store.Open(ctx, persister)
	if err != nil {
		return err
	}
	st.SeedSyncID(cfg.SyncIDDefault)

	rlCfg := config.LoadRateLimitConfig()
	var rdb *redis.Client
	if cfg.RemoteDriver == config.DriverRedis || rlCfg.Enabled {
		rdb, err = config.NewRedisClient(config.LoadRedisConfig())
		if err != nil {
			logrus.WithError(err).Warn("redis unreachable at startup, sync will retry every interval")
		}
		defer rdb.Close()
	}

	var ledger remote.Ledger
	switch cfg.RemoteDriver {
	case config.DriverMemory:
		logrus.Warn("using in-process remote ledger, installations will not share bookings")
		ledger = remote.NewMemoryLedger()
	default:
		ledger = remote.NewRedisLedger(rdb, cfg.LedgerPrefix)
	}

	engine := reconcile.New(st, ledger, cfg.SyncInterval)
	engine.Start(ctx)
	defer engine.Stop()

	publisher := newPublisher(ctx, cfg, st)

	drafts := service.NewDraftBook(cfg.DraftTTL)
	go drafts.RunSweeper(ctx, time.Minute)

	bookings := service.NewBookingService(st, engine, publisher, drafts)
	lockers := service.NewLockerService(st, ident.NewReceiptIssuer(st, cfg.Location()))

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLogger())
	router.RegisterRoutes(e, router.Handlers{
		Health:  handler.NewHealthHandler(engine),
		Auth:    handler.NewAuthHandler(cfg),
		Booking: handler.NewBookingHandler(bookings),
		Admin:   handler.NewAdminHandler(st, engine),
		Locker:  handler.NewLockerHandler(lockers),
		Events:  handler.NewEventsHandler(st),
	}, cfg.JWTSecret, middleware.NewLimiter(rlCfg, rdb).For)

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{
		"addr":    addr,
		"env":     cfg.Env,
		"storage": cfg.StorageDriver,
		"remote":  cfg.RemoteDriver,
		"sync_id": st.SyncID(),
	}).Info("listening")

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openPersister picks the local snapshot storage.  The returned *sql.DB is
// nil for memory storage.
func openPersister(ctx context.Context, cfg config.Config) (store.Persister, *sql.DB, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logrus.Warn("using in-memory local storage, the ledger is lost on restart")
		return store.NewMemoryPersister(), nil, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewSnapshotRepo(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, db, nil
}

// newPublisher routes confirmed bookings to receipt delivery: through
// RabbitMQ when it is configured, otherwise straight to the dispatcher.
func newPublisher(ctx context.Context, cfg config.Config, st *store.Store) service.EventPublisher {
	if !cfg.NotifyEnabled {
		logrus.Info("receipt notifications disabled")
		return nil
	}
	dispatcher := notify.NewDispatcher(notify.NewClient(cfg.NotifyBaseURL, nil), st.Settings)
	if cfg.RabbitMQURL == "" {
		return service.NewDirectPublisher(dispatcher.Deliver, 30*time.Second)
	}
	go func() {
		if err := queue.StartBookingConsumer(ctx, cfg.RabbitMQURL, dispatcher.Deliver); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("booking consumer stopped")
		}
	}()
	return service.NewAMQPPublisher(cfg.RabbitMQURL)
}
