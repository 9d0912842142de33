package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/nextread/library-service/internal/api/http"
	"github.com/nextread/library-service/internal/api/http/handlers"
	"github.com/nextread/library-service/internal/auth"
	"github.com/nextread/library-service/internal/config"
	"github.com/nextread/library-service/internal/events"
	"github.com/nextread/library-service/internal/lock"
	"github.com/nextread/library-service/internal/observability"
	"github.com/nextread/library-service/internal/persistence"
	"github.com/nextread/library-service/internal/repository"
	"github.com/nextread/library-service/internal/service"
)

type stores struct {
	books        repository.BookRepository
	users        repository.UserRepository
	reservations repository.ReservationRepository
	tx           repository.TxManager
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	st := buildStores(pg, logger)
	locker := buildLocker(cfg.Lock, redis, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	reservationService := service.NewReservationService(cfg.Reservation, service.ReservationDependencies{
		BookRepo:        st.books,
		UserRepo:        st.users,
		ReservationRepo: st.reservations,
		TxManager:       st.tx,
		Locker:          locker,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	bookService := service.NewBookService(service.BookDependencies{
		BookRepo:        st.books,
		ReservationRepo: st.reservations,
		TxManager:       st.tx,
		Locker:          locker,
		Engine:          reservationService,
	})
	userService := service.NewUserService(st.users, st.reservations, st.tx, locker)
	authService := service.NewAuthService(cfg.Auth, st.users)

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg, logger, metrics, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Books:          handlers.NewBooksHandler(bookService, reservationService),
		Users:          handlers.NewUsersHandler(userService),
		Reservations:   handlers.NewReservationsHandler(reservationService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), st.users),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func buildStores(pg *persistence.Postgres, logger *zap.Logger) stores {
	if !pg.Enabled() {
		logger.Warn("POSTGRES_DSN not set, using in-memory store")
		mem := repository.NewMemoryStore()
		return stores{books: mem.Books(), users: mem.Users(), reservations: mem.Reservations(), tx: mem.TxManager()}
	}
	pool := pg.PoolHandle()
	return stores{
		books:        repository.NewBookRepository(pool),
		users:        repository.NewUserRepository(pool),
		reservations: repository.NewReservationRepository(pool),
		tx:           repository.NewTxManager(pool),
	}
}

func buildLocker(cfg config.LockConfig, redis *persistence.Redis, logger *zap.Logger) lock.Locker {
	if cfg.Backend == config.LockBackendRedis && redis.Enabled() {
		logger.Info("using redis book locks", zap.Duration("ttl", cfg.TTL()))
		return lock.NewRedisLocker(redis.Client, cfg.TTL(), cfg.RetryInterval(), logger)
	}
	return lock.NewLocalLocker()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
