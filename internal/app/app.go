package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Tejasaibodepudi/Donor-saathi/internal/config"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/controller"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/controller/api"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/metrics"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/notify"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/repository/memory"
	"github.com/Tejasaibodepudi/Donor-saathi/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// App собранное приложение: хранилище, сервисы, HTTP, бот и фоновые задачи
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	pool     *pgxpool.Pool
	store    repository.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	services   api.Services
	dispatcher *notify.Dispatcher
	bot        *controller.BotController
}

// New собирает зависимости по конфигу
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)

	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		a.store = memory.NewStore().Repositories()
	default:
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		a.pool = pool
		a.store = repository.NewPostgresStore(pool)
	}

	opts := []service.Option{service.WithMetrics(a.metrics)}
	a.services = api.Services{
		Slots:        service.NewSlotService(a.store, logger, opts...),
		Bookings:     service.NewBookingService(a.store, logger, opts...),
		Inventory:    service.NewInventoryService(a.store, logger, opts...),
		Donors:       service.NewDonorService(a.store, logger, opts...),
		Rare:         service.NewRareDonorService(a.store, logger, opts...),
		Verification: service.NewVerificationService(a.store, logger, opts...),
	}

	var sender notify.Sender = notify.NewLogSender(logger)
	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		sender = notify.NewTelegramSender(b)
		a.bot = controller.NewBotController(b, a.services.Donors, a.services.Rare, logger)
	}
	a.dispatcher = notify.NewDispatcher(a.store, sender, logger, a.metrics, cfg.DispatchBatch,
		notify.WithMaxAttempts(cfg.DispatchAttempts),
	)

	return a, nil
}

// Migrate применяет миграции. Для хранилища в памяти ничего не делает.
func (a *App) Migrate(ctx context.Context) error {
	if a.pool == nil {
		a.logger.Info("Skipping migrations for in-memory storage")
		return nil
	}

	migrator, err := NewMigrator(a.pool, a.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

// Services возвращает сервисы приложения
func (a *App) Services() api.Services {
	return a.services
}

// Dispatcher возвращает диспетчер оповещений
func (a *App) Dispatcher() *notify.Dispatcher {
	return a.dispatcher
}

// Handler HTTP обработчик со всеми маршрутами
func (a *App) Handler() http.Handler {
	return api.NewRouter(a.services, api.Config{
		SubmitRPS:      a.cfg.RateLimitRPS,
		SubmitBurst:    a.cfg.RateLimitBurst,
		MetricsHandler: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}),
	}, a.logger, a.metrics)
}

// Run запускает HTTP сервер, бота и планировщик до отмены контекста
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	scheduler := NewScheduler(a.services.Slots, a.dispatcher, SchedulerConfig{
		SlotGenerationInterval: a.cfg.SlotGenerationInterval,
		SlotWeeksAhead:         a.cfg.SlotWeeksAhead,
		DispatchInterval:       a.cfg.DispatchInterval,
	}, a.logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if a.bot != nil {
		if err := a.bot.RegisterHandlers(ctx); err != nil {
			a.logger.Warn("Bot handlers registered without command menu", zap.Error(err))
		}
		go a.bot.Start(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	a.logger.Info("Application stopped")
	return runErr
}

// Close освобождает пул соединений
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
