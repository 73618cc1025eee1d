package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/kyat/internal/account"
	accountStore "github.com/MrJamesThe3rd/kyat/internal/account/store"
	"github.com/MrJamesThe3rd/kyat/internal/attachment"
	"github.com/MrJamesThe3rd/kyat/internal/budget"
	budgetStore "github.com/MrJamesThe3rd/kyat/internal/budget/store"
	"github.com/MrJamesThe3rd/kyat/internal/category"
	categoryStore "github.com/MrJamesThe3rd/kyat/internal/category/store"
	"github.com/MrJamesThe3rd/kyat/internal/config"
	"github.com/MrJamesThe3rd/kyat/internal/database"
	"github.com/MrJamesThe3rd/kyat/internal/events"
	kyatHttp "github.com/MrJamesThe3rd/kyat/internal/http"
	accountHandler "github.com/MrJamesThe3rd/kyat/internal/http/account"
	budgetHandler "github.com/MrJamesThe3rd/kyat/internal/http/budget"
	categoryHandler "github.com/MrJamesThe3rd/kyat/internal/http/category"
	reportHandler "github.com/MrJamesThe3rd/kyat/internal/http/report"
	txHandler "github.com/MrJamesThe3rd/kyat/internal/http/transaction"
	"github.com/MrJamesThe3rd/kyat/internal/logging"
	promMetrics "github.com/MrJamesThe3rd/kyat/internal/metrics/prometheus"
	"github.com/MrJamesThe3rd/kyat/internal/report"
	reportStore "github.com/MrJamesThe3rd/kyat/internal/report/store"
	"github.com/MrJamesThe3rd/kyat/internal/transaction"
	txStore "github.com/MrJamesThe3rd/kyat/internal/transaction/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.ConnectionString()); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

		logger.Info("database migrated")
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	publisher, closePublisher := newPublisher(cfg, logger)
	defer closePublisher()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ledgerMetrics := promMetrics.NewCollector("kyat")
	if err := ledgerMetrics.Register(registry); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	var (
		accountService  = account.NewService(accountStore.New(db), logger)
		categoryService = category.NewService(categoryStore.New(db))
		budgetService   = budget.NewService(budgetStore.New(db), logger)
		reportService   = report.NewService(reportStore.New(db), report.WithLocation(loc))

		transactionService = transaction.NewService(
			txStore.New(db),
			transaction.WithTransferPolicy(transaction.TransferPolicy(cfg.Ledger.TransferPolicy)),
			transaction.WithPublisher(publisher),
			transaction.WithMetrics(ledgerMetrics),
			transaction.WithLogger(logger),
		)
	)

	attachments := attachment.NewStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)

	var (
		accountH     = accountHandler.NewHandler(accountService)
		transactionH = txHandler.NewHandler(transactionService, attachments, txHandler.WithLocation(loc))
		reportH      = reportHandler.NewHandler(reportService)
		budgetH      = budgetHandler.NewHandler(budgetService)
		categoryH    = categoryHandler.NewHandler(categoryService)
	)

	router := kyatHttp.New(
		kyatHttp.Config{
			JWTSecret:      []byte(cfg.Auth.JWTSecret),
			Timeout:        cfg.Server.Timeout,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Ready:          db.PingContext,
		},
		accountH, transactionH, reportH, budgetH, categoryH,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("starting server", "port", srv.Addr, "transfer_policy", cfg.Ledger.TransferPolicy, "timezone", loc.String())

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// newPublisher connects to AMQP when configured. Events are dropped when the
// broker is not configured or unreachable at startup.
func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, func()) {
	if cfg.AMQP.URL == "" {
		logger.Info("AMQP_URL not set, ledger events are disabled")
		return events.Nop{}, func() {}
	}

	amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
	if err != nil {
		logger.Warn("ledger events are disabled", "error", err)
		return events.Nop{}, func() {}
	}

	closeFn := func() {
		if err := amqpPublisher.Close(); err != nil {
			logger.Warn("failed to close AMQP publisher", "error", err)
		}
	}

	return events.NewBreakerPublisher(amqpPublisher, events.DefaultBreakerConfig(), logger), closeFn
}
