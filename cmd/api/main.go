package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"loan-lifecycle/internal/adapter/gateway"
	httpadp "loan-lifecycle/internal/adapter/http"
	mw "loan-lifecycle/internal/adapter/middleware"
	repo "loan-lifecycle/internal/adapter/repository/mysql"
	"loan-lifecycle/internal/config"
	"loan-lifecycle/internal/infrastructure/cache"
	"loan-lifecycle/internal/infrastructure/db"
	"loan-lifecycle/internal/infrastructure/logger"
	ucApproval "loan-lifecycle/internal/usecase/approval"
	ucLedger "loan-lifecycle/internal/usecase/ledger"
	ucLoan "loan-lifecycle/internal/usecase/loan"
	ucRepayment "loan-lifecycle/internal/usecase/repayment"
	"loan-lifecycle/internal/usecase/sideeffect"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.OpenGorm(cfg.Database, log)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	rdb, err := cache.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// repositories
	loans := repo.NewLoanRepository(gdb)
	audits := repo.NewAuditRepository(gdb)
	installments := repo.NewInstallmentRepository(gdb)
	attempts := repo.NewAttemptRepository(gdb)
	tx := repo.NewGormUoW(gdb)

	// usecases
	loanUC := ucLoan.NewUsecase(loans)
	ledgerUC := ucLedger.NewUsecase(loans, audits, tx).WithAttempts(attempts)
	repaymentUC := ucRepayment.NewUsecase(loans, installments, tx)
	coordinator := sideeffect.NewCoordinator(
		gateway.NewUserDirectory(cfg.Services.UserDirectoryURL, cfg.Services.SideEffectTimeout, log),
		newSender(cfg.Notifications, rdb, log),
		gateway.NewDisbursementClient(cfg.Services.DisbursementURL, cfg.Services.SideEffectTimeout, log),
		attempts,
		cfg.Services.SideEffectTimeout,
		log,
	)
	approvalUC := ucApproval.NewUsecase(ledgerUC, repaymentUC, coordinator, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.RequestLoggerWithConfig(requestLogger(log)), middleware.Recover())

	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "db", Ping: sqlDB.PingContext},
			httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		Loans:     httpadp.NewLoanHandler(loanUC),
		Approvals: httpadp.NewApprovalHandler(approvalUC, ledgerUC),
		Repayment: httpadp.NewRepaymentHandler(repaymentUC),
	},
		mw.Auth(mw.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)),
		mw.Idempotency(mw.IdempotencyConfig{
			Store:  mw.NewReplayStore(rdb),
			TTL:    cfg.Redis.IdempotencyTTL,
			Logger: log,
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.App.Port
		log.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	if cfg.Schedule.OverdueSweep > 0 {
		g.Go(func() error {
			repaymentUC.RunOverdueSweep(gctx, cfg.Schedule.OverdueSweep, log)
			return nil
		})
	}
	return g.Wait()
}

func newSender(cfg config.NotificationsConfig, rdb *redis.Client, log *slog.Logger) sideeffect.Sender {
	if cfg.Mode == "redis" {
		return gateway.NewRedisQueueSender(rdb, cfg.QueueKey)
	}
	return gateway.NewLogSender(log)
}

func requestLogger(log *slog.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				log.ErrorContext(c.Request().Context(), "request", append(attrs, "error", v.Error)...)
				return nil
			}
			log.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}
}
