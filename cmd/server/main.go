package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"hotel-payment-confirm/internal/config"
	"hotel-payment-confirm/internal/confirmation"
	"hotel-payment-confirm/internal/database"
	"hotel-payment-confirm/internal/domain"
	"hotel-payment-confirm/internal/infrastructure/backend"
	"hotel-payment-confirm/internal/infrastructure/payment"
	"hotel-payment-confirm/internal/logger"
	"hotel-payment-confirm/internal/repo"
	"hotel-payment-confirm/internal/server"
	"hotel-payment-confirm/internal/service"
	"hotel-payment-confirm/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendToken, cfg.BackendTimeout)
	gateway := payment.NewPaymentGateway(client)
	store := service.NewBookingStore(client, gateway)

	controller := confirmation.NewController(
		store,
		store,
		gateway,
		payment.Merchant{AppID: cfg.ZaloPayAppID, UserID: cfg.ZaloPayMerchantUserID},
		confirmation.Policies{
			Default: policy(cfg.Poll),
			ByMethod: map[domain.PaymentMethod]confirmation.Policy{
				domain.MethodVNPay:   policy(cfg.VNPayPoll),
				domain.MethodZaloPay: policy(cfg.ZaloPayPoll),
			},
		},
		zl,
	)

	var (
		db            database.Service
		health        server.HealthChecker
		confirmations confirmation.Repository
		checkRepo     repo.CheckRepo
	)
	workerDone := make(chan struct{})

	if cfg.DB.Enabled() {
		db, err = database.Open(ctx, cfg.DB)
		if err != nil {
			zl.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := database.Migrate(ctx, db.DB()); err != nil {
			zl.Fatal("Failed to migrate database", zap.Error(err))
		}
		zl.Info("Connected to database", zap.String("host", cfg.DB.Host))

		confirmationRepo := repo.NewConfirmationRepo(db.DB())
		confirmations = confirmationRepo
		checkRepo = repo.NewCheckRepo(db.DB())
		health = db

		reconciler := worker.NewReconciliationWorker(confirmationRepo, store, cfg.ReconcileInterval, cfg.ReconcilePendingAge, zl)
		go func() {
			defer close(workerDone)
			reconciler.Run(ctx)
		}()
	} else {
		zl.Warn("BLUEPRINT_DB_HOST not set, confirmations are kept in memory only")
		close(workerDone)
	}

	var checks confirmation.CheckRepository
	if checkRepo != nil {
		checks = checkRepo
	}
	manager := confirmation.NewManager(controller, confirmations, checks, zl)
	api := server.New(store, manager, health, zl)
	if checkRepo != nil {
		api.WithCheckHistory(checkRepo)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Router(cfg.CORSAllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("Server starting", zap.String("port", cfg.Port), zap.String("backend", cfg.BackendBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}

	<-workerDone
	manager.Close()

	if db != nil {
		if err := db.Close(); err != nil {
			zl.Error("Error closing database", zap.Error(err))
		}
	}
	zl.Info("Server exited")
}

func policy(p config.Poll) confirmation.Policy {
	return confirmation.Policy{Interval: p.Interval, MaxAttempts: p.MaxAttempts}
}
