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

	"petcare-backend/internal/adapters/auth/jwt"
	"petcare-backend/internal/adapters/payments/gateway"
	"petcare-backend/internal/adapters/payments/mockpay"
	"petcare-backend/internal/adapters/storage/postgres"
	"petcare-backend/internal/platform/config"
	"petcare-backend/internal/platform/logger"
	"petcare-backend/internal/platform/respond"
	"petcare-backend/internal/ports/auth"
	"petcare-backend/internal/ports/payments"
	"petcare-backend/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid configuration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})
	respond.ExposeInternalErrors(!cfg.IsProduction())

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DB.DSN != "" {
		opened, err := postgres.Open(cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer opened.Close()

		if cfg.DB.Migrate {
			if err := postgres.Migrate(ctx, opened); err != nil {
				return err
			}
		}
		db = opened
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	// sin secreto sólo quedan los headers de debug (development)
	var (
		verifier auth.AuthVerifier
		issuer   auth.TokenIssuer
	)
	if cfg.Auth.JWTSecret != "" {
		m, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.App.Name)
		if err != nil {
			return err
		}
		verifier, issuer = m, m
	}

	provider, err := newPaymentsProvider(cfg.Payments)
	if err != nil {
		return err
	}

	handler := router.NewRouter(router.Options{
		AuthVerifier:       verifier,
		TokenIssuer:        issuer,
		DebugHeaders:       cfg.Auth.DevHeaders,
		DB:                 db,
		Payments:           provider,
		Logger:             log,
		Location:           cfg.Location(),
		ReminderWindowDays: cfg.Reminders.WindowDays,
		AdminEmail:         cfg.Auth.AdminEmail,
		AdminPassword:      cfg.Auth.AdminPassword,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.HTTP.Addr, "env": cfg.App.Env})
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

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newPaymentsProvider(cfg config.PaymentsConfig) (payments.Provider, error) {
	if cfg.Provider == "gateway" {
		return gateway.New(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.Timeout)
	}
	return mockpay.New(cfg.MockApproveRate), nil
}
