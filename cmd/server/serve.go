package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/trainfood-auth/internal/config"
	"github.com/iliyamo/trainfood-auth/internal/database"
	"github.com/iliyamo/trainfood-auth/internal/handler"
	"github.com/iliyamo/trainfood-auth/internal/logging"
	"github.com/iliyamo/trainfood-auth/internal/metrics"
	"github.com/iliyamo/trainfood-auth/internal/middleware"
	"github.com/iliyamo/trainfood-auth/internal/repository"
	"github.com/iliyamo/trainfood-auth/internal/router"
	"github.com/iliyamo/trainfood-auth/internal/service"
	"github.com/iliyamo/trainfood-auth/internal/utils"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Start the HTTP server exposing the /auth endpoints, /healthz, /readyz and /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(cmd *cobra.Command, migrate bool) error {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A service that cannot sign tokens must not start.
	issuer, err := utils.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "build token issuer").Wrap(err)
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
	}

	mailer, err := newMailer(cfg.Mail, cfg.IsDevelopment(), log)
	if err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	auth := service.NewAuthenticator(users, repository.NewDeliveryRepo(db), repository.NewSellerRepo(db), issuer, cfg.BcryptCost, log)
	resets := service.NewPasswordResetService(users, mailer, cfg.Reset, cfg.BcryptCost, log)
	m := metrics.New()
	h := handler.NewAuthHandler(cfg, auth, resets, m, log)

	// Redis is optional: without it the limiters pass every request.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn(ctx, "redis unavailable; rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	limiters := router.Limiters{
		Auth:  middleware.NewTokenBucket(config.LoadAuthRateLimitConfig(), rdb, log),
		Reset: middleware.NewTokenBucket(config.LoadResetRateLimitConfig(), rdb, log),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.BodyLimit("64K"))

	router.RegisterRoutes(e, db, m)
	router.RegisterAuth(e, h, issuer, limiters)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "mail_transport", cfg.Mail.Transport)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return oops.Code("SERVER_FAILED").With("addr", addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
