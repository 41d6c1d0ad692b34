package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/janus-erp/janus/auth"
	"github.com/janus-erp/janus/internal/config"
	"github.com/janus-erp/janus/internal/db"
	"github.com/janus-erp/janus/internal/logging"
	"github.com/janus-erp/janus/internal/policy"
	"github.com/janus-erp/janus/internal/services"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logging.New(cfg.App.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	dbConn, err := db.Open(cfg.Database, log)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag || cfg.App.Migrations {
		if err := migrate(cfg, dbConn); err != nil {
			return err
		}
		log.Info("migrations completed")
		if *migrateOnlyFlag {
			return nil
		}
	}

	issuer := auth.NewIssuer(cfg.Auth.SessionSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	routerCfg := policy.NewRouterConfig(dbConn, issuer, services.AuthOptions{
		OTPTTL:    cfg.Auth.OTPTTL,
		InviteTTL: cfg.Auth.InviteTTL,
		Mailer:    services.NewLogDispatcher(log),
		Logger:    log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      NewApp(routerCfg, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, log)
}

// migrate uses the embedded SQL migrations on postgres when SQL_MIGRATIONS is
// set and AutoMigrate otherwise.
func migrate(cfg *config.Config, dbConn *gorm.DB) error {
	if cfg.App.SQLMigrations && cfg.Database.Driver != db.DriverSQLite {
		return db.MigrateSQL(cfg.Database.URL())
	}
	return db.Migrate(dbConn)
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("server stopped gracefully")
		return nil
	})
	return g.Wait()
}
