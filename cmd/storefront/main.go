package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vstoleru/storefront/internal/auth"
	"github.com/vstoleru/storefront/internal/cart"
	"github.com/vstoleru/storefront/internal/catalog"
	"github.com/vstoleru/storefront/internal/config"
	"github.com/vstoleru/storefront/internal/db"
	storeHttp "github.com/vstoleru/storefront/internal/handler/http"
	"github.com/vstoleru/storefront/internal/order"
	"github.com/vstoleru/storefront/internal/report"
	"github.com/vstoleru/storefront/internal/session"
	"github.com/vstoleru/storefront/internal/user"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "storefront").Logger()

	log.Info().Msg("Storefront starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := db.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	pg, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	// Отчётные запросы ходят через sqlx поверх того же пула pgx.
	reportDB := sqlx.NewDb(stdlib.OpenDBFromPool(pg.Pool), "pgx")
	defer reportDB.Close()

	sessions := session.NewManager(cfg.Auth.SessionTTL)
	defer sessions.Stop()

	userRepo := user.NewRepository(pg.Pool)
	userSvc := user.NewService(userRepo)

	catalogRepo := catalog.NewRepository(pg.Pool)
	catalogSvc := catalog.NewService(catalogRepo)

	cartRepo := cart.NewRepository(pg.Pool)
	cartSvc := cart.NewService(cartRepo)

	orderRepo := order.NewRepository(pg.Pool)
	orderSvc := order.NewService(orderRepo, cartSvc)

	notifier := auth.NewHTTPNotifier(cfg.Notify.URL, cfg.Notify.Timeout)
	authRepo := auth.NewRepository(pg.Pool)
	authSvc := auth.NewService(authRepo, userSvc, notifier, cfg.Auth.CodeTTL)

	reportRepo := report.NewRepository(reportDB)
	reportSvc := report.NewService(reportRepo)

	router := storeHttp.NewRouter(storeHttp.Handlers{
		Auth:    storeHttp.NewAuthHandler(authSvc, sessions, sessions),
		Catalog: storeHttp.NewCatalogHandler(catalogSvc),
		Cart:    storeHttp.NewCartHandler(cartSvc),
		Order:   storeHttp.NewOrderHandler(orderSvc),
		Admin:   storeHttp.NewAdminHandler(reportSvc, userSvc, catalogSvc, orderSvc),
	}, sessions)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}

	log.Info().Msg("Storefront stopped gracefully")
}
