package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/retail-pos/internal/cart"
	"github.com/vasiliy-maslov/retail-pos/internal/catalog"
	"github.com/vasiliy-maslov/retail-pos/internal/checkout"
	"github.com/vasiliy-maslov/retail-pos/internal/config"
	"github.com/vasiliy-maslov/retail-pos/internal/db"
	"github.com/vasiliy-maslov/retail-pos/internal/events"
	"github.com/vasiliy-maslov/retail-pos/internal/handler"
	"github.com/vasiliy-maslov/retail-pos/internal/notify"
	"github.com/vasiliy-maslov/retail-pos/internal/order"
	"github.com/vasiliy-maslov/retail-pos/internal/report"
	"github.com/vasiliy-maslov/retail-pos/internal/transport"
	pkgdb "github.com/vasiliy-maslov/retail-pos/pkg/db"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "pos-service").Logger()

	log.Info().Msg("POS service starting...")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("log_level", cfg.App.LogLevel).Msg("Unknown log level, using debug")
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reportDB, err := pkgdb.Connect(pkgdb.Config{
		DSN:            cfg.Postgres.DSN(),
		DBName:         cfg.Postgres.DBName,
		MigrationsPath: cfg.Postgres.MigrationsPath,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database")
	}
	defer reportDB.Close()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	catalogRepo := catalog.NewRepository(pg.Pool)
	orderRepo := order.NewRepository(pg.Pool)

	cache := catalog.NewCache(catalogRepo, cfg.Catalog.PageSize)
	if err := cache.Load(ctx); err != nil {
		log.Error().Err(err).Msg("Initial catalog load failed, starting with an empty catalog")
	}

	hub := notify.NewHub()
	go hub.Run(ctx)

	opts := []checkout.Option{checkout.WithNotifier(hub)}
	if cfg.RabbitMQ.Enabled() {
		conn, err := events.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer conn.Close()

		publisher, err := events.NewPublisher(conn, "pos-service")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create event publisher")
		}
		defer publisher.Close()

		opts = append(opts, checkout.WithPublisher(publisher))
	} else {
		log.Info().Msg("RABBITMQ_URL not set, order events are disabled")
	}

	sequencer := checkout.NewSequencer(orderRepo, catalogRepo, cache, opts...)
	sessions := cart.NewSessions(cache)

	router := transport.NewRouter(pg.Pool, hub.HandleWebSocket,
		handler.NewCatalogHandler(catalog.NewService(catalogRepo, cache)),
		handler.NewCartHandler(sessions, cache, sequencer, hub),
		handler.NewOrderHandler(order.NewService(orderRepo)),
		handler.NewReportHandler(report.NewService(report.NewReader(reportDB), cfg.Report.TopN)),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
