package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/currency"

	"github.com/munim-pos/munim/internal/app"
	"github.com/munim-pos/munim/internal/identity"
	"github.com/munim-pos/munim/internal/observability"
	"github.com/munim-pos/munim/internal/platform/cache"
	"github.com/munim-pos/munim/internal/platform/db"
	"github.com/munim-pos/munim/internal/posting"
	postinghttp "github.com/munim-pos/munim/internal/posting/http"
	"github.com/munim-pos/munim/internal/tax"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	rates, err := cfg.AllowedTaxRates()
	if err != nil {
		logger.Error("parse tax rates", slog.Any("error", err))
		os.Exit(1)
	}
	computer := tax.NewComputer(cfg.HomeJurisdiction, rates)

	cur, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		logger.Error("parse currency", slog.String("currency", cfg.Currency), slog.Any("error", err))
		os.Exit(1)
	}

	identityRepo := identity.NewRepository(pool)
	identityService := identity.NewService(identityRepo)

	var postingCache *posting.Cache
	if redisClient != nil {
		postingCache = posting.NewCache(redisClient, cfg.CacheTTL)
	}

	metrics := observability.NewMetrics()

	store := posting.NewStore(pool)
	coordinator := posting.NewCoordinator(store, computer, identityService, postingCache)
	queries := posting.NewQueries(store, postingCache)
	postingHandler := postinghttp.NewHandler(logger, coordinator, queries, metrics, cur)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Identity:       identityService,
		Metrics:        metrics,
		PostingHandler: postingHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
