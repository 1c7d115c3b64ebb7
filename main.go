package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	"github.com/messnightlife/mess-web/internal/api"
	"github.com/messnightlife/mess-web/internal/api/handlers"
	"github.com/messnightlife/mess-web/internal/application/preview"
	"github.com/messnightlife/mess-web/internal/cache"
	"github.com/messnightlife/mess-web/internal/config"
	"github.com/messnightlife/mess-web/internal/content"
	"github.com/messnightlife/mess-web/internal/downstream"
	"github.com/messnightlife/mess-web/internal/logger"
	"github.com/messnightlife/mess-web/internal/render"
	"github.com/messnightlife/mess-web/internal/seo"
	"github.com/messnightlife/mess-web/internal/tracing"
	"github.com/messnightlife/mess-web/middleware"
)

const serviceName = "mess-web"

// set at build time with -ldflags "-X main.version=..."
var version = "dev"

// store is the preview cache as main sees it.
type store interface {
	preview.Cache
	Ping(ctx context.Context) error
}

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// 1.5 Init logger
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	logger.Log.Info().Str("env", cfg.AppEnv).Str("version", version).Msg("logger initialized")

	if err := run(cfg); err != nil {
		logger.Log.Fatal().Err(err).Msg("server error")
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// 2. Tracing
	tp, err := tracing.InitTracing(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.AppEnv,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// 3. Cache
	var (
		st  store
		rdb *redis.Client
	)
	if cfg.RedisURL != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.RedisURL, "mess:")
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rs.Close()
		st, rdb = rs, rs.Client()
		logger.Log.Info().Msg("redis connection established")
	} else {
		st = cache.NewMemoryStore(nil)
		logger.Log.Info().Msg("using in-process cache")
	}

	// 4. Preview pipeline
	events := downstream.NewEventClient(cfg.APIOrigin, downstream.ClientConfig{
		Timeout:   cfg.UpstreamTimeout,
		Transport: &middleware.TracingTransport{},
	})
	svc := preview.New(events, st, cfg.Revalidate)

	pages, err := content.Load()
	if err != nil {
		return fmt.Errorf("load pages: %w", err)
	}
	renderer, err := render.New(render.Options{
		Site:         seo.Site{Origin: cfg.SiteOrigin, Name: cfg.SiteName},
		Location:     cfg.Location,
		AppScheme:    cfg.AppScheme,
		AppStoreURL:  cfg.AppStoreURL,
		PlayStoreURL: cfg.PlayStoreURL,
	})
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	// 5. Router
	mux := api.NewRouter(api.Deps{
		Config: cfg,
		Events: handlers.NewEventHandler(svc, renderer, cfg.Revalidate),
		Pages:  handlers.NewPageHandler(pages, renderer),
		Readiness: handlers.NewReadinessHandler(
			handlers.NewHTTPReadinessChecker("api", cfg.APIOrigin),
			handlers.NewPingChecker("cache", st.Ping),
		),
		Redis: rdb,
	})

	return runWithGracefulShutdown(cfg, mux, tp)
}

func runWithGracefulShutdown(cfg *config.Config, mux http.Handler, tp *tracing.TracerProvider) error {
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("addr", cfg.HTTPAddr).Str("api_origin", cfg.APIOrigin).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Log.Info().Str("signal", sig.String()).Msg("received signal, starting graceful shutdown")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	if err := tp.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("error flushing traces")
	}

	logger.Log.Info().Msg("graceful shutdown completed")
	return nil
}
