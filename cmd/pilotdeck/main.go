package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pilotdeck/pilotdeck/internal/apiclient"
	"github.com/pilotdeck/pilotdeck/internal/app"
	"github.com/pilotdeck/pilotdeck/internal/auth"
	"github.com/pilotdeck/pilotdeck/internal/guard"
	"github.com/pilotdeck/pilotdeck/internal/observability"
	"github.com/pilotdeck/pilotdeck/internal/platform/cache"
	"github.com/pilotdeck/pilotdeck/internal/products"
	"github.com/pilotdeck/pilotdeck/internal/session"
	"github.com/pilotdeck/pilotdeck/internal/users"
	"github.com/pilotdeck/pilotdeck/internal/view"
)

// storeTokens adapts the session store to the API client's token source,
// tolerating the window before the store exists.
type storeTokens struct {
	store *session.Store
}

func (t *storeTokens) Token() string {
	if t.store == nil {
		return ""
	}
	return t.store.Token()
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	// The API client and the session store reference each other: the client
	// reads the bearer token from the store, and the API authenticator logs
	// in through the client. A late-bound token source breaks the cycle.
	tokens := &storeTokens{}
	apiClient := apiclient.New(cfg.APIBaseURL, tokens, logger,
		apiclient.WithUnauthorizedHook(func(ctx context.Context) {
			metrics.ForcedLogout()
			if tokens.store != nil {
				tokens.store.ForceLogout(ctx)
			}
		}),
	)

	var authenticator session.Authenticator
	var registrar auth.Registrar
	if cfg.AuthMode == "api" {
		authenticator = auth.NewAPIAuthenticator(apiClient)
	} else {
		stub, err := auth.NewStubAuthenticator(cfg.StubPassword, cfg.SessionSecret, cfg.TokenTTL)
		if err != nil {
			logger.Error("build stub authenticator", slog.Any("error", err))
			os.Exit(1)
		}
		authenticator = stub
		registrar = stub
	}

	storage := session.NewRedisStorage(redisClient, cfg.SessionKey)
	store := session.NewStore(ctx, authenticator, storage, logger)
	tokens.store = store

	queryCache := apiclient.NewCache(cfg.CacheStaleTTL, cfg.CacheGCTTL)
	queryCache.StartSweeper(ctx, cfg.CacheSweepInterval)

	productsService := products.NewService(apiClient, queryCache, logger)
	usersService := users.NewService(apiClient, queryCache)

	g := guard.Middleware{Store: store, Logger: logger}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Templates:       templates,
		Store:           store,
		Guard:           g,
		AuthHandler:     auth.NewHandler(logger, store, registrar, templates),
		ProductsHandler: products.NewHandler(logger, productsService, store, templates),
		UsersHandler:    users.NewHandler(logger, usersService, store, templates),
		ProductsService: productsService,
		UsersService:    usersService,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
