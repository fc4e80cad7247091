package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/navigation"
	"storefront/internal/scanner"
	"storefront/internal/server"
	"storefront/internal/storage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, logger.Options{
		File:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting storefront engine",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
	)

	ctx := context.Background()

	kv, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}

	masterKey, err := storage.LoadMasterKey(cfg.Secure.KeyHex, cfg.Secure.KeyFile)
	if err != nil {
		log.Fatal("Failed to load secure store key", zap.Error(err))
	}
	tokens, err := storage.NewSecureTokenStore(kv, masterKey, log)
	if err != nil {
		log.Fatal("Failed to create secure token store", zap.Error(err))
	}

	cartService := cart.NewService(storage.NewCartStore(kv, log), storage.NewWishlistStore(kv, log), log)
	cartService.Load(ctx)

	catalogClient := catalog.NewClient(cfg.Catalog, log)
	browser := catalog.NewBrowser(catalogClient, cfg.Catalog.PageSize, cfg.Catalog.SearchDebounce, log)
	defer browser.Close()

	provider := auth.NewGoogleProvider(cfg.Google, func(ctx context.Context, code auth.DeviceCode) error {
		log.Info("Finish sign-in in a browser",
			zap.String("verification_url", code.VerificationURL),
			zap.String("user_code", code.UserCode),
			zap.Time("expires", code.Expires),
		)
		return nil
	}, log)
	session := auth.NewSession(provider, tokens, log)

	nav := navigation.NewStack(session, log)
	if _, ok := session.Restore(ctx); ok {
		if err := nav.Reset(navigation.Products); err != nil {
			log.Warn("Failed to open products for restored session", zap.Error(err))
		}
	}

	codeScanner := scanner.New(catalogClient, cfg.Scanner.Cooldown, log)

	var redisClient *redis.Client
	if cfg.RateLimit.Enabled {
		redisClient = storage.NewRedisClient(cfg.Redis)
	}

	srv := server.NewServer(cfg, log, server.Deps{
		Session:  session,
		Nav:      nav,
		Cart:     cartService,
		Searcher: catalogClient,
		Browser:  browser,
		Scanner:  codeScanner,
		Closers:  []io.Closer{kv},
		Redis:    redisClient,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
