package main

import (
	"context"   // Startup and shutdown deadlines
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Graceful shutdown
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"apexpay/internal/account"           // Account flows
	"apexpay/internal/api"               // Custom package for API handlers
	"apexpay/internal/config"            // Custom package for configuration
	"apexpay/internal/db"                // Database connection and migration
	"apexpay/internal/domain"            // Transaction statuses
	"apexpay/internal/ledger"            // Wallet core
	"apexpay/internal/middleware"        // Custom package for middleware
	"apexpay/internal/repository"        // GORM store
	"apexpay/internal/repository/memory" // In-process store
	"apexpay/internal/utils"             // Cache and token denylist

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg)
	rdb := openRedis(ctx, cfg)

	// Optional collaborators stay nil interfaces when Redis is off
	var (
		cache   ledger.Cache
		limiter middleware.Counter
	)
	denylist := utils.NewTokenDenylist(nil)
	if rdb != nil {
		cache = utils.NewRedisCache(rdb, cfg.CacheTTL)
		limiter = rdb
		denylist = utils.NewTokenDenylist(rdb)
	}

	var mailer account.Mailer = account.LogMailer{}
	if cfg.EmailHost != "" {
		mailer = account.NewSMTPMailer(account.SMTPConfig{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPassword,
		})
	}
	accounts := account.NewService(store, mailer, denylist, account.Config{
		JWTSecret:  cfg.JWTSecret,
		SiteDomain: cfg.SiteDomain,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
		LinkTTL:    cfg.LinkTTL,
	})
	if cfg.AdminEmail != "" {
		if err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logrus.Fatalf("failed to seed admin: %v", err)
		}
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	trusted := cfg.TrustedProxies
	if len(trusted) == 0 {
		trusted = []string{"127.0.0.1"}
	}
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(trusted); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.SetupRouter(r, api.Deps{
		Store: store,
		Processor: ledger.NewProcessor(store,
			ledger.WithCache(cache),
			ledger.WithInitialStatus(domain.TransactionStatus(cfg.InitialStatus)),
			ledger.WithMaxRetries(uint64(cfg.MaxRetries)),
		),
		Reporter: ledger.NewReporter(store,
			ledger.WithReadCache(cache),
			ledger.WithStrictStatus(!cfg.IsProd),
		),
		Settlement:  ledger.NewSettlement(store, cache),
		Accounts:    accounts,
		Denylist:    denylist,
		RateLimiter: limiter,
		RateMax:     cfg.RateLimitMax,
		RateWindow:  cfg.RateLimitWin,
		JWTSecret:   cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logrus.Infof("Server running on %s", cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// setupLogger configures logrus from the environment
func setupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// openStore connects the configured backend and migrates MySQL on startup
func openStore(cfg *config.Config) repository.Store {
	if cfg.DBDriver == "memory" {
		logrus.Warn("Using the in-memory store, data is lost on restart")
		return memory.New()
	}
	gdb, err := db.Open(cfg.DSN(), cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("%v", err)
	}
	return repository.NewGormStore(gdb)
}

// openRedis returns nil when Redis is not configured or does not answer
func openRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		logrus.Warn("REDIS_ADDR not set, caching and rate limiting disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	// Test Redis connection
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis unreachable, caching and rate limiting disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}
