package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/buildinfo"
	"github.com/xelth-com/eckbiz/internal/config"
	"github.com/xelth-com/eckbiz/internal/database"
	"github.com/xelth-com/eckbiz/internal/handlers"
	"github.com/xelth-com/eckbiz/internal/logger"
	"github.com/xelth-com/eckbiz/internal/metrics"
	"github.com/xelth-com/eckbiz/internal/middleware"
	"github.com/xelth-com/eckbiz/internal/services/tickets"
	"github.com/xelth-com/eckbiz/internal/tenant"
	"github.com/xelth-com/eckbiz/internal/utils"
	"github.com/xelth-com/eckbiz/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	// 2. Start the database server (embedded vs external is detected from config)
	server, err := database.Start(cfg.Database, zl)
	if err != nil {
		zl.Fatal("failed to start database", zap.Error(err))
	}

	// 3. Pools of provisioned tenants are opened lazily and migrated on first use
	resolver := tenant.NewResolver(server, cfg.Database.AutoMigrate)
	metrics.RegisterTenantGauge(func() int { return len(resolver.Tenants()) })
	if database.IsEmbedded(cfg.Database) {
		if err := server.Provision(context.Background(), cfg.Database.DefaultTenant); err != nil {
			zl.Fatal("failed to provision default tenant", zap.Error(err))
		}
		if _, err := resolver.DB(context.Background(), cfg.Database.DefaultTenant); err != nil {
			zl.Fatal("failed to open default tenant", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(zl)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		zl.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}
	limiter := middleware.NewRateLimiter(cfg.Tickets.RatePerMinute, cfg.Tickets.Burst)
	limiter.StartCleanup(5*time.Minute, ctx.Done())

	links, err := utils.NewShareLinks(cfg.JWTSecret)
	if err != nil {
		zl.Fatal("failed to init share links", zap.Error(err))
	}

	// 4. Set up HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Resolver:    resolver,
		Issuer:      utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.RefreshTTL),
		Hub:         hub,
		Log:         zl,
		Dedup:       utils.NewDeduplicator(tickets.DedupWindow),
		Limiter:     limiter,
		Links:       links,
		Proxies:     proxies,
		CORSOrigins: cfg.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Start server with graceful shutdown
	go func() {
		zl.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.NodeEnv),
			zap.String("version", buildinfo.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("http server shutdown", zap.Error(err))
	}
	<-hubDone

	if err := resolver.Close(); err != nil {
		zl.Error("close tenant pools", zap.Error(err))
	}
	// Close the server last; this also stops embedded PostgreSQL
	if err := server.Close(); err != nil {
		zl.Error("database close", zap.Error(err))
	}
	zl.Info("shutdown complete")
}
