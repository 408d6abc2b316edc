// Command seed prepares a tenant database with an admin account and a small
// demo catalog.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/config"
	"github.com/xelth-com/eckbiz/internal/database"
	"github.com/xelth-com/eckbiz/internal/logger"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tenantID := flag.String("tenant", cfg.Database.DefaultTenant, "tenant to seed")
	email := flag.String("admin-email", "admin@example.com", "admin login")
	password := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password (or SEED_ADMIN_PASSWORD)")
	demo := flag.Bool("demo", true, "also create demo suppliers, products, companies and employees")
	flag.Parse()

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	if *password == "" {
		zl.Fatal("admin password is required (-admin-password or SEED_ADMIN_PASSWORD)")
	}

	server, err := database.Start(cfg.Database, zl)
	if err != nil {
		zl.Fatal("failed to start database", zap.Error(err))
	}
	defer server.Close()

	resolver := tenant.NewResolver(server, true)
	defer resolver.Close()

	ctx := context.Background()
	if err := server.Provision(ctx, *tenantID); err != nil {
		zl.Fatal("failed to provision tenant", zap.String("tenant", *tenantID), zap.Error(err))
	}
	db, err := resolver.DB(ctx, *tenantID)
	if err != nil {
		zl.Fatal("failed to open tenant", zap.String("tenant", *tenantID), zap.Error(err))
	}

	s := seeder{base: services.NewBase(db, nil), log: zl.With(zap.String("tenant", *tenantID))}
	if err := s.admin(ctx, *email, *password); err != nil {
		zl.Fatal("seed admin", zap.Error(err))
	}
	if *demo {
		if err := s.catalog(ctx); err != nil {
			zl.Fatal("seed demo data", zap.Error(err))
		}
	}
	zl.Info("seed complete", zap.String("tenant", *tenantID))
}
