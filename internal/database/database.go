// Package database manages the postgres server that hosts one database per
// tenant, external or embedded.
package database

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/config"
	"github.com/xelth-com/eckbiz/internal/logger"
	"github.com/xelth-com/eckbiz/internal/models"
)

// Server opens tenant databases on one postgres instance. When configured
// for localhost with no password it runs an embedded postgres.
type Server struct {
	cfg      config.DatabaseConfig
	password string
	log      *zap.Logger
	embedded *embeddedpostgres.EmbeddedPostgres

	adminOnce sync.Once
	admin     *gorm.DB
	adminErr  error
}

// IsEmbedded reports whether cfg selects the embedded server
func IsEmbedded(cfg config.DatabaseConfig) bool {
	return cfg.Host == "localhost" && cfg.Password == ""
}

// Start connects to (or boots) the postgres server.
func Start(cfg config.DatabaseConfig, log *zap.Logger) (*Server, error) {
	s := &Server{cfg: cfg, password: cfg.Password, log: log}
	if !IsEmbedded(cfg) {
		log.Info("using external postgres", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
		return s, nil
	}

	log.Info("starting embedded postgres", zap.String("data", embeddedDataPath), zap.Int("port", embeddedPort))
	cleanupStaleEmbeddedPostgres(log)
	if err := waitForPort(embeddedPort); err != nil {
		return nil, err
	}

	embedded := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(embeddedDataPath).
		Port(uint32(embeddedPort)).
		Database(DatabaseName(cfg.TenantPrefix, cfg.DefaultTenant)).
		Username(cfg.Username).
		Password(embeddedPassword))
	if err := embedded.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded database: %w", err)
	}

	s.embedded = embedded
	s.cfg.Port = strconv.Itoa(embeddedPort)
	s.password = embeddedPassword
	return s, nil
}

var namePattern = regexp.MustCompile(`^[a-z0-9_]{1,63}$`)

// DatabaseName maps a tenant id onto its database name.
func DatabaseName(prefix, tenantID string) string {
	return prefix + strings.ReplaceAll(tenantID, "-", "_")
}

// DSN builds the connection string for dbname.
func (s *Server) DSN(dbname string) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		s.cfg.Host,
		s.cfg.Port,
		s.cfg.Username,
		s.password,
		dbname,
	)
}

// Open returns a pooled connection to an existing tenant database. A tenant
// that was never provisioned is NotFound; Open never creates anything.
func (s *Server) Open(ctx context.Context, tenantID string) (*gorm.DB, error) {
	name := DatabaseName(s.cfg.TenantPrefix, tenantID)
	exists, err := s.exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("tenant", tenantID)
	}

	db, err := gorm.Open(postgres.Open(s.DSN(name)), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to tenant %s: %w", tenantID, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(s.cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(s.cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(s.cfg.ConnLifetime)

	s.log.Info("tenant database connected", zap.String("tenant", tenantID), zap.String("database", name))
	return db, nil
}

// Provision creates the tenant database when it does not exist yet. It is
// an operator step (seed, boot of the embedded default tenant), never a
// side effect of serving a request.
func (s *Server) Provision(ctx context.Context, tenantID string) error {
	name := DatabaseName(s.cfg.TenantPrefix, tenantID)
	if !namePattern.MatchString(name) {
		return apperr.Validation("invalid tenant id %q", tenantID)
	}
	exists, err := s.exists(ctx, name)
	if err != nil || exists {
		return err
	}

	admin, err := s.adminDB()
	if err != nil {
		return err
	}
	// CREATE DATABASE takes no bind parameters; name is built from a validated tenant id.
	if err := admin.WithContext(ctx).Exec(`CREATE DATABASE "` + name + `"`).Error; err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	s.log.Info("tenant database created", zap.String("tenant", tenantID), zap.String("database", name))
	return nil
}

func (s *Server) adminDB() (*gorm.DB, error) {
	s.adminOnce.Do(func() {
		s.admin, s.adminErr = gorm.Open(postgres.Open(s.DSN("postgres")), GormConfig())
		if s.adminErr == nil {
			if sqlDB, err := s.admin.DB(); err == nil {
				sqlDB.SetMaxOpenConns(2)
			}
		}
	})
	if s.adminErr != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", s.adminErr)
	}
	return s.admin, nil
}

func (s *Server) exists(ctx context.Context, name string) (bool, error) {
	admin, err := s.adminDB()
	if err != nil {
		return false, err
	}
	var exists bool
	if err := admin.WithContext(ctx).
		Raw("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)", name).
		Scan(&exists).Error; err != nil {
		return false, fmt.Errorf("lookup database %s: %w", name, err)
	}
	return exists, nil
}

// Close shuts the admin connection and the embedded server, if any.
func (s *Server) Close() error {
	if s.admin != nil {
		if sqlDB, err := s.admin.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if s.embedded != nil {
		s.log.Info("stopping embedded postgres")
		return s.embedded.Stop()
	}
	return nil
}

// GormConfig is the gorm configuration every tenant connection uses.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.NewGormLogger(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Migrate brings a tenant schema up to date with the models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
