// Package daemon opens the database, prepares it and runs the web service.
package daemon

import (
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	limitmysql "github.com/gofiber/storage/mysql/v2"
	limitpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/dsn"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/seed"
	gormlogger "github.com/StorefrontAdmin/StorefrontAdmin/internal/logger/adapter/gorm"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// ErrNilConfig is returned when the daemon is created without configuration.
var ErrNilConfig = errors.New("config is nil")

// limiterTable stores the login and contact form counters of the network drivers.
const limiterTable = "rate_limits"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start runs the web service until a termination signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// OpenDB opens the configured database with the zerolog backed gorm logger.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.Driver {
	case config.DriverMySQL:
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.DriverPostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case config.DriverSQLite, "":
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDBDriver, cfg.DB.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.New(cfg.DB.Debug)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}

// Prepare migrates the schema, seeds permissions, roles and the bootstrap
// administrator and records the run in the audit log.
func Prepare(db *gorm.DB, cfg *config.Config, sink audit.Recorder) error {
	if err := seed.Migrate(db); err != nil {
		return err
	}

	if err := seed.Run(db, cfg.Seed); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	sink.Record(nil, audit.Entry{
		Action: audit.ActionSystemSeed,
		Detail: fmt.Sprintf("schema migrated, permissions and roles seeded (version %d)", seed.Version),
	})

	return nil
}

// newLimiterStorage shares rate limit counters between instances on the network
// drivers. Nil selects the in-memory storage of the limiter.
func newLimiterStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.Driver {
	case config.DriverMySQL:
		return limitmysql.New(limitmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         limiterTable,
		})
	case config.DriverPostgres:
		return limitpostgres.New(limitpostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         limiterTable,
		})
	default:
		return nil
	}
}

// NewEnv builds the handler environment on an opened database.
func NewEnv(cfg *config.Config, db *gorm.DB, secret string) (*handler.Env, error) {
	sink, err := audit.NewSink(db)
	if err != nil {
		return nil, err
	}

	deps, err := action.NewDeps(db, sink)
	if err != nil {
		return nil, err
	}

	return &handler.Env{
		Config:  cfg,
		DB:      db,
		Codec:   session.NewCodec(secret),
		Auth:    auth.NewService(db),
		Audit:   sink,
		Actions: deps,
	}, nil
}

// New creates a new Daemon instance with the provided configuration.
// A missing session secret is fatal in production.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	secret, err := session.ResolveSecret(cfg.Webserver.Session.Secret, cfg.IsProduction())
	if err != nil {
		return nil, err
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	env, err := NewEnv(cfg, db, secret)
	if err != nil {
		return nil, err
	}

	if err = Prepare(db, cfg, env.Audit); err != nil {
		return nil, err
	}

	env.LimiterStorage = newLimiterStorage(cfg)

	webService, err := web.New(env)
	if err != nil {
		return nil, err
	}

	log.Info().Str("driver", cfg.DB.Driver).Int("port", cfg.Webserver.Port).Msg("daemon initialized")

	return &Daemon{cfg: cfg, webService: webService}, nil
}
