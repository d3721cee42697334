package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		DB: config.DB{Driver: config.DriverSQLite, Path: "file::memory:"},
		Webserver: config.Webserver{
			Port:       8080,
			URL:        "http://localhost:8080",
			LoginLimit: config.LoginLimit{Max: 5},
		},
		Seed: config.Seed{AdminUsername: "root", AdminPassword: "correct horse battery"},
	}
}

func TestNewRequiresSecretInProduction(t *testing.T) {
	_, err := New(sqliteConfig())
	assert.ErrorIs(t, err, session.ErrSecretRequired)

	_, err = New(nil)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig()
	cfg.DB.Driver = "oracle"

	_, err := OpenDB(cfg)
	assert.ErrorIs(t, err, config.ErrUnknownDBDriver)
}

func TestPrepareSeedsAndAudits(t *testing.T) {
	cfg := sqliteConfig()

	db, err := OpenDB(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	env, err := NewEnv(cfg, db, session.DevelopmentSecret)
	require.NoError(t, err)

	require.NoError(t, Prepare(db, cfg, env.Audit))
	require.NoError(t, Prepare(db, cfg, env.Audit), "a second run must be a no-op")

	var admin models.User
	require.NoError(t, db.Preload("Roles").Where("username = ?", "root").First(&admin).Error)
	assert.True(t, admin.VerifyPassword("correct horse battery"))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)

	var rows []models.AuditLog
	require.NoError(t, db.Where("action = ?", audit.ActionSystemSeed).Find(&rows).Error)
	assert.Len(t, rows, 2)
	assert.Nil(t, rows[0].UserID)
}

func TestNewLimiterStorageDefaultsToMemory(t *testing.T) {
	assert.Nil(t, newLimiterStorage(sqliteConfig()))
}
