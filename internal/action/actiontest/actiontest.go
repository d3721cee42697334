// Package actiontest wires action dependencies onto a test database.
package actiontest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/testdb"
)

// Setup returns a seeded test database and dependencies recording into its audit table.
func Setup(t testing.TB) (*gorm.DB, *action.Deps) {
	t.Helper()

	db := testdb.New(t)

	sink, err := audit.NewSink(db)
	require.NoError(t, err)

	deps, err := action.NewDeps(db, sink)
	require.NoError(t, err)

	return db, deps
}

// AuditRows returns all audit rows in insertion order.
func AuditRows(t testing.TB, db *gorm.DB) []models.AuditLog {
	t.Helper()

	var rows []models.AuditLog
	require.NoError(t, db.Order("id").Find(&rows).Error)

	return rows
}

// Count returns the number of rows of model.
func Count(t testing.TB, db *gorm.DB, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)

	return n
}
