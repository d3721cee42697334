// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
)

// Create builds the Data Source Name for the configured driver.
func Create(cfg *config.Config) string {
	db := cfg.DB

	switch db.Driver {
	case config.DriverPostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
		)

		// postgres extras are key=value pairs separated by spaces or ampersands
		if db.Extras != "" {
			out += " " + strings.ReplaceAll(db.Extras, "&", " ")
		}

		return out
	case config.DriverSQLite:
		if db.Path == "" {
			return ":memory:"
		}

		return db.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			db.Extras,
		)
	}
}
