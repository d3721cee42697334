package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate the database and seed permissions, roles and the bootstrap administrator",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := daemon.OpenDB(cfg)
		if err != nil {
			return err
		}

		sink, err := audit.NewSink(db)
		if err != nil {
			return err
		}

		if err = daemon.Prepare(db, cfg, sink); err != nil {
			return err
		}

		log.Info().Str("driver", cfg.DB.Driver).Msg("database migrated and seeded")

		return nil
	},
}
