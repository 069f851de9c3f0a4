package cmd

import (
	"context"

	"github.com/pitchlense/pitchlense/pkg/applog"
	"github.com/pitchlense/pitchlense/pkg/config"
	"github.com/pitchlense/pitchlense/pkg/db"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Apply any pending database migrations and exit.`,
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	log := applog.NewDefault()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	database, err := db.New(ctx, db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Info("running migrations")
	if err := db.Migrate(ctx, database); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	log.Info("migrations completed")
}
