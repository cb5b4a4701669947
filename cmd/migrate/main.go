package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	"github.com/vrukshaservices/vruksha-backend/pkg/db"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
	"github.com/vrukshaservices/vruksha-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{ServiceName: "vruksha-migrate", Level: zerolog.InfoLevel})
	ctx := context.Background()

	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(ctx, "database connection failed", err)
		os.Exit(1)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		logg.Error(ctx, "sql handle unavailable", err)
		os.Exit(1)
	}

	dialect := "postgres"
	if cfg.FeatureFlags.UseSQLite {
		dialect = "sqlite3"
	}

	var args []string
	if flag.NArg() > 1 {
		args = flag.Args()[1:]
	}

	if err := migrate.Run(ctx, sqlDB, dialect, *dir, command, args...); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "command", command), "migration complete")
}
