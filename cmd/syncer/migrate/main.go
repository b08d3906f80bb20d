package main

import (
	"context"
	"flag"
	"log"

	"github.com/chainsafe/sales-sync/pkg/config"
	"github.com/chainsafe/sales-sync/pkg/migrations/salesdb"
	"github.com/chainsafe/sales-sync/pkg/pgutil"
	mghelper "github.com/chainsafe/sales-sync/pkg/pgutil/migrations"

	"github.com/uptrace/bun/migrate"
)

func main() {
	cfgPath := flag.String("config", "config.example.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	ctx := context.Background()

	// Connect to database
	db, err := pgutil.ConnectDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for sales database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, salesdb.Migrations)

	if err := mghelper.RunMigrations(ctx, migrator, flag.Args()...); err != nil {
		mghelper.Exitf("%s", err.Error())
	}
}
