package salesdb

import (
	"context"
	"log"

	mghelper "github.com/chainsafe/sales-sync/pkg/pgutil/migrations"
	"github.com/chainsafe/sales-sync/pkg/salesstore"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating sync_runs table...")
		if err := mghelper.CreateSchema(ctx, db, &salesstore.SyncRunDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &salesstore.SyncRunDao{}, "entity", "started_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping sync_runs table...")
		return mghelper.DropTables(ctx, db, &salesstore.SyncRunDao{})
	})
}
