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
		log.Println("creating documentos table...")
		if err := mghelper.CreateSchema(ctx, db, &salesstore.DocumentDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &salesstore.DocumentDao{}, "emission_date", "client_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping documentos table...")
		return mghelper.DropTables(ctx, db, &salesstore.DocumentDao{})
	})
}
