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
		log.Println("creating document_details table...")
		if err := mghelper.CreateSchema(ctx, db, &salesstore.DocumentDetailDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &salesstore.DocumentDetailDao{}, "document_id", "variant_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping document_details table...")
		return mghelper.DropTables(ctx, db, &salesstore.DocumentDetailDao{})
	})
}
