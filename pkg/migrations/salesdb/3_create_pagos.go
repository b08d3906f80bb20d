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
		log.Println("creating pagos table...")
		if err := mghelper.CreateSchema(ctx, db, &salesstore.PaymentDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &salesstore.PaymentDao{}, "payment_date", "document_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping pagos table...")
		return mghelper.DropTables(ctx, db, &salesstore.PaymentDao{})
	})
}
