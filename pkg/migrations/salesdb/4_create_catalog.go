package salesdb

import (
	"context"
	"log"

	mghelper "github.com/chainsafe/sales-sync/pkg/pgutil/migrations"
	"github.com/chainsafe/sales-sync/pkg/salesstore"

	"github.com/uptrace/bun"
)

// catalogModels are the full-dump tables keyed by their vendor id.
var catalogModels = []any{
	&salesstore.ClientDao{},
	&salesstore.UserDao{},
	&salesstore.ProductDao{},
	&salesstore.VariantDao{},
	&salesstore.ProductTypeDao{},
	&salesstore.PaymentTypeDao{},
	&salesstore.DocumentTypeDao{},
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating catalog tables...")
		if err := mghelper.CreateSchema(ctx, db, catalogModels...); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &salesstore.VariantDao{}, "product_id")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping catalog tables...")
		return mghelper.DropTables(ctx, db, catalogModels...)
	})
}
