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
		log.Println("creating shopify_daily_sales table...")
		if err := mghelper.CreateSchema(ctx, db, &salesstore.ShopifyDailySalesDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &salesstore.ShopifyDailySalesDao{}, "day_start")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping shopify_daily_sales table...")
		return mghelper.DropTables(ctx, db, &salesstore.ShopifyDailySalesDao{})
	})
}
