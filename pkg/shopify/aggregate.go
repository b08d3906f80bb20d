package shopify

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/sales-sync/pkg/entity"
	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// Entity and table names.
const (
	OrdersEntity = "shopify_orders"
	DailyTable   = "shopify_daily_sales"
)

// DefaultTimezone is the zone sales days are counted in.
const DefaultTimezone = "America/Santiago"

// Daily sales columns.
const (
	ColSaleDate   = "sale_date"
	ColDayStart   = "day_start"
	ColTotalSales = "total_sales"
	ColOrderCount = "order_count"
	ColCurrency   = "currency"
)

// OrdersSpec maps order nodes into flat records.
func OrdersSpec() *syncer.Spec {
	return &syncer.Spec{
		Name:      OrdersEntity,
		DateParam: "created_at",
		Fields: []syncer.Field{
			{Column: "order_id", Path: "id", Kind: syncer.KindString},
			{Column: "name", Path: "name", Kind: syncer.KindString},
			{Column: "created_at", Path: "createdAt", Kind: syncer.KindString},
			{Column: "cancel_reason", Path: "cancelReason", Kind: syncer.KindString},
			{Column: "test", Path: "test", Kind: syncer.KindBool},
			{Column: "amount", Path: "currentTotalPriceSet.shopMoney.amount", Kind: syncer.KindDecimal},
			{Column: "currency", Path: "currentTotalPriceSet.shopMoney.currencyCode", Kind: syncer.KindString},
		},
	}
}

// DailySpec describes where daily totals are persisted. DayStart is the
// watermark column.
func DailySpec() *entity.Spec {
	return &entity.Spec{
		Spec: syncer.Spec{
			Name:      DailyTable,
			DateParam: "created_at",
		},
		Table:      DailyTable,
		Key:        ColSaleDate,
		DateColumn: ColDayStart,
	}
}

// DailySales is the total of one calendar day.
type DailySales struct {
	Day      time.Time
	Total    decimal.Decimal
	Orders   int
	Currency string
}

// Aggregate sums order amounts per calendar day in loc. Test orders,
// cancelled orders and orders without a positive amount are skipped. The
// result is sorted by day.
func Aggregate(orders []syncer.Record, loc *time.Location) []DailySales {
	if loc == nil {
		loc = time.UTC
	}

	byDay := make(map[time.Time]*DailySales)
	for _, o := range orders {
		if test, _ := o["test"].(bool); test {
			continue
		}
		if o["cancel_reason"] != nil {
			continue
		}
		amount, ok := o["amount"].(decimal.Decimal)
		if !ok || !amount.IsPositive() {
			continue
		}
		raw, _ := o["created_at"].(string)
		created, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			continue
		}

		local := created.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

		d, ok := byDay[day]
		if !ok {
			d = &DailySales{Day: day}
			if cur, _ := o["currency"].(string); cur != "" {
				d.Currency = cur
			}
			byDay[day] = d
		}
		d.Total = d.Total.Add(amount)
		d.Orders++
	}

	out := make([]DailySales, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// DailyResultSet turns daily totals into records for the sinks.
func DailyResultSet(daily []DailySales, window syncer.Window) *syncer.ResultSet {
	rs := &syncer.ResultSet{
		Entity:  DailyTable,
		Columns: []string{ColSaleDate, ColDayStart, ColTotalSales, ColOrderCount, ColCurrency},
		Window:  window,
	}
	for _, d := range daily {
		rs.Records = append(rs.Records, syncer.Record{
			ColSaleDate:   d.Day.Format(time.DateOnly),
			ColDayStart:   d.Day.Unix(),
			ColTotalSales: d.Total.Round(2),
			ColOrderCount: int64(d.Orders),
			ColCurrency:   d.Currency,
		})
	}
	if len(rs.Records) == 0 {
		rs.Condition = syncer.ErrNoData
	}
	return rs
}
