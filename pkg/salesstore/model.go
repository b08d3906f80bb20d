package salesstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/chainsafe/sales-sync/pkg/syncer"
)

// DocumentDao maps to the 'documentos' table.
type DocumentDao struct {
	bun.BaseModel  `bun:"table:documentos"`
	DocumentID     int64               `json:"document_id" bun:"document_id,pk"`
	EmissionDate   *int64              `json:"emission_date" bun:"emission_date"`
	TotalAmount    decimal.NullDecimal `json:"total_amount" bun:"total_amount,type:numeric(18,4)"`
	NetAmount      decimal.NullDecimal `json:"net_amount" bun:"net_amount,type:numeric(18,4)"`
	TaxAmount      decimal.NullDecimal `json:"tax_amount" bun:"tax_amount,type:numeric(18,4)"`
	Address        *string             `json:"address" bun:"address"`
	Municipality   *string             `json:"municipality" bun:"municipality"`
	City           *string             `json:"city" bun:"city"`
	State          *int64              `json:"state" bun:"state"`
	Number         *int64              `json:"number" bun:"number"`
	ClientID       *int64              `json:"client_id" bun:"client_id"`
	DocumentTypeID *int64              `json:"document_type_id" bun:"document_type_id"`
	UserID         *int64              `json:"user_id" bun:"user_id"`
	DetailsURL     *string             `json:"details_url" bun:"details_url"`
	SellerURL      *string             `json:"seller_url" bun:"seller_url"`
	SellerID       *int64              `json:"seller_id" bun:"seller_id"`
}

// DocumentDetailDao maps to the 'document_details' table. Rows are unique per document line.
type DocumentDetailDao struct {
	bun.BaseModel   `bun:"table:document_details"`
	DocumentID      int64               `json:"document_id" bun:"document_id,notnull,unique:document_line"`
	LineNumber      *int64              `json:"line_number" bun:"line_number,unique:document_line"`
	Quantity        decimal.NullDecimal `json:"quantity" bun:"quantity,type:numeric(18,4)"`
	NetUnitValue    decimal.NullDecimal `json:"net_unit_value" bun:"net_unit_value,type:numeric(18,4)"`
	TotalUnitValue  decimal.NullDecimal `json:"total_unit_value" bun:"total_unit_value,type:numeric(18,4)"`
	NetAmount       decimal.NullDecimal `json:"net_amount" bun:"net_amount,type:numeric(18,4)"`
	TaxAmount       decimal.NullDecimal `json:"tax_amount" bun:"tax_amount,type:numeric(18,4)"`
	TotalAmount     decimal.NullDecimal `json:"total_amount" bun:"total_amount,type:numeric(18,4)"`
	VariantID       *int64              `json:"variant_id" bun:"variant_id"`
	RelatedDetailID *int64              `json:"related_detail_id" bun:"related_detail_id"`
}

// PaymentDao maps to the 'pagos' table.
type PaymentDao struct {
	bun.BaseModel `bun:"table:pagos"`
	PaymentID     int64               `json:"payment_id" bun:"payment_id,pk"`
	PaymentDate   *int64              `json:"payment_date" bun:"payment_date"`
	Amount        decimal.NullDecimal `json:"amount" bun:"amount,type:numeric(18,4)"`
	PaymentMethod *int64              `json:"payment_method" bun:"payment_method"`
	DocumentID    *int64              `json:"document_id" bun:"document_id"`
	ClientID      *int64              `json:"client_id" bun:"client_id"`
	State         *int64              `json:"state" bun:"state"`
}

// ClientDao maps to the 'clients' table.
type ClientDao struct {
	bun.BaseModel `bun:"table:clients"`
	ClientID      int64   `json:"client_id" bun:"client_id,pk"`
	FirstName     *string `json:"first_name" bun:"first_name"`
	LastName      *string `json:"last_name" bun:"last_name"`
	Email         *string `json:"email" bun:"email"`
	Rut           *string `json:"rut" bun:"rut"`
}

// UserDao maps to the 'users' table.
type UserDao struct {
	bun.BaseModel `bun:"table:users"`
	UserID        int64   `json:"user_id" bun:"user_id,pk"`
	FirstName     *string `json:"first_name" bun:"first_name"`
	LastName      *string `json:"last_name" bun:"last_name"`
}

// ProductDao maps to the 'products' table.
type ProductDao struct {
	bun.BaseModel         `bun:"table:products"`
	ProductID             int64   `json:"product_id" bun:"product_id,pk"`
	Name                  *string `json:"name" bun:"name"`
	Description           *string `json:"description" bun:"description"`
	Classification        *int64  `json:"classification" bun:"classification"`
	LedgerAccount         *string `json:"ledger_account" bun:"ledger_account"`
	CostCenter            *string `json:"cost_center" bun:"cost_center"`
	AllowDecimal          *bool   `json:"allow_decimal" bun:"allow_decimal"`
	StockControl          *bool   `json:"stock_control" bun:"stock_control"`
	PrintDetailPack       *bool   `json:"print_detail_pack" bun:"print_detail_pack"`
	State                 *int64  `json:"state" bun:"state"`
	PrestashopProductID   *int64  `json:"prestashop_product_id" bun:"prestashop_product_id"`
	PrestashopAttributeID *int64  `json:"prestashop_attribute_id" bun:"prestashop_attribute_id"`
	ProductTypeID         *int64  `json:"product_type_id" bun:"product_type_id"`
}

// VariantDao maps to the 'variants' table.
type VariantDao struct {
	bun.BaseModel           `bun:"table:variants"`
	VariantID               int64   `json:"variant_id" bun:"variant_id,pk"`
	Description             *string `json:"description" bun:"description"`
	UnlimitedStock          *bool   `json:"unlimited_stock" bun:"unlimited_stock"`
	AllowNegativeStock      *bool   `json:"allow_negative_stock" bun:"allow_negative_stock"`
	State                   *int64  `json:"state" bun:"state"`
	BarCode                 *string `json:"bar_code" bun:"bar_code"`
	Code                    *string `json:"code" bun:"code"`
	ImagestionCenterCost    *int64  `json:"imagestion_center_cost" bun:"imagestion_center_cost"`
	ImagestionAccount       *int64  `json:"imagestion_account" bun:"imagestion_account"`
	ImagestionConceptCod    *int64  `json:"imagestion_concept_cod" bun:"imagestion_concept_cod"`
	ImagestionProjectCod    *int64  `json:"imagestion_project_cod" bun:"imagestion_project_cod"`
	ImagestionCategoryCod   *int64  `json:"imagestion_category_cod" bun:"imagestion_category_cod"`
	ImagestionProductID     *int64  `json:"imagestion_product_id" bun:"imagestion_product_id"`
	SerialNumber            *bool   `json:"serial_number" bun:"serial_number"`
	PrestashopCombinationID *int64  `json:"prestashop_combination_id" bun:"prestashop_combination_id"`
	PrestashopValueID       *int64  `json:"prestashop_value_id" bun:"prestashop_value_id"`
	ProductID               *int64  `json:"product_id" bun:"product_id"`
	CostsHref               *string `json:"costs_href" bun:"costs_href"`
}

// ProductTypeDao maps to the 'product_types' table.
type ProductTypeDao struct {
	bun.BaseModel `bun:"table:product_types"`
	ProductTypeID int64   `json:"product_type_id" bun:"product_type_id,pk"`
	Name          *string `json:"name" bun:"name"`
}

// PaymentTypeDao maps to the 'payment_types' table.
type PaymentTypeDao struct {
	bun.BaseModel  `bun:"table:payment_types"`
	PaymentTypeID  int64   `json:"payment_type_id" bun:"payment_type_id,pk"`
	Name           *string `json:"name" bun:"name"`
	IsCreditnote   *bool   `json:"is_creditnote" bun:"is_creditnote"`
	IsClientCredit *bool   `json:"is_client_credit" bun:"is_client_credit"`
	IsCash         *bool   `json:"is_cash" bun:"is_cash"`
	State          *int64  `json:"state" bun:"state"`
}

// DocumentTypeDao maps to the 'document_types' table.
type DocumentTypeDao struct {
	bun.BaseModel        `bun:"table:document_types"`
	DocumentTypeID       int64   `json:"document_type_id" bun:"document_type_id,pk"`
	Name                 *string `json:"name" bun:"name"`
	CodeSii              *string `json:"code_sii" bun:"code_sii"`
	InitialNumber        *int64  `json:"initial_number" bun:"initial_number"`
	IsElectronicDocument *bool   `json:"is_electronic_document" bun:"is_electronic_document"`
	IsSalesNote          *bool   `json:"is_sales_note" bun:"is_sales_note"`
	IsExempt             *bool   `json:"is_exempt" bun:"is_exempt"`
	IsCreditNote         *bool   `json:"is_credit_note" bun:"is_credit_note"`
	UseClient            *bool   `json:"use_client" bun:"use_client"`
	State                *int64  `json:"state" bun:"state"`
}

// ShopifyDailySalesDao maps to the 'shopify_daily_sales' table.
type ShopifyDailySalesDao struct {
	bun.BaseModel `bun:"table:shopify_daily_sales"`
	SaleDate      string          `json:"sale_date" bun:"sale_date,pk,type:date"`
	DayStart      int64           `json:"day_start" bun:"day_start,notnull"`
	TotalSales    decimal.Decimal `json:"total_sales" bun:"total_sales,notnull,type:numeric(18,2)"`
	OrderCount    int64           `json:"order_count" bun:"order_count,notnull"`
	Currency      *string         `json:"currency" bun:"currency,type:varchar(3)"`
}

// SyncRunDao maps to the 'sync_runs' table. One row is written per entity run.
type SyncRunDao struct {
	bun.BaseModel      `bun:"table:sync_runs"`
	ID                 uuid.UUID  `json:"id" bun:"id,pk,type:uuid"`
	Entity             string     `json:"entity" bun:"entity,notnull,type:varchar(64)"`
	Status             string     `json:"status" bun:"status,notnull,type:varchar(16)"`
	WindowStart        *time.Time `json:"window_start,omitempty" bun:"window_start"`
	WindowEnd          *time.Time `json:"window_end,omitempty" bun:"window_end"`
	Records            int        `json:"records" bun:"records,notnull"`
	Pages              int        `json:"pages" bun:"pages,notnull"`
	Requests           int        `json:"requests" bun:"requests,notnull"`
	EnrichmentFailures int        `json:"enrichment_failures" bun:"enrichment_failures,notnull"`
	Error              *string    `json:"error,omitempty" bun:"error"`
	StartedAt          time.Time  `json:"started_at" bun:"started_at,notnull"`
	FinishedAt         time.Time  `json:"finished_at" bun:"finished_at,nullzero,notnull,default:current_timestamp"`
}

func toRunDao(r *Run) *SyncRunDao {
	dao := &SyncRunDao{
		ID:                 r.ID,
		Entity:             r.Entity,
		Status:             r.Status,
		Records:            r.Records,
		Pages:              r.Pages,
		Requests:           r.Requests,
		EnrichmentFailures: r.EnrichmentFailures,
		StartedAt:          r.StartedAt,
		FinishedAt:         r.FinishedAt,
	}
	if !r.Window.IsZero() {
		start, end := r.Window.Start, r.Window.End
		dao.WindowStart = &start
		dao.WindowEnd = &end
	}
	if r.Error != "" {
		msg := r.Error
		dao.Error = &msg
	}
	return dao
}

func toRun(dao *SyncRunDao) *Run {
	r := &Run{
		ID:                 dao.ID,
		Entity:             dao.Entity,
		Status:             dao.Status,
		Records:            dao.Records,
		Pages:              dao.Pages,
		Requests:           dao.Requests,
		EnrichmentFailures: dao.EnrichmentFailures,
		StartedAt:          dao.StartedAt,
		FinishedAt:         dao.FinishedAt,
	}
	if dao.WindowStart != nil && dao.WindowEnd != nil {
		r.Window = syncer.NewWindow(*dao.WindowStart, *dao.WindowEnd)
	}
	if dao.Error != nil {
		r.Error = *dao.Error
	}
	return r
}
