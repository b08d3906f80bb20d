package entity

import "github.com/chainsafe/sales-sync/pkg/syncer"

// Entity names.
const (
	Documents       = "documents"
	DocumentDetails = "document_details"
	Payments        = "payments"
	Clients         = "clients"
	Users           = "users"
	Products        = "products"
	Variants        = "variants"
	ProductTypes    = "product_types"
	PaymentTypes    = "payment_types"
	DocumentTypes   = "document_types"
)

func f(column, path string, kind syncer.Kind) syncer.Field {
	return syncer.Field{Column: column, Path: path, Kind: kind}
}

// Builtin returns fresh copies of the built-in entity specs.
func Builtin() []*Spec {
	return []*Spec{
		documents(),
		payments(),
		clients(),
		users(),
		products(),
		variants(),
		productTypes(),
		paymentTypes(),
		documentTypes(),
	}
}

func documents() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:      Documents,
			Endpoint:  "documents",
			DateParam: "emissiondaterange",
			Params:    map[string]string{"expand": "details"},
			Fields: []syncer.Field{
				f("document_id", "id", syncer.KindInt),
				f("emission_date", "emissionDate", syncer.KindInt),
				f("total_amount", "totalAmount", syncer.KindDecimal),
				f("net_amount", "netAmount", syncer.KindDecimal),
				f("tax_amount", "taxAmount", syncer.KindDecimal),
				f("address", "address", syncer.KindString),
				f("municipality", "municipality", syncer.KindString),
				f("city", "city", syncer.KindString),
				f("state", "state", syncer.KindInt),
				f("number", "number", syncer.KindInt),
				f("client_id", "client.id", syncer.KindInt),
				f("document_type_id", "document_type.id", syncer.KindInt),
				f("user_id", "user.id", syncer.KindInt),
				f("details_url", "details.href", syncer.KindString),
				f("seller_url", "sellers.href", syncer.KindString),
			},
			Enrichment: &syncer.Enrichment{Column: "seller_id", SourceColumn: "seller_url"},
		},
		Table:      "documentos",
		Key:        "document_id",
		DateColumn: "emission_date",
		Children: []*syncer.ChildSpec{
			{
				Name:       DocumentDetails,
				LinkColumn: "details_url",
				ParentKeys: []syncer.Field{{Column: "document_id", Path: "document_id"}},
				Fields: []syncer.Field{
					f("line_number", "lineNumber", syncer.KindInt),
					f("quantity", "quantity", syncer.KindDecimal),
					f("net_unit_value", "netUnitValue", syncer.KindDecimal),
					f("total_unit_value", "totalUnitValue", syncer.KindDecimal),
					f("net_amount", "netAmount", syncer.KindDecimal),
					f("tax_amount", "taxAmount", syncer.KindDecimal),
					f("total_amount", "totalAmount", syncer.KindDecimal),
					f("variant_id", "variant.id", syncer.KindInt),
					f("related_detail_id", "relatedDetailId", syncer.KindInt),
				},
			},
		},
	}
}

func payments() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:      Payments,
			Endpoint:  "payments",
			DateParam: "recorddaterange",
			Fields: []syncer.Field{
				f("payment_id", "id", syncer.KindInt),
				f("payment_date", "recordDate", syncer.KindInt),
				f("amount", "amount", syncer.KindDecimal),
				f("payment_method", "payment_type.id", syncer.KindInt),
				f("document_id", "document.id", syncer.KindInt),
				f("client_id", "user.id", syncer.KindInt),
				f("state", "state", syncer.KindInt),
			},
		},
		Table:      "pagos",
		Key:        "payment_id",
		DateColumn: "payment_date",
	}
}

func clients() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:     Clients,
			Endpoint: "clients",
			Fields: []syncer.Field{
				f("client_id", "id", syncer.KindInt),
				f("first_name", "firstName", syncer.KindString),
				f("last_name", "lastName", syncer.KindString),
				f("email", "email", syncer.KindString),
				f("rut", "code", syncer.KindString),
			},
		},
		Table: "clients",
		Key:   "client_id",
	}
}

func users() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:     Users,
			Endpoint: "users",
			Fields: []syncer.Field{
				f("user_id", "id", syncer.KindInt),
				f("first_name", "firstName", syncer.KindString),
				f("last_name", "lastName", syncer.KindString),
			},
		},
		Table: "users",
		Key:   "user_id",
	}
}

func products() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:     Products,
			Endpoint: "products",
			Fields: []syncer.Field{
				f("product_id", "id", syncer.KindInt),
				f("name", "name", syncer.KindString),
				f("description", "description", syncer.KindString),
				f("classification", "classification", syncer.KindInt),
				f("ledger_account", "ledgerAccount", syncer.KindString),
				f("cost_center", "costCenter", syncer.KindString),
				f("allow_decimal", "allowDecimal", syncer.KindBool),
				f("stock_control", "stockControl", syncer.KindBool),
				f("print_detail_pack", "printDetailPack", syncer.KindBool),
				f("state", "state", syncer.KindInt),
				f("prestashop_product_id", "prestashopProductId", syncer.KindInt),
				f("prestashop_attribute_id", "presashopAttributeId", syncer.KindInt),
				f("product_type_id", "product_type.id", syncer.KindInt),
			},
		},
		Table: "products",
		Key:   "product_id",
	}
}

func variants() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:     Variants,
			Endpoint: "variants",
			Fields: []syncer.Field{
				f("variant_id", "id", syncer.KindInt),
				f("description", "description", syncer.KindString),
				f("unlimited_stock", "unlimitedStock", syncer.KindBool),
				f("allow_negative_stock", "allowNegativeStock", syncer.KindBool),
				f("state", "state", syncer.KindInt),
				f("bar_code", "barCode", syncer.KindString),
				f("code", "code", syncer.KindString),
				f("imagestion_center_cost", "imagestionCenterCost", syncer.KindInt),
				f("imagestion_account", "imagestionAccount", syncer.KindInt),
				f("imagestion_concept_cod", "imagestionConceptCod", syncer.KindInt),
				f("imagestion_project_cod", "imagestionProyectCod", syncer.KindInt),
				f("imagestion_category_cod", "imagestionCategoryCod", syncer.KindInt),
				f("imagestion_product_id", "imagestionProductId", syncer.KindInt),
				f("serial_number", "serialNumber", syncer.KindBool),
				f("prestashop_combination_id", "prestashopCombinationId", syncer.KindInt),
				f("prestashop_value_id", "prestashopValueId", syncer.KindInt),
				f("product_id", "product.id", syncer.KindInt),
				f("costs_href", "costs.href", syncer.KindString),
			},
		},
		Table: "variants",
		Key:   "variant_id",
	}
}

func productTypes() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:     ProductTypes,
			Endpoint: "product_types",
			Fields: []syncer.Field{
				f("product_type_id", "id", syncer.KindInt),
				f("name", "name", syncer.KindString),
			},
		},
		Table: "product_types",
		Key:   "product_type_id",
	}
}

func paymentTypes() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:     PaymentTypes,
			Endpoint: "payment_types",
			Fields: []syncer.Field{
				f("payment_type_id", "id", syncer.KindInt),
				f("name", "name", syncer.KindString),
				f("is_creditnote", "isCreditNote", syncer.KindBool),
				f("is_client_credit", "isClientCredit", syncer.KindBool),
				f("is_cash", "isCash", syncer.KindBool),
				f("state", "state", syncer.KindInt),
			},
		},
		Table: "payment_types",
		Key:   "payment_type_id",
	}
}

func documentTypes() *Spec {
	return &Spec{
		Spec: syncer.Spec{
			Name:     DocumentTypes,
			Endpoint: "document_types",
			Fields: []syncer.Field{
				f("document_type_id", "id", syncer.KindInt),
				f("name", "name", syncer.KindString),
				f("code_sii", "codeSii", syncer.KindString),
				f("initial_number", "initialNumber", syncer.KindInt),
				f("is_electronic_document", "isElectronicDocument", syncer.KindBool),
				f("is_sales_note", "isSalesNote", syncer.KindBool),
				f("is_exempt", "isExempt", syncer.KindBool),
				f("is_credit_note", "isCreditNote", syncer.KindBool),
				f("use_client", "useClient", syncer.KindBool),
				f("state", "state", syncer.KindInt),
			},
		},
		Table: "document_types",
		Key:   "document_type_id",
	}
}
