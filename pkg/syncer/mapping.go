package syncer

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Kind selects how a raw JSON value is converted into a record value.
type Kind string

const (
	KindInt     Kind = "int"
	KindDecimal Kind = "decimal"
	KindString  Kind = "string"
	KindBool    Kind = "bool"
	KindRaw     Kind = "raw"
)

// Valid reports whether k is a known kind. The empty kind means string.
func (k Kind) Valid() bool {
	switch k {
	case "", KindInt, KindDecimal, KindString, KindBool, KindRaw:
		return true
	}
	return false
}

// Field maps one JSON path of a raw item onto one output column.
// Paths use gjson syntax, so nested references read as "client.id".
type Field struct {
	Column string `yaml:"column"`
	Path   string `yaml:"path"`
	Kind   Kind   `yaml:"kind"`
}

// Enrichment resolves one extra column by fetching the URL stored in
// SourceColumn and taking the id of the first item returned.
type Enrichment struct {
	Column       string `yaml:"column"`
	SourceColumn string `yaml:"source_column"`
}

// Spec parameterizes one run of the procedure for an entity type.
type Spec struct {
	Name       string
	Endpoint   string
	DateParam  string
	Params     map[string]string
	Fields     []Field
	Enrichment *Enrichment
}

// Windowed reports whether the entity is fetched through a date range filter.
func (s *Spec) Windowed() bool {
	return s.DateParam != ""
}

// Columns returns the output columns in mapping order, enrichment last.
func (s *Spec) Columns() []string {
	cols := make([]string, 0, len(s.Fields)+1)
	for _, f := range s.Fields {
		cols = append(cols, f.Column)
	}
	if s.Enrichment != nil {
		cols = append(cols, s.Enrichment.Column)
	}
	return cols
}

// ChildSpec describes line items fetched from a link column of each parent
// record, such as the details of a document. ParentKeys copy parent columns
// into every child: Path names the parent column, Column the child column.
type ChildSpec struct {
	Name       string  `yaml:"name"`
	LinkColumn string  `yaml:"link_column"`
	ParentKeys []Field `yaml:"parent_keys"`
	Fields     []Field `yaml:"fields"`
}

// Columns returns the parent key columns followed by the child fields.
func (c *ChildSpec) Columns() []string {
	cols := make([]string, 0, len(c.ParentKeys)+len(c.Fields))
	for _, f := range c.ParentKeys {
		cols = append(cols, f.Column)
	}
	for _, f := range c.Fields {
		cols = append(cols, f.Column)
	}
	return cols
}

// Extract applies fields to one raw item. Missing paths, including nested
// objects that are absent altogether, yield nil.
func Extract(fields []Field, item gjson.Result) Record {
	rec := make(Record, len(fields))
	for _, f := range fields {
		rec[f.Column] = convert(item.Get(f.Path), f.Kind)
	}
	return rec
}

func convert(v gjson.Result, kind Kind) any {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	switch kind {
	case KindInt:
		if v.IsObject() || v.IsArray() {
			return nil
		}
		return v.Int()
	case KindDecimal:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil
		}
		return d
	case KindBool:
		if v.Type == gjson.Number {
			return v.Int() != 0
		}
		return v.Bool()
	case KindRaw:
		return v.Raw
	default:
		return v.String()
	}
}
