package entity

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chainsafe/sales-sync/pkg/syncer"
)

type mappingFile struct {
	Entities []entityDef `yaml:"entities" validate:"dive"`
}

type entityDef struct {
	Name       string              `yaml:"name" validate:"required"`
	Endpoint   string              `yaml:"endpoint" validate:"required"`
	Table      string              `yaml:"table" validate:"required"`
	Key        string              `yaml:"key"`
	DateParam  string              `yaml:"date_param" validate:"required_with=DateColumn"`
	DateColumn string              `yaml:"date_column" validate:"required_with=DateParam"`
	Params     map[string]string   `yaml:"params"`
	Fields     []syncer.Field      `yaml:"fields" validate:"required,min=1"`
	Enrichment *syncer.Enrichment  `yaml:"enrichment"`
	Children   []*syncer.ChildSpec `yaml:"children"`
}

// LoadFile reads entity definitions from a YAML mapping file.
//
//	entities:
//	  - name: quotes
//	    endpoint: quotes
//	    table: quotes
//	    fields:
//	      - {column: quote_id, path: id, kind: int}
func LoadFile(path string) ([]*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates entity definitions.
func Parse(data []byte) ([]*Spec, error) {
	var file mappingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode mapping file: %w", err)
	}
	if err := validator.New().Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid mapping file: %w", err)
	}

	specs := make([]*Spec, 0, len(file.Entities))
	for _, def := range file.Entities {
		spec := &Spec{
			Spec: syncer.Spec{
				Name:       def.Name,
				Endpoint:   def.Endpoint,
				DateParam:  def.DateParam,
				Params:     def.Params,
				Fields:     def.Fields,
				Enrichment: def.Enrichment,
			},
			Table:      def.Table,
			Key:        def.Key,
			DateColumn: def.DateColumn,
			Children:   def.Children,
		}
		if err := Validate(spec); err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Validate checks that a spec references only columns it defines.
func Validate(s *Spec) error {
	cols := make(map[string]struct{}, len(s.Fields))
	for _, fd := range s.Fields {
		if fd.Column == "" || fd.Path == "" {
			return fmt.Errorf("%s: field needs both column and path", s.Name)
		}
		if !fd.Kind.Valid() {
			return fmt.Errorf("%s: field %s has unknown kind %q", s.Name, fd.Column, fd.Kind)
		}
		if _, dup := cols[fd.Column]; dup {
			return fmt.Errorf("%s: duplicate column %s", s.Name, fd.Column)
		}
		cols[fd.Column] = struct{}{}
	}

	if s.Key != "" {
		if _, ok := cols[s.Key]; !ok {
			return fmt.Errorf("%s: key column %s is not mapped", s.Name, s.Key)
		}
	}
	if s.DateColumn != "" {
		if _, ok := cols[s.DateColumn]; !ok {
			return fmt.Errorf("%s: date column %s is not mapped", s.Name, s.DateColumn)
		}
	}
	if e := s.Enrichment; e != nil {
		if e.Column == "" {
			return fmt.Errorf("%s: enrichment needs a column", s.Name)
		}
		if _, ok := cols[e.SourceColumn]; !ok {
			return fmt.Errorf("%s: enrichment source %s is not mapped", s.Name, e.SourceColumn)
		}
	}
	for _, c := range s.Children {
		if c.Name == "" || len(c.Fields) == 0 {
			return errors.New(s.Name + ": child needs a name and fields")
		}
		if _, ok := cols[c.LinkColumn]; !ok {
			return fmt.Errorf("%s: child link %s is not mapped", s.Name, c.LinkColumn)
		}
		for _, k := range c.ParentKeys {
			if _, ok := cols[k.Path]; !ok {
				return fmt.Errorf("%s: child key %s is not mapped", s.Name, k.Path)
			}
		}
	}
	return nil
}
