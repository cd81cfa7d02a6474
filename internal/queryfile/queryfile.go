// Package queryfile reads join queries described in yaml:
//
//	entities:
//	  - name: User
//	    table: Users
//	    fields:
//	      - {name: Id, type: int, key: true}
//	      - {name: CityId, type: int}
//	  - name: City
//	    table: Cities
//	    fields:
//	      - {name: Id, type: int, key: true}
//	      - {name: Name, type: string}
//	symbols:
//	  - {name: user, entity: User}
//	  - {name: city, entity: City}
//	join: [Left, "user.CityId == city.Id"]
//	where: ["city.Name != $name"]
//	vars: {name: Oslo}
//	order:
//	  - {key: city.Name, desc: true}
//	skip: 10
//	take: 5
package queryfile

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/expr"
	"github.com/satishbabariya/joinql/internal/core/query/exprparse"
	"github.com/satishbabariya/joinql/internal/core/query/lowering"
	"github.com/satishbabariya/joinql/internal/core/schema"
)

// File is a parsed query file.
type File struct {
	// Provider optionally overrides the configured provider.
	Provider string              `yaml:"provider,omitempty"`
	Entities []schema.EntityMeta `yaml:"entities"`
	Symbols  []Symbol            `yaml:"symbols"`
	Join     []string            `yaml:"join"`
	Where    []string            `yaml:"where,omitempty"`
	Vars     map[string]any      `yaml:"vars,omitempty"`
	Order    []Order             `yaml:"order,omitempty"`
	Skip     *int                `yaml:"skip,omitempty"`
	Take     *int                `yaml:"take,omitempty"`
}

// Symbol declares a query entity.
type Symbol struct {
	Name   string `yaml:"name"`
	Entity string `yaml:"entity"`
}

// Order is one ordering key.
type Order struct {
	Key  string `yaml:"key"`
	Desc bool   `yaml:"desc,omitempty"`
}

// Load reads and decodes path. Unknown keys are rejected.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a query file.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode query file: %w", err)
	}
	if len(f.Symbols) == 0 {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "query file declares no symbols")
	}
	return &f, nil
}

// Registry builds the metadata registry of the file's entities.
func (f *File) Registry() (*schema.MetadataRegistry, error) {
	r := schema.NewMetadataRegistry()
	for _, e := range f.Entities {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Build resolves the joins and lowers the query to a select command.
func (f *File) Build() (*domain.SelectCommand, error) {
	registry, err := f.Registry()
	if err != nil {
		return nil, err
	}

	symbols := make([]*expr.Symbol, len(f.Symbols))
	for i, s := range f.Symbols {
		if _, err := registry.GetEntity(s.Entity); err != nil {
			return nil, fmt.Errorf("symbol %s: %w", s.Name, err)
		}
		symbols[i] = expr.NewSymbol(s.Name, s.Entity)
	}
	scope := exprparse.Scope{Symbols: symbols, Vars: f.Vars, Fields: registry}

	spec, err := exprparse.ParseJoinSpec(f.Join, scope)
	if err != nil {
		return nil, err
	}
	q, err := lowering.FromSpec(spec)
	if err != nil {
		return nil, err
	}

	for _, text := range f.Where {
		pred, err := exprparse.ParseLambda(text, scope)
		if err != nil {
			return nil, err
		}
		q.Where = append(q.Where, pred)
	}
	for _, o := range f.Order {
		key, err := exprparse.ParseLambda(o.Key, scope)
		if err != nil {
			return nil, err
		}
		q.OrderBy = append(q.OrderBy, lowering.OrderKey{Key: key, Desc: o.Desc})
	}
	q.Skip, q.Take = f.Skip, f.Take

	return lowering.New(registry).Lower(q)
}
