// Package oracle implements the Oracle database provider.
package oracle

import (
	"context"
	"database/sql"

	"github.com/satishbabariya/joinql/internal/adapters/database"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

// Name is the provider identity.
const Name = "Oracle"

// Translators for servers of unknown version, one per identifier casing.
var (
	translatorDefault   = translator.MustNew(translator.Oracle)
	translatorUppercase = translator.MustNew(translator.Oracle, translator.WithUppercase(true))
)

// Options configures an Oracle provider.
type Options struct {
	// ConvertToUppercase folds identifiers to upper case.
	ConvertToUppercase bool
	// ServerVersion gates OFFSET/FETCH paging when set.
	ServerVersion string
}

// Provider implements database.Provider for Oracle.
type Provider struct {
	*database.BaseProvider
	uppercase bool
}

var _ database.Provider = (*Provider)(nil)

// New creates an Oracle provider over factory.
func New(factory database.ConnectionFactory, opts Options) (*Provider, error) {
	tr, err := Translator(opts)
	if err != nil {
		return nil, err
	}
	base, err := database.NewBaseProvider(Name, factory, tr, shim)
	if err != nil {
		return nil, err
	}
	return &Provider{BaseProvider: base, uppercase: opts.ConvertToUppercase}, nil
}

// Translator returns the translator for opts.
func Translator(opts Options) (*translator.SQLTranslator, error) {
	if opts.ServerVersion == "" {
		if opts.ConvertToUppercase {
			return translatorUppercase, nil
		}
		return translatorDefault, nil
	}
	return translator.New(translator.Oracle,
		translator.WithUppercase(opts.ConvertToUppercase),
		translator.WithServerVersion(opts.ServerVersion),
	)
}

// ConvertToUppercase reports whether identifiers are folded to upper case.
func (p *Provider) ConvertToUppercase() bool { return p.uppercase }

// Open opens an Oracle pool through an externally registered driver.
func Open(ctx context.Context, cfg database.Config) (*sql.DB, error) {
	if cfg.Driver == "" {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "oracle requires database.driver to name a registered driver")
	}
	return database.Open(ctx, cfg.Driver, cfg.URL, cfg)
}

// shim maps values Oracle has no native type for: booleans become 1/0 and
// empty strings become NULL.
func shim(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		if x == "" {
			return nil
		}
	}
	return v
}
