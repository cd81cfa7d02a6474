package database

import (
	"context"
	"fmt"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
)

// BaseProvider implements Provider from a connection factory, a translator
// and an argument shim. Backend packages embed it.
type BaseProvider struct {
	name       string
	factory    ConnectionFactory
	translator *translator.SQLTranslator
	sigil      byte
	style      domain.BindStyle
	shim       ArgShim
}

var _ Provider = (*BaseProvider)(nil)

// NewBaseProvider creates a BaseProvider.
func NewBaseProvider(name string, factory ConnectionFactory, tr *translator.SQLTranslator, shim ArgShim) (*BaseProvider, error) {
	if factory == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "%s: connection factory is nil", name)
	}
	if tr == nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, nil, "%s: translator is nil", name)
	}
	d := tr.Dialect()
	return &BaseProvider{
		name:       name,
		factory:    factory,
		translator: tr,
		sigil:      d.Sigil,
		style:      d.Style,
		shim:       shim,
	}, nil
}

// Name implements Provider.
func (p *BaseProvider) Name() string { return p.name }

// CreateConnection implements Provider.
func (p *BaseProvider) CreateConnection(ctx context.Context) (Connection, error) {
	conn, err := p.factory.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: create connection: %w", p.name, err)
	}
	return Decorate(conn, p.name, p.shim), nil
}

// CreateTranslator implements Provider.
func (p *BaseProvider) CreateTranslator() translator.Translator { return p.translator }

// SQLTranslator returns the concrete translator.
func (p *BaseProvider) SQLTranslator() *translator.SQLTranslator { return p.translator }

// FormatParameterName implements Provider.
func (p *BaseProvider) FormatParameterName(name string) (string, error) {
	return domain.FormatParameterName(p.sigil, name)
}

// BindStyle implements Provider.
func (p *BaseProvider) BindStyle() domain.BindStyle { return p.style }

// Sigil implements Provider.
func (p *BaseProvider) Sigil() byte { return p.sigil }
