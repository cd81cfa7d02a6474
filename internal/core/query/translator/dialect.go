package translator

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	version "github.com/hashicorp/go-version"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
)

// PagingStyle selects how skip/take are rendered.
type PagingStyle int

const (
	// PagingLimitOffset renders LIMIT n OFFSET m.
	PagingLimitOffset PagingStyle = iota
	// PagingOffsetFetch renders OFFSET m ROWS FETCH NEXT n ROWS ONLY.
	PagingOffsetFetch
)

// Dialect holds the rendering rules of one database family. Values are
// copied into a translator at construction and never mutated afterwards.
type Dialect struct {
	Name       string
	OpenQuote  string
	CloseQuote string
	// FoldUpper renders identifiers in upper case.
	FoldUpper bool
	// Sigil prefixes parameter names.
	Sigil byte
	Style domain.BindStyle
	// Placeholder rewrites ? markers for positional dialects.
	Placeholder sq.PlaceholderFormat
	// TableAliasAS emits AS between a table and its alias.
	TableAliasAS bool
	// BoolAsInt renders boolean literals as 1 and 0.
	BoolAsInt bool
	Paging    PagingStyle
	// UnboundedLimit is the LIMIT used when only an offset is given. Empty
	// means OFFSET may appear on its own.
	UnboundedLimit string
	// ModFunc renders % as MOD(a, b).
	ModFunc bool
	// NoJoins lists join types the dialect cannot render at any version.
	NoJoins []domain.JoinType

	// Version gates. A nil ServerVersion assumes a current server.
	ServerVersion       *version.Version
	MinPagingVersion    *version.Version
	MinOuterJoinVersion *version.Version
}

// Built-in dialects.
var (
	Oracle = Dialect{
		Name:             "Oracle",
		OpenQuote:        `"`,
		CloseQuote:       `"`,
		Sigil:            ':',
		Style:            domain.Named,
		BoolAsInt:        true,
		Paging:           PagingOffsetFetch,
		ModFunc:          true,
		MinPagingVersion: version.Must(version.NewVersion("12.1")),
	}

	PostgreSQL = Dialect{
		Name:         "PostgreSQL",
		OpenQuote:    `"`,
		CloseQuote:   `"`,
		Sigil:        '$',
		Style:        domain.Positional,
		Placeholder:  sq.Dollar,
		TableAliasAS: true,
		Paging:       PagingLimitOffset,
	}

	MySQL = Dialect{
		Name:           "MySQL",
		OpenQuote:      "`",
		CloseQuote:     "`",
		Sigil:          '?',
		Style:          domain.Positional,
		Placeholder:    sq.Question,
		TableAliasAS:   true,
		Paging:         PagingLimitOffset,
		UnboundedLimit: "18446744073709551615",
		NoJoins:        []domain.JoinType{domain.FullJoin},
	}

	SQLite = Dialect{
		Name:                "SQLite",
		OpenQuote:           `"`,
		CloseQuote:          `"`,
		Sigil:               '@',
		Style:               domain.Named,
		TableAliasAS:        true,
		BoolAsInt:           true,
		Paging:              PagingLimitOffset,
		UnboundedLimit:      "-1",
		MinOuterJoinVersion: version.Must(version.NewVersion("3.39.0")),
	}
)

// Dialects lists the built-in dialects.
func Dialects() []Dialect {
	return []Dialect{Oracle, PostgreSQL, MySQL, SQLite}
}

// Option adjusts a dialect before a translator is built from it.
type Option func(*Dialect) error

// WithUppercase sets identifier case folding.
func WithUppercase(upper bool) Option {
	return func(d *Dialect) error {
		d.FoldUpper = upper
		return nil
	}
}

// WithServerVersion sets the server version used by capability gates.
// An empty string leaves the version unset.
func WithServerVersion(v string) Option {
	return func(d *Dialect) error {
		if v == "" {
			d.ServerVersion = nil
			return nil
		}
		parsed, err := version.NewVersion(v)
		if err != nil {
			return fmt.Errorf("%s server version %q: %w", d.Name, v, err)
		}
		d.ServerVersion = parsed
		return nil
	}
}

// SupportsJoin reports whether the dialect can render t.
func (d Dialect) SupportsJoin(t domain.JoinType) bool {
	for _, j := range d.NoJoins {
		if j == t {
			return false
		}
	}
	if t == domain.RightJoin || t == domain.FullJoin {
		return d.atLeast(d.MinOuterJoinVersion)
	}
	return true
}

// SupportsPaging reports whether the dialect can render skip/take.
func (d Dialect) SupportsPaging() bool {
	return d.atLeast(d.MinPagingVersion)
}

func (d Dialect) atLeast(min *version.Version) bool {
	if min == nil || d.ServerVersion == nil {
		return true
	}
	return d.ServerVersion.GreaterThanOrEqual(min)
}

// rewritesMarkers reports whether rendered text goes through a placeholder
// pass that numbers ? markers.
func (d Dialect) rewritesMarkers() bool {
	return d.Style == domain.Positional && d.Placeholder != nil && d.Placeholder != sq.Question
}

// FormatParameterName prefixes name with the dialect sigil.
func (d Dialect) FormatParameterName(name string) (string, error) {
	return domain.FormatParameterName(d.Sigil, name)
}
