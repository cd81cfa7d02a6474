package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/core/query/translator"
	"github.com/satishbabariya/joinql/internal/ui"
)

// NewProvidersCommand creates the providers command.
func NewProvidersCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers and their SQL capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(translator.Dialects()))
			for _, d := range translator.Dialects() {
				rows = append(rows, dialectRow(d))
			}
			return ui.Table(cmd.OutOrStdout(),
				[]string{"Provider", "Parameter", "Binding", "Paging", "Joins", "Requires"}, rows)
		},
	}
}

func dialectRow(d translator.Dialect) []string {
	var joins []string
	for _, t := range []domain.JoinType{domain.InnerJoin, domain.LeftJoin, domain.RightJoin, domain.FullJoin} {
		if d.SupportsJoin(t) {
			joins = append(joins, t.String())
		}
	}

	paging := "LIMIT/OFFSET"
	if d.Paging == translator.PagingOffsetFetch {
		paging = "OFFSET/FETCH"
	}

	var requires []string
	if d.MinPagingVersion != nil {
		requires = append(requires, "paging >= "+d.MinPagingVersion.String())
	}
	if d.MinOuterJoinVersion != nil {
		requires = append(requires, "right/full join >= "+d.MinOuterJoinVersion.String())
	}

	return []string{
		d.Name,
		string(d.Sigil) + "name",
		d.Style.String(),
		paging,
		strings.Join(joins, ", "),
		strings.Join(requires, "; "),
	}
}
