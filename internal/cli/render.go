package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/joinql/internal/adapters/database/providers"
	"github.com/satishbabariya/joinql/internal/core/query/domain"
	"github.com/satishbabariya/joinql/internal/debug"
	"github.com/satishbabariya/joinql/internal/queryfile"
	"github.com/satishbabariya/joinql/internal/ui"
	"github.com/satishbabariya/joinql/internal/watch"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions

	Provider      string
	Uppercase     bool
	ServerVersion string
	Watch         bool
	Markdown      bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(root *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "render <query.yaml>",
		Short: "Translate a query file to SQL",
		Long: `Translate a yaml query file to the SQL text and parameters of a provider.

The provider comes from --provider, then the query file, then configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			render := func() error {
				return runRender(cmd, opts, args[0])
			}
			if !opts.Watch {
				return render()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchRender(ctx, cmd, args[0], render)
		},
	}

	cmd.Flags().StringVarP(&opts.Provider, "provider", "p", "", "provider (oracle|postgres|mysql|sqlite)")
	cmd.Flags().BoolVar(&opts.Uppercase, "uppercase", false, "fold identifiers to upper case (oracle)")
	cmd.Flags().StringVar(&opts.ServerVersion, "server-version", "", "database server version for capability checks")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-render when the query file changes")
	cmd.Flags().BoolVar(&opts.Markdown, "markdown", false, "render a markdown report")

	return cmd
}

func watchRender(ctx context.Context, cmd *cobra.Command, path string, render func() error) error {
	w, err := watch.New(path, 0, func() error {
		if err := render(); err != nil {
			ui.Error(cmd.ErrOrStderr(), "%v", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	ui.Success(cmd.ErrOrStderr(), "watching %s", path)
	return w.Run(ctx)
}

func runRender(cmd *cobra.Command, opts *RenderOptions, path string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	file, err := queryfile.Load(opts.Fs, path)
	if err != nil {
		return err
	}

	db := cfg.ToDatabase()
	switch {
	case cmd.Flags().Changed("provider"):
		db.Provider = opts.Provider
	case file.Provider != "":
		db.Provider = file.Provider
	}
	if cmd.Flags().Changed("uppercase") {
		db.ConvertToUppercase = opts.Uppercase
	}
	if cmd.Flags().Changed("server-version") {
		db.ServerVersion = opts.ServerVersion
	}

	key, err := providers.Normalize(db.Provider)
	if err != nil {
		return err
	}
	if db.ConvertToUppercase && key != providers.KeyOracle {
		ui.Warning(cmd.ErrOrStderr(), "--uppercase only applies to oracle")
	}

	tr, err := providers.Translator(db)
	if err != nil {
		return err
	}
	selectCmd, err := file.Build()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	info, err := tr.Translate(selectCmd)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	dialect := tr.Dialect()
	debug.Debug("rendered query", "file", path, "provider", dialect.Name, "parameters", len(info.Parameters))
	out := cmd.OutOrStdout()
	if opts.Markdown {
		return ui.Markdown(out, ui.CommandMarkdown(path, dialect.Name, info))
	}
	return printCommand(out, dialect.Name, dialect.Sigil, info)
}

func printCommand(w io.Writer, provider string, sigil byte, info *domain.CommandInfo) error {
	ui.Section(w, fmt.Sprintf("%s (%s binding)", provider, info.Style))
	fmt.Fprintln(w, ui.HighlightSQL(info.Text, sigil))
	if len(info.Parameters) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return ui.Table(w, []string{"Name", "Type", "Value"}, ui.ParameterRows(info.Parameters))
}
