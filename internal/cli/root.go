// Package cli implements the joinql command line.
package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/joinql/internal/config"
	"github.com/satishbabariya/joinql/internal/debug"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	// Fs is the filesystem config and query files are read from.
	Fs afero.Fs
}

// loadConfig reads configuration and applies the verbose flag.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.Fs, o.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configName(cfg), err)
	}
	debug.Init(cfg.Debug || o.Verbose)
	debug.Info("configuration loaded", "file", configName(cfg), "provider", cfg.Database.Provider)
	return cfg, nil
}

func configName(cfg *config.Config) string {
	if cfg.File == "" {
		return "configuration"
	}
	return cfg.File
}

// NewRootCommand creates the root command reading from the OS filesystem.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithFs(afero.NewOsFs())
}

// NewRootCommandWithFs creates the root command over fs.
func NewRootCommandWithFs(fs afero.Fs) *cobra.Command {
	opts := &RootOptions{Fs: fs}

	cmd := &cobra.Command{
		Use:   "joinql",
		Short: "Render multi-entity join queries as provider SQL",
		Long: `joinql translates join queries described in yaml into the SQL and
parameters a database provider would execute, without connecting to a database.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: joinql.yaml in . or ~/.config/joinql)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewProvidersCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
