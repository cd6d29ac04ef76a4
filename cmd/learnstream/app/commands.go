package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/learnstream/cmd/learnstream/cmd/emit"
	"github.com/agentstation/learnstream/cmd/learnstream/cmd/man"
	"github.com/agentstation/learnstream/cmd/learnstream/cmd/serve"
	"github.com/agentstation/learnstream/cmd/learnstream/cmd/types"
	"github.com/agentstation/learnstream/cmd/learnstream/cmd/watch"
	"github.com/agentstation/learnstream/internal/cmd/output"
	"github.com/agentstation/learnstream/internal/server"
)

func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(watch.NewCommand(a))
	rootCmd.AddCommand(emit.NewCommand(a))
	rootCmd.AddCommand(types.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a, a.serverDefaults))
	rootCmd.AddCommand(a.NewVersionCommand())
	rootCmd.AddCommand(man.NewCommand())
}

// serverDefaults seeds the serve command flags from configuration. It is
// called when the command runs, after config files and flags are applied.
func (a *App) serverDefaults() server.Config {
	cfg := server.DefaultConfig()
	if a.config.ServerPort != 0 {
		cfg.Port = a.config.ServerPort
	}
	cfg.AuthToken = a.config.ServerToken
	return cfg
}

// VersionInfo is the output shape of the version command.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	BuiltBy string `json:"built_by"`
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.config.Format == "" {
				cmd.Printf("learnstream %s\n", a.version)
				if a.config.Verbose {
					cmd.Printf("  commit:   %s\n", a.commit)
					cmd.Printf("  built:    %s\n", a.date)
					cmd.Printf("  built by: %s\n", a.builtBy)
				}
				return nil
			}
			format, err := output.ParseFormat(a.config.Format)
			if err != nil {
				return err
			}
			info := VersionInfo{Version: a.version, Commit: a.commit, Date: a.date, BuiltBy: a.builtBy}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), info)
		},
	}
}
