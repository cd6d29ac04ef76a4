package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI with args. It is the entry point called from main.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "learnstream",
		Short:   "Real-time learning event stream client",
		Version: a.version,
		Long: `learnstream follows the real-time event stream of the learning platform.

It connects to the server-sent event (or WebSocket) stream, reconnects with
exponential backoff when the connection drops, and prints quiz, flashcard,
guide, notification and level-up events as they arrive. It also ships a
development server that speaks the same wire format.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "stream", Title: "Stream Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "server", Title: "Server Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.learnstream.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.StringP("format", "o", "", "output format: table, json, yaml")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("url", "", "stream URL (default api_origin + stream_path)")
	flags.String("token", "", "stream credential")

	rootCmd.SetVersionTemplate("learnstream {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand applies persistent flags before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if configFile := mustGetString(cmd, "config"); configFile != "" {
		config, err := LoadConfigFrom(configFile)
		if err != nil {
			return err
		}
		a.config = config
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
	)
	if u := mustGetString(cmd, "url"); u != "" {
		a.config.StreamURL = u
	}
	if token := mustGetString(cmd, "token"); token != "" {
		a.config.Token = token
	}

	logger := NewLogger(a.config)
	a.setLogger(&logger)
	return nil
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool panics when the flag is not defined, which is a programming error.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
