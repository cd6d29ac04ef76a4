// Package man provides the hidden man command, which renders the CLI
// manual page.
package man

import (
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// NewCommand creates the man command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "man",
		Short:  "Generate the manual page",
		Long:   `Man writes a troff manual page for learnstream and its subcommands to stdout.`,
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			header := &doc.GenManHeader{
				Title:   "LEARNSTREAM",
				Section: "1",
				Source:  "learnstream",
				Manual:  "learnstream Manual",
			}
			return doc.GenMan(cmd.Root(), header, cmd.OutOrStdout())
		},
	}
}
