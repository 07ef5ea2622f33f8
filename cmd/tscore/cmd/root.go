// Package cmd implements the tscore CLI: cobra subcommands over the
// compiled core.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "tscore",
	Short: "tscore runs a compiled TypeScript-subset program",
	Long: `tscore is the CLI for the tscore compiler/runtime core.

The core takes a JSON-encoded AST (the wire format a real TypeScript front
end would hand it — parsing source text is out of scope here) and runs it:
classes are registered, async methods are lowered to state machines, and
the single-threaded task runtime drives any Promise-returning entry point
to completion.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("tscore version {{.Version}}\nCommit: %s\n", GitCommit))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
