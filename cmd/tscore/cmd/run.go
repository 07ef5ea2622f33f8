package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tscore-lang/tscore/internal/jsonast"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/pkg/tscore"
)

var entryName string

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Compile a JSON AST and invoke an entry point synchronously",
	Long: `Read a JSON-encoded program (from a file, or stdin if no file is
given), compile it, and invoke the named entry point. If the entry point is
async, run prints the fulfilled value of its task, or reports the
rejection's message and exits non-zero; a task still pending when the call
returns is reported as an error rather than waited on.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJSONProgram,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&entryName, "entry", "main", "name of the top-level function to invoke")
}

func readInput(args []string) ([]byte, string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return data, args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, "<stdin>", nil
}

func runJSONProgram(_ *cobra.Command, args []string) error {
	data, source, err := readInput(args)
	if err != nil {
		return err
	}

	program, err := jsonast.Load(data)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	compiled, err := tscore.Compile(program)
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "invoking %q from %s\n", entryName, source)
	}

	result, err := compiled.Invoke(entryName, nil)
	if err != nil {
		return fmt.Errorf("uncaught exception: %w", err)
	}

	printResult(result)
	return nil
}

func printResult(v runtime.Value) {
	if v == nil {
		fmt.Println("undefined")
		return
	}
	fmt.Println(v.String())
}
