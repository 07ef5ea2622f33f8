package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/tscore-lang/tscore/internal/jsonast"
	"github.com/tscore-lang/tscore/internal/runtime"
	"github.com/tscore-lang/tscore/internal/task"
	"github.com/tscore-lang/tscore/pkg/tscore"
)

var tracePath string

var runAsyncCmd = &cobra.Command{
	Use:   "run-async [file]",
	Short: "Compile a JSON AST and invoke an async entry point without blocking on it",
	Long: `Like run, but drives the entry point only as far as the
single-threaded cooperative scheduler takes it synchronously and reports
the resulting task state (pending/fulfilled/rejected) instead of forcing
completion. --trace writes a small JSON document alongside the result
(the entry name, the task's final state, and its value or rejection
reason), patched field by field with sjson rather than marshaled whole.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsyncJSONProgram,
}

func init() {
	rootCmd.AddCommand(runAsyncCmd)
	runAsyncCmd.Flags().StringVar(&entryName, "entry", "main", "name of the top-level function to invoke")
	runAsyncCmd.Flags().StringVar(&tracePath, "trace", "", "write a trace document of the task's final state to this path")
}

func runAsyncJSONProgram(_ *cobra.Command, args []string) error {
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

	handle, err := compiled.RunAsync(entryName, nil)
	if err != nil {
		return fmt.Errorf("uncaught exception: %w", err)
	}

	if tracePath != "" {
		if err := writeTrace(tracePath, entryName, handle); err != nil {
			return err
		}
	}

	switch handle.State() {
	case task.Fulfilled:
		printResult(asValue(handle.Value()))
	case task.Rejected:
		return fmt.Errorf("rejected: %s", asValue(handle.Err()).String())
	default:
		fmt.Println("pending")
	}
	return nil
}

func asValue(v any) runtime.Value {
	if rv, ok := v.(runtime.Value); ok {
		return rv
	}
	return runtime.UndefinedValue
}

func writeTrace(path, entry string, h *task.Handle) error {
	doc := "{}"
	doc, err := sjson.Set(doc, "entry", entry)
	if err != nil {
		return err
	}
	doc, err = sjson.Set(doc, "state", h.State().String())
	if err != nil {
		return err
	}
	if h.IsCompleted() && h.State() == task.Fulfilled {
		doc, err = sjson.Set(doc, "value", asValue(h.Value()).String())
		if err != nil {
			return err
		}
	}
	if h.State() == task.Rejected {
		doc, err = sjson.Set(doc, "reason", asValue(h.Err()).String())
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(doc), 0644)
}
