package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enfiniq/loomcal-sub000/internal/compiler"
	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// ErrCodeGeneric is reported for failures that carry no structural code.
const ErrCodeGeneric = "E_COMPILE"

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <command text>",
		Short: "Compile a chat command to a structured request",
		Long: `Compile a chat command to the structured request the event store runs.
Nothing is executed.

Examples:
  loomcal compile '/get -type gym -rt -60 0'
  loomcal compile '/update -type gym -to -title "Leg day"' --format json
  loomcal compile --now 2025-01-15T10:00:00Z -- /create Standup -rt 0 30`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the request to a file")

	return cmd
}

func runCompile(opts *CompileOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	now, err := opts.Clock()
	if err != nil {
		return err
	}

	formatter.VerboseLog("Compiling %q", text)
	req, err := compiler.New(compiler.WithClock(now)).CompileText(text)
	if err != nil {
		return outputCompileError(formatter, err)
	}

	if opts.Output != "" {
		if err := writeRequestToFile(req, opts.Output); err != nil {
			return outputCompileError(formatter, WrapExitError(ExitCommandError, "writing output file", err))
		}
		formatter.VerboseLog("Wrote request to %s", opts.Output)
	}

	if formatter.Format == "json" {
		return formatter.Success(req)
	}

	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	fmt.Fprintf(formatter.Writer, "✓ Compiled /%s\n\n%s\n", req.Command, data)
	return nil
}

// outputCompileError reports err and returns the matching exit error.
func outputCompileError(formatter *OutputFormatter, err error) error {
	code, message, details := describeError(err)
	if outErr := formatter.Error(code, message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "compilation failed", err)
}

// describeError extracts code, message and details from err.
func describeError(err error) (code, message string, details any) {
	var se *compiler.StructuralError
	if errors.As(err, &se) {
		if len(se.Details) > 0 {
			details = se.Details
		}
		return string(se.Code), se.Message, details
	}
	return ErrCodeGeneric, err.Error(), nil
}

// writeRequestToFile writes req as indented JSON.
func writeRequestToFile(req *ir.Request, filename string) error {
	data, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
