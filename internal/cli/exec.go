package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enfiniq/loomcal-sub000/internal/compiler"
	"github.com/Enfiniq/loomcal-sub000/internal/engine"
	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// ExecResult is the JSON payload of the exec command.
type ExecResult struct {
	Command string      `json:"command,omitempty"`
	Reply   string      `json:"reply"`
	Request *ir.Request `json:"request,omitempty"`
	Result  *ir.Result  `json:"result,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <message text>",
		Short: "Handle one chat message against the event store",
		Long: `Handle one chat message the way the chat loop does and print the reply.

Exit codes:
  0 - Message handled
  1 - The event store failed the request
  2 - Command error (unreadable command, database unavailable, etc.)

Examples:
  loomcal exec --db ./loomcal.db '/create Gym -rt 10 70 -type gym'
  loomcal exec --user alice '/config -base https://events.example.com'
  loomcal exec --format json '/get -type gym'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(rootOpts, strings.Join(args, " "), cmd)
		},
	}
	return cmd
}

func runExec(opts *RootOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := opts.Settings()
	if err != nil {
		return err
	}
	now, err := opts.Clock()
	if err != nil {
		return err
	}
	logger := opts.Logger(cmd.ErrOrStderr(), settings)

	ctx := commandContext(cmd)
	st, err := openStore(ctx, settings, now)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	eng := newEngine(st, settings, now, logger, nil)
	reply := eng.Handle(ctx, engine.Message{ChatID: "cli", User: settings.DefaultUser, Text: text})

	if formatter.Format == "json" {
		if err := formatter.Encode(execResponse(reply)); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, reply.Text)
	}

	if reply.Err == nil {
		return nil
	}
	if compiler.IsStructuralError(reply.Err) {
		return WrapExitError(ExitCommandError, "command not compiled", reply.Err)
	}
	return WrapExitError(ExitFailure, "request failed", reply.Err)
}

func execResponse(r engine.Reply) CLIResponse {
	resp := CLIResponse{
		Status:    "ok",
		RequestID: r.RequestID,
		Data: ExecResult{
			Command: r.Command,
			Reply:   r.Text,
			Request: r.Request,
			Result:  r.Result,
		},
	}
	if r.Err != nil {
		resp.Status = "error"
		resp.Error = replyError(r.Err)
	}
	return resp
}

// replyError describes a structural or runtime error of a reply.
func replyError(err error) *CLIError {
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		out := &CLIError{Code: string(re.Code), Message: re.Message}
		if re.Err != nil {
			out.Details = re.Err.Error()
		}
		return out
	}
	code, message, details := describeError(err)
	return &CLIError{Code: code, Message: message, Details: details}
}
