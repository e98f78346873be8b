package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Enfiniq/loomcal-sub000/internal/config"
	"github.com/Enfiniq/loomcal-sub000/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Chat string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve chat commands read from standard input",
		Long: `Read one chat message per line from standard input, handle each in order
and write the replies to standard output. The loop ends at end of input or
on Ctrl-C.

With --config, edits to the settings file change the log level without a
restart.

Example:
  loomcal run --db ./loomcal.db --user alice
  printf '/create Gym -rt 10 70\n/get\n' | loomcal run --db /tmp/test.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Chat, "chat", "cli", "chat id replies are addressed to")

	return cmd
}

// lineReplier writes each reply to w, separated by blank lines.
type lineReplier struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *lineReplier) Reply(_ context.Context, _ string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintf(r.w, "%s\n\n", text)
	return err
}

func runChat(opts *RunOptions, cmd *cobra.Command) error {
	settings, err := opts.Settings()
	if err != nil {
		return err
	}
	now, err := opts.Clock()
	if err != nil {
		return err
	}
	logger := opts.Logger(cmd.ErrOrStderr(), settings)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	logger.Info("opening database", "path", settings.Database, "postgres", settings.Postgres())
	st, err := openStore(ctx, settings, now)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	eng := newEngine(st, settings, now, logger, &lineReplier{w: cmd.OutOrStdout()})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.Config != "" && !opts.Verbose {
		go func() {
			err := config.Watch(ctx, opts.Config, logger, func(s config.Settings) {
				config.ApplyLevel(opts.level, s)
			})
			if err != nil {
				logger.Warn("settings watch stopped", "error", err)
			}
		}()
	}

	go readMessages(cmd.InOrStdin(), eng, opts.Chat, settings.DefaultUser)

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	logger.Info("engine stopped gracefully", "handled", eng.Handled())
	return nil
}

// readMessages enqueues one message per non-blank line and stops the
// engine at end of input.
func readMessages(r io.Reader, eng *engine.Engine, chat, user string) {
	defer eng.Stop()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !eng.Enqueue(engine.Message{ChatID: chat, User: user, Text: line}) {
			return
		}
	}
}
