package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Enfiniq/loomcal-sub000/internal/compiler"
	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// Engine turns chat messages into event store requests and replies.
//
// Messages are handled one at a time, in arrival order, by the Run loop.
// Handle may also be called directly for one-shot use (the CLI exec
// command and tests).
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Handle(): safe from any goroutine when the executors are
type Engine struct {
	compiler *compiler.Compiler
	local    Executor
	configs  ConfigStore
	remote   RemoteFactory
	replier  Replier
	botName  string
	queue    *messageQueue
	ids      IDGenerator
	logger   *slog.Logger
	handled  atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithCompiler replaces the default compiler (wall clock, embedded
// vocabulary).
func WithCompiler(c *compiler.Compiler) Option {
	return func(e *Engine) {
		e.compiler = c
	}
}

// WithExecutor sets the local event store used by users without a
// remote configuration.
func WithExecutor(x Executor) Option {
	return func(e *Engine) {
		e.local = x
	}
}

// WithConfigStore enables /config and per-user remote stores.
func WithConfigStore(c ConfigStore) Option {
	return func(e *Engine) {
		e.configs = c
	}
}

// WithRemote replaces how remote executors are built.
func WithRemote(f RemoteFactory) Option {
	return func(e *Engine) {
		e.remote = f
	}
}

// WithReplier sets where the Run loop sends replies.
func WithReplier(r Replier) Option {
	return func(e *Engine) {
		e.replier = r
	}
}

// WithBotName makes the engine ignore /name@bot commands addressed to
// another bot. Matching is case-insensitive.
func WithBotName(name string) Option {
	return func(e *Engine) {
		e.botName = name
	}
}

// WithIDGenerator replaces the UUIDv7 request id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		queue:  newMessageQueue(),
		remote: defaultRemote,
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.compiler == nil {
		e.compiler = compiler.New()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Reply is the outcome of one handled message.
type Reply struct {
	RequestID string
	ChatID    string
	Command   string

	// Text is what the user sees.
	Text string

	// Request is the compiled request, when there was one.
	Request *ir.Request

	// Result is what the event store returned, when it was reached.
	Result *ir.Result

	// Err is a *compiler.StructuralError or *RuntimeError.
	Err error
}

// Enqueue submits a message for the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(m Message) bool {
	return e.queue.Enqueue(m)
}

// Handled returns the number of messages handled so far.
func (e *Engine) Handled() int64 {
	return e.handled.Load()
}

// Run handles queued messages until ctx is cancelled or Stop is called.
// Messages still queued at Stop are handled before Run returns.
//
// A failed message is logged and answered; it never stops the loop.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		msg, ok := e.queue.TryDequeue()
		if ok {
			reply := e.Handle(ctx, msg)
			e.deliver(ctx, reply)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed with the queue, so this fires
			// immediately once stopped.
			if e.queue.Len() == 0 && e.queue.isClosed() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue, which makes Run return once it is drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) deliver(ctx context.Context, r Reply) {
	if e.replier == nil || r.Text == "" {
		return
	}
	if err := e.replier.Reply(ctx, r.ChatID, r.Text); err != nil {
		e.logger.Error("reply failed",
			"request", r.RequestID,
			"chat", r.ChatID,
			"error", err,
		)
	}
}

// Handle compiles and executes one message and returns the reply.
func (e *Engine) Handle(ctx context.Context, msg Message) Reply {
	start := time.Now()
	r := Reply{RequestID: e.ids.Generate(), ChatID: msg.ChatID}

	name, bot, body, ok := compiler.SplitAddressed(msg.Text)
	switch {
	case !ok:
		r.Text = notACommandText
	case !e.addressedToUs(bot):
		// another bot's command; no reply
	case name == "help" || name == "start":
		r.Command = name
		r.Text = helpText
	case name == "config":
		r.Command = name
		e.handleConfig(ctx, &r, msg.User, body)
	case ir.ValidCommands[ir.Command(name)]:
		r.Command = name
		e.handleRequest(ctx, &r, msg.User, ir.Command(name), body)
	default:
		r.Command = name
		e.handleUnknown(&r, name)
	}

	e.handled.Add(1)
	e.logHandled(msg, r, time.Since(start))
	return r
}

func (e *Engine) addressedToUs(bot string) bool {
	return bot == "" || e.botName == "" || strings.EqualFold(bot, e.botName)
}

func (e *Engine) handleRequest(ctx context.Context, r *Reply, user string, cmd ir.Command, body string) {
	req, err := e.compiler.Compile(cmd, body)
	if err != nil {
		r.Err = err
		r.Text = structuralText(err)
		return
	}
	r.Request = req

	x, err := e.executorFor(ctx, r.RequestID, user)
	if err != nil {
		r.Err = err
		r.Text = unavailableText
		return
	}

	res, err := x.Execute(ctx, user, req)
	if err != nil {
		r.Err = newExecutionError(r.RequestID, string(cmd), err)
		r.Text = executionText(err)
		return
	}
	r.Result = &res
	r.Text = resultText(cmd, res)
}

// handleConfig shows the stored configuration for an empty body and
// merges the given flags over it otherwise.
func (e *Engine) handleConfig(ctx context.Context, r *Reply, user, body string) {
	if e.configs == nil {
		r.Err = &RuntimeError{
			Code:      ErrCodeNoExecutor,
			Message:   "no configuration store",
			RequestID: r.RequestID,
			Command:   "config",
		}
		r.Text = unavailableText
		return
	}
	if user == "" {
		r.Err = newConfigError(r.RequestID, errors.New("message has no sender"))
		r.Text = "Configuration is kept per user, and this message has no sender."
		return
	}

	current, err := e.configs.LoadConfig(ctx, user)
	if err != nil {
		r.Err = newConfigError(r.RequestID, err)
		r.Text = unavailableText
		return
	}
	if body == "" {
		r.Text = configText("Current configuration", current)
		return
	}

	given, err := e.compiler.CompileConfig(body)
	if err != nil {
		r.Err = err
		r.Text = structuralText(err)
		return
	}
	merged := current.Merge(given)
	if err := e.configs.SaveConfig(ctx, user, merged); err != nil {
		r.Err = newConfigError(r.RequestID, err)
		r.Text = unavailableText
		return
	}
	r.Text = configText("Configuration saved", merged)
}

func (e *Engine) handleUnknown(r *Reply, name string) {
	suggestions := suggestCommands(name, e.compiler.Tables().Commands)
	r.Err = &compiler.StructuralError{
		Code:    compiler.ErrCodeUnknownCommand,
		Message: fmt.Sprintf("unknown command /%s", name),
		Details: map[string]string{"command": name},
	}
	r.Text = unknownCommandText(name, suggestions)
}

// logHandled writes the one record every message gets.
func (e *Engine) logHandled(msg Message, r Reply, d time.Duration) {
	attrs := []any{
		"request", r.RequestID,
		"chat", msg.ChatID,
		"user", msg.User,
		"command", r.Command,
		"outcome", outcome(r),
		"duration", d,
	}
	if r.Result != nil {
		attrs = append(attrs, "affected", r.Result.Affected)
	}

	var re *RuntimeError
	switch {
	case errors.As(r.Err, &re):
		e.logger.Error("message failed", append(attrs, "code", string(re.Code), "error", r.Err)...)
	case r.Err != nil:
		e.logger.Info("message rejected", append(attrs, "code", string(compiler.Code(r.Err)))...)
	default:
		e.logger.Info("message handled", attrs...)
	}
}

func outcome(r Reply) string {
	switch {
	case r.Command == "":
		return "ignored"
	case IsRuntimeError(r.Err):
		return "failed"
	case r.Err != nil:
		return "rejected"
	default:
		return "ok"
	}
}
