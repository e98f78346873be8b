package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Enfiniq/loomcal-sub000/internal/compiler"
	"github.com/Enfiniq/loomcal-sub000/internal/engine"
	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/store"
	"github.com/Enfiniq/loomcal-sub000/internal/testutil"
)

// errRemoteUnreachable answers requests a scenario routes to a remote
// event store.
var errRemoteUnreachable = errors.New("remote event stores are not reachable from scenarios")

type unreachable struct{}

func (unreachable) Execute(context.Context, string, *ir.Request) (ir.Result, error) {
	return ir.Result{}, errRemoteUnreachable
}

// Harness runs one scenario.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	clock  *testutil.FixedClock
}

// Run executes a scenario in a fresh in-memory store and returns the
// result. The error is non-nil only when the scenario could not run at all;
// failed expectations are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	start, err := scenario.Start()
	if err != nil {
		return nil, err
	}
	clock := testutil.NewFixedClock(start)
	eventIDs := testutil.NewSequenceIDs("evt")

	st, err := store.Open(":memory:",
		store.WithClock(clock.Now),
		store.WithIDGenerator(eventIDs.Generate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store: st,
		clock: clock,
		engine: engine.New(
			engine.WithCompiler(compiler.New(compiler.WithClock(clock.Now))),
			engine.WithExecutor(st),
			engine.WithConfigStore(st),
			engine.WithRemote(func(ir.UserConfig) engine.Executor { return unreachable{} }),
			engine.WithIDGenerator(testutil.NewSequenceIDs("req")),
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		),
	}

	ctx := context.Background()
	result := NewResult()
	if err := h.executeSteps(ctx, scenario, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) executeSteps(ctx context.Context, scenario *Scenario, result *Result) error {
	for i, step := range scenario.Steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			h.clock.Advance(d)
		}
		if step.Send == "" {
			continue
		}

		user := scenario.sender(step)
		reply := h.engine.Handle(ctx, engine.Message{ChatID: "scenario", User: user, Text: step.Send})

		ev := TraceEvent{
			Step:    i,
			At:      compiler.FormatISO(h.clock.Now()),
			User:    user,
			Send:    step.Send,
			Command: reply.Command,
			Reply:   reply.Text,
			Error:   errorCode(reply.Err),
			Request: reply.Request,
		}
		if reply.Result != nil {
			ev.IDs = reply.Result.IDs
			ev.Affected = reply.Result.Affected
		}
		result.Trace = append(result.Trace, ev)

		if step.Expect != nil {
			for _, msg := range checkExpect(ev, step.Expect) {
				result.AddError(fmt.Sprintf("steps[%d] %q: %s", i, step.Send, msg))
			}
		}
	}
	return nil
}

// errorCode returns the code of a structural or runtime error.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if code := compiler.Code(err); code != "" {
		return string(code)
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return "UNKNOWN"
}

// checkExpect compares a handled step with its expectation.
func checkExpect(ev TraceEvent, exp *Expect) []string {
	var errs []string

	if exp.Reply != "" && ev.Reply != exp.Reply {
		errs = append(errs, fmt.Sprintf("reply: want %q, got %q", exp.Reply, ev.Reply))
	}
	for _, s := range exp.Contains {
		if !strings.Contains(ev.Reply, s) {
			errs = append(errs, fmt.Sprintf("reply %q does not contain %q", ev.Reply, s))
		}
	}

	switch {
	case exp.Error == ErrorNone && ev.Error != "":
		errs = append(errs, fmt.Sprintf("error: want none, got %s", ev.Error))
	case exp.Error != "" && exp.Error != ErrorNone && ev.Error != exp.Error:
		errs = append(errs, fmt.Sprintf("error: want %s, got %q", exp.Error, ev.Error))
	}

	if exp.IDs != nil && !slices.Equal(exp.IDs, ev.IDs) {
		errs = append(errs, fmt.Sprintf("ids: want %v, got %v", exp.IDs, ev.IDs))
	}
	if exp.Affected != nil && *exp.Affected != ev.Affected {
		errs = append(errs, fmt.Sprintf("affected: want %d, got %d", *exp.Affected, ev.Affected))
	}

	if exp.Request != nil {
		if ev.Request == nil {
			errs = append(errs, "request: nothing was compiled")
		} else {
			diffs, err := subsetDiff(exp.Request, ev.Request)
			if err != nil {
				errs = append(errs, fmt.Sprintf("request: %v", err))
			}
			for _, d := range diffs {
				errs = append(errs, "request"+d)
			}
		}
	}
	return errs
}
