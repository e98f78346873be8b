package engine

import (
	"context"

	"github.com/Enfiniq/loomcal-sub000/internal/client"
	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// Executor runs a compiled request against an event store.
// Implemented by *store.Store (local) and *client.Client (remote).
type Executor interface {
	Execute(ctx context.Context, user string, req *ir.Request) (ir.Result, error)
}

// ConfigStore keeps the per-user configuration written by /config.
// Implemented by *store.Store.
type ConfigStore interface {
	LoadConfig(ctx context.Context, user string) (ir.UserConfig, error)
	SaveConfig(ctx context.Context, user string, cfg ir.UserConfig) error
}

// RemoteFactory builds the executor for a user whose configuration names a
// remote event store.
type RemoteFactory func(cfg ir.UserConfig) Executor

// Replier delivers reply text to a chat.
type Replier interface {
	Reply(ctx context.Context, chatID, text string) error
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, chatID, text string) error

// Reply calls f.
func (f ReplierFunc) Reply(ctx context.Context, chatID, text string) error {
	return f(ctx, chatID, text)
}

func defaultRemote(cfg ir.UserConfig) Executor {
	return client.New(cfg)
}

// executorFor picks the event store for user: the remote store when the
// user configured one, else the local store.
func (e *Engine) executorFor(ctx context.Context, requestID, user string) (Executor, error) {
	if e.configs != nil && user != "" {
		cfg, err := e.configs.LoadConfig(ctx, user)
		if err != nil {
			return nil, newConfigError(requestID, err)
		}
		if cfg.Remote() {
			return e.remote(cfg), nil
		}
	}
	if e.local == nil {
		return nil, &RuntimeError{
			Code:      ErrCodeNoExecutor,
			Message:   "no event store configured",
			RequestID: requestID,
		}
	}
	return e.local, nil
}
