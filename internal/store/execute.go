package store

import (
	"context"
	"fmt"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// Execute runs a compiled request on behalf of user.
func (s *Store) Execute(ctx context.Context, user string, req *ir.Request) (ir.Result, error) {
	if req == nil {
		return ir.Result{}, &Error{Op: "execute", Err: fmt.Errorf("nil request")}
	}

	switch req.Command {
	case ir.CmdCreate:
		opts, _ := req.Options.(ir.CreateOptions)
		return s.CreateEvent(ctx, user, req.Event, opts)
	case ir.CmdGet:
		return s.GetEvents(ctx, user, req.Target, queryOptions(req.Options))
	case ir.CmdUpdate:
		return s.UpdateEvents(ctx, user, req.Target, req.Updates, queryOptions(req.Options))
	case ir.CmdDelete:
		return s.DeleteEvents(ctx, user, req.Target, queryOptions(req.Options))
	default:
		return ir.Result{}, &Error{Op: "execute", Err: fmt.Errorf("unknown command %q", req.Command)}
	}
}

// GetEvents returns the events target selects.
func (s *Store) GetEvents(ctx context.Context, user string, target ir.Map, opts ir.QueryOptions) (ir.Result, error) {
	owner, err := ownerFor(user, opts.IsSigned)
	if err != nil {
		return ir.Result{}, opError("get", err)
	}
	rows, err := s.ReadEvents(ctx, target, owner, opts.Paging)
	if err != nil {
		return ir.Result{}, opError("get", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if id, ok := r["id"].(ir.Str); ok {
			ids = append(ids, string(id))
		}
	}
	return ir.Result{OK: true, Message: "found", IDs: ids, Rows: rows, Affected: int64(len(rows))}, nil
}

// queryOptions reads get/update/delete options. Requests built by hand may
// carry none, which reads as "everything, oldest first".
func queryOptions(o ir.Options) ir.QueryOptions {
	switch v := o.(type) {
	case ir.QueryOptions:
		return v
	case ir.CreateOptions:
		return ir.QueryOptions{Paging: v.Paging, IsSigned: v.IsSigned.Check}
	default:
		return ir.QueryOptions{Paging: ir.Paging{Limit: -1, SortBy: "createdAt", SortOrder: ir.SortAsc}}
	}
}
