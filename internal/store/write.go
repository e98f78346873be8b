package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// CreateEvent inserts event on behalf of user.
//
// A signed create stamps user as the owner; depending on opts.IsSigned it
// registers unknown users or rejects them. With an active saving rule, an
// event by the same owner whose uniqueness fields match (the whole document
// when no fields are listed) and that was created inside the window is a
// duplicate: it is ignored, updated in place, or reported as ErrDuplicate.
func (s *Store) CreateEvent(ctx context.Context, user string, event ir.Map, opts ir.CreateOptions) (ir.Result, error) {
	res, err := s.createEvent(ctx, user, event, opts)
	return res, opError("create", err)
}

func (s *Store) createEvent(ctx context.Context, user string, event ir.Map, opts ir.CreateOptions) (ir.Result, error) {
	owner := ""
	if opts.IsSigned.Check {
		if user == "" {
			return ir.Result{}, ErrNoUser
		}
		owner = user
	}

	doc := storedDoc(event)
	docJSON, err := marshalDoc(doc)
	if err != nil {
		return ir.Result{}, err
	}
	fp, err := ir.Fingerprint(doc, nil)
	if err != nil {
		return ir.Result{}, err
	}
	now := s.now().UTC()
	stamp := now.Format(TimeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Result{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if owner != "" {
		if err := s.ensureUser(ctx, tx, owner, opts.IsSigned, stamp); err != nil {
			return ir.Result{}, err
		}
	}

	if rule := opts.SavingRule; rule.Checking() {
		dup, found, err := s.findDuplicate(ctx, tx, owner, doc, fp, rule, now)
		if err != nil {
			return ir.Result{}, err
		}
		if found {
			return s.resolveDuplicate(ctx, tx, dup, doc, rule.OnDuplicate, stamp)
		}
	}

	id := s.newID()
	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO events
		(id, user_id, doc, fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`),
		id,
		sql.NullString{String: owner, Valid: owner != ""},
		docJSON,
		fp,
		stamp,
		stamp,
	)
	if err != nil {
		return ir.Result{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ir.Result{}, fmt.Errorf("commit: %w", err)
	}
	return ir.Result{OK: true, Message: "created", IDs: []string{id}, Affected: 1}, nil
}

// ensureUser registers or rejects an owner the store has not seen.
// CreateUser takes precedence over Strict.
func (s *Store) ensureUser(ctx context.Context, q querier, user string, check ir.SignedCheck, stamp string) error {
	var n int
	if err := q.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM users WHERE id = ?"), user).Scan(&n); err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if n > 0 {
		return nil
	}

	switch {
	case check.CreateUser:
		_, err := q.ExecContext(ctx, s.rebind(`
			INSERT INTO users (id, created_at)
			VALUES (?, ?)
			ON CONFLICT(id) DO NOTHING
		`), user, stamp)
		if err != nil {
			return fmt.Errorf("register user: %w", err)
		}
		return nil
	case check.Strict:
		return fmt.Errorf("%w: %s", ErrUnknownUser, user)
	default:
		return nil
	}
}

// findDuplicate returns the newest event that duplicates doc under rule.
// A negative window has no time bound.
func (s *Store) findDuplicate(ctx context.Context, q querier, owner string, doc ir.Map, fp string, rule ir.SavingRule, now time.Time) (eventRow, bool, error) {
	var (
		conds []string
		args  []any
	)
	if owner == "" {
		conds = append(conds, "user_id IS NULL")
	} else {
		conds = append(conds, "user_id = ?")
		args = append(args, owner)
	}
	if rule.TimeBetweenDuplicates > 0 {
		cutoff := now.Add(-time.Duration(rule.TimeBetweenDuplicates) * time.Second)
		conds = append(conds, "created_at >= ?")
		args = append(args, cutoff.Format(TimeLayout))
	}
	wholeDoc := len(rule.UniquenessFields) == 0
	if wholeDoc {
		conds = append(conds, "fingerprint = ?")
		args = append(args, fp)
	}

	query := "SELECT id, user_id, doc, created_at, updated_at FROM events WHERE " +
		strings.Join(conds, " AND ") + " ORDER BY created_at DESC, seq DESC"
	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return eventRow{}, false, fmt.Errorf("query duplicates: %w", err)
	}
	defer rows.Close()

	want := fp
	if !wholeDoc {
		want, err = ir.Fingerprint(doc, rule.UniquenessFields)
		if err != nil {
			return eventRow{}, false, err
		}
	}

	for rows.Next() {
		r, err := scanEvent(rows)
		if err != nil {
			return eventRow{}, false, err
		}
		if wholeDoc {
			return r, true, nil
		}
		got, err := ir.Fingerprint(r.Doc, rule.UniquenessFields)
		if err != nil {
			return eventRow{}, false, err
		}
		if got == want {
			return r, true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return eventRow{}, false, fmt.Errorf("iterate duplicates: %w", err)
	}
	return eventRow{}, false, nil
}

func (s *Store) resolveDuplicate(ctx context.Context, tx *sql.Tx, dup eventRow, doc ir.Map, action, stamp string) (ir.Result, error) {
	switch action {
	case ir.OnDuplicateError:
		return ir.Result{}, fmt.Errorf("%w: %s", ErrDuplicate, dup.ID)
	case ir.OnDuplicateUpdate:
		if err := s.writeDoc(ctx, tx, dup.ID, applyUpdates(dup.Doc, doc), stamp); err != nil {
			return ir.Result{}, err
		}
		if err := tx.Commit(); err != nil {
			return ir.Result{}, fmt.Errorf("commit: %w", err)
		}
		return ir.Result{OK: true, Message: "duplicate updated", IDs: []string{dup.ID}, Affected: 1}, nil
	default:
		if err := tx.Commit(); err != nil {
			return ir.Result{}, fmt.Errorf("commit: %w", err)
		}
		return ir.Result{OK: true, Message: "duplicate ignored", IDs: []string{dup.ID}}, nil
	}
}

// UpdateEvents shallow-merges updates into every event target selects.
func (s *Store) UpdateEvents(ctx context.Context, user string, target, updates ir.Map, opts ir.QueryOptions) (ir.Result, error) {
	res, err := s.updateEvents(ctx, user, target, updates, opts)
	return res, opError("update", err)
}

func (s *Store) updateEvents(ctx context.Context, user string, target, updates ir.Map, opts ir.QueryOptions) (ir.Result, error) {
	owner, err := ownerFor(user, opts.IsSigned)
	if err != nil {
		return ir.Result{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Result{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := s.selectEvents(ctx, tx, target, owner, opts.Paging)
	if err != nil {
		return ir.Result{}, err
	}

	stamp := s.timestamp()
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if err := s.writeDoc(ctx, tx, r.ID, applyUpdates(r.Doc, updates), stamp); err != nil {
			return ir.Result{}, err
		}
		ids = append(ids, r.ID)
	}

	if err := tx.Commit(); err != nil {
		return ir.Result{}, fmt.Errorf("commit: %w", err)
	}
	return ir.Result{OK: true, Message: "updated", IDs: ids, Affected: int64(len(ids))}, nil
}

// DeleteEvents removes every event target selects.
func (s *Store) DeleteEvents(ctx context.Context, user string, target ir.Map, opts ir.QueryOptions) (ir.Result, error) {
	res, err := s.deleteEvents(ctx, user, target, opts)
	return res, opError("delete", err)
}

func (s *Store) deleteEvents(ctx context.Context, user string, target ir.Map, opts ir.QueryOptions) (ir.Result, error) {
	owner, err := ownerFor(user, opts.IsSigned)
	if err != nil {
		return ir.Result{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ir.Result{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := s.selectEvents(ctx, tx, target, owner, opts.Paging)
	if err != nil {
		return ir.Result{}, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM events WHERE id = ?"), r.ID); err != nil {
			return ir.Result{}, fmt.Errorf("delete event %s: %w", r.ID, err)
		}
		ids = append(ids, r.ID)
	}

	if err := tx.Commit(); err != nil {
		return ir.Result{}, fmt.Errorf("commit: %w", err)
	}
	return ir.Result{OK: true, Message: "deleted", IDs: ids, Affected: int64(len(ids))}, nil
}

// writeDoc replaces the stored document of one event.
func (s *Store) writeDoc(ctx context.Context, q querier, id string, doc ir.Map, stamp string) error {
	docJSON, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	fp, err := ir.Fingerprint(doc, nil)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, s.rebind(`
		UPDATE events
		SET doc = ?, fingerprint = ?, updated_at = ?
		WHERE id = ?
	`), docJSON, fp, stamp, id)
	if err != nil {
		return fmt.Errorf("write event %s: %w", id, err)
	}
	return nil
}

// ownerFor returns the owner restriction of a query: the user when
// signed, else none.
func ownerFor(user string, signed bool) (string, error) {
	if !signed {
		return "", nil
	}
	if user == "" {
		return "", ErrNoUser
	}
	return user, nil
}
