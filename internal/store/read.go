package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/queryir"
	"github.com/Enfiniq/loomcal-sub000/internal/querysql"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReadEvents returns the events matching cond, ordered and paged by page.
// A non-empty owner restricts the read to that user's events.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEvents(ctx context.Context, cond ir.Map, owner string, page ir.Paging) ([]ir.Map, error) {
	rows, err := s.selectEvents(ctx, s.db, cond, owner, page)
	if err != nil {
		return nil, err
	}
	out := make([]ir.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toMap())
	}
	return out, nil
}

// ReadEvent returns one event by id.
func (s *Store) ReadEvent(ctx context.Context, id string) (ir.Map, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+querysql.Columns+`
		FROM events
		WHERE id = ?
	`), id)
	r, err := scanEventRow(row)
	if err != nil {
		return nil, err
	}
	return r.toMap(), nil
}

// CountEvents returns the number of stored events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// selectEvents compiles cond to SQL and scans every matching row.
func (s *Store) selectEvents(ctx context.Context, q querier, cond ir.Map, owner string, page ir.Paging) ([]eventRow, error) {
	pred, err := queryir.Parse(cond)
	if err != nil {
		return nil, fmt.Errorf("parse condition: %w", err)
	}

	query, args, err := s.sqlc.Compile(querysql.Select{Where: pred, Owner: owner, Paging: page})
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []eventRow{}
	for rows.Next() {
		r, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// scanEvent scans a row in querysql.Columns order.
func scanEvent(rows *sql.Rows) (eventRow, error) {
	var (
		r      eventRow
		userID sql.NullString
		doc    string
	)
	if err := rows.Scan(&r.ID, &userID, &doc, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return eventRow{}, fmt.Errorf("scan event: %w", err)
	}
	return finishRow(r, userID, doc)
}

func scanEventRow(row *sql.Row) (eventRow, error) {
	var (
		r      eventRow
		userID sql.NullString
		doc    string
	)
	if err := row.Scan(&r.ID, &userID, &doc, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return eventRow{}, ErrNotFound
		}
		return eventRow{}, fmt.Errorf("scan event: %w", err)
	}
	return finishRow(r, userID, doc)
}

func finishRow(r eventRow, userID sql.NullString, doc string) (eventRow, error) {
	r.UserID = userID.String
	m, err := unmarshalDoc(doc)
	if err != nil {
		return eventRow{}, fmt.Errorf("event %s: %w", r.ID, err)
	}
	r.Doc = m
	return r, nil
}
