package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/testutil"
)

var testStart = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

// createTestStore opens a fresh SQLite store with a fixed clock and
// sequential event ids (evt-1, evt-2, ...).
func createTestStore(t *testing.T) (*Store, *testutil.FixedClock) {
	t.Helper()
	clock := testutil.NewFixedClock(testStart)
	ids := testutil.NewSequenceIDs("evt")

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock.Now), WithIDGenerator(ids.Generate))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func allPages() ir.Paging {
	return ir.Paging{Limit: -1, SortBy: "createdAt", SortOrder: ir.SortAsc}
}

func createOpts() ir.CreateOptions {
	return ir.CreateOptions{
		Paging:     allPages(),
		SavingRule: ir.SavingRule{UniquenessFields: []string{}, OnDuplicate: ir.OnDuplicateIgnore},
	}
}

func queryOpts() ir.QueryOptions {
	return ir.QueryOptions{Paging: allPages()}
}

// mustCreate creates an unsigned event and returns its id.
func mustCreate(t *testing.T, s *Store, event ir.Map) string {
	t.Helper()
	res, err := s.CreateEvent(context.Background(), "", event, createOpts())
	require.NoError(t, err)
	require.Len(t, res.IDs, 1)
	return res.IDs[0]
}

// ids extracts the id column of rows, in order.
func ids(rows []ir.Map) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, string(r["id"].(ir.Str)))
	}
	return out
}
