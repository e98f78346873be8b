package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// seedEvents stores five events one minute apart.
func seedEvents(t *testing.T) *Store {
	t.Helper()
	s, clock := createTestStore(t)
	events := []ir.Map{
		{"title": ir.Str("Yoga"), "type": ir.Str("gym"), "repeat": ir.Number(3)},
		{"title": ir.Str("Run"), "type": ir.Str("workout"), "repeat": ir.Number(5)},
		{"title": ir.Str("Standup"), "type": ir.Str("meeting"), "color": ir.Str("red")},
		{"title": ir.Str("Yoga flow"), "type": ir.Str("gym"), "customData": ir.Map{"level": ir.Number(2)}},
		{"title": ir.Str("Review"), "type": ir.Str("meeting"), "done": ir.Bool(true)},
	}
	for _, e := range events {
		mustCreate(t, s, e)
		clock.Advance(time.Minute)
	}
	return s
}

func TestReadEvents_Conditions(t *testing.T) {
	s := seedEvents(t)
	ctx := context.Background()

	tests := []struct {
		name string
		cond ir.Map
		want []string
	}{
		{"empty selects all", ir.Map{}, []string{"evt-1", "evt-2", "evt-3", "evt-4", "evt-5"}},
		{"equality", ir.Map{"type": ir.Str("gym")}, []string{"evt-1", "evt-4"}},
		{"greater than", ir.Map{"repeat": ir.Map{"$gt": ir.Number(3)}}, []string{"evt-2"}},
		{"in", ir.Map{"type": ir.Map{"$in": ir.List{ir.Str("workout"), ir.Str("meeting")}}}, []string{"evt-2", "evt-3", "evt-5"}},
		{"nin keeps missing", ir.Map{"color": ir.Map{"$nin": ir.List{ir.Str("red")}}}, []string{"evt-1", "evt-2", "evt-4", "evt-5"}},
		{"regex", ir.Map{"title": ir.Map{"$regex": ir.Str("^Yo")}}, []string{"evt-1", "evt-4"}},
		{"exists", ir.Map{"color": ir.Map{"$exists": ir.Bool(true)}}, []string{"evt-3"}},
		{"not exists", ir.Map{"customData": ir.Map{"$exists": ir.Bool(false)}}, []string{"evt-1", "evt-2", "evt-3", "evt-5"}},
		{"nested field", ir.Map{"customData.level": ir.Number(2)}, []string{"evt-4"}},
		{"boolean", ir.Map{"done": ir.Bool(true)}, []string{"evt-5"}},
		{"ne", ir.Map{"type": ir.Map{"$ne": ir.Str("gym")}}, []string{"evt-2", "evt-3", "evt-5"}},
		{"field not", ir.Map{"repeat": ir.Map{"$not": ir.Map{"$gt": ir.Number(3)}}}, []string{"evt-1", "evt-3", "evt-4", "evt-5"}},
		{
			"or",
			ir.Map{"$or": ir.List{ir.Map{"type": ir.Str("workout")}, ir.Map{"color": ir.Str("red")}}},
			[]string{"evt-2", "evt-3"},
		},
		{
			"and",
			ir.Map{"$and": ir.List{ir.Map{"type": ir.Str("gym")}, ir.Map{"title": ir.Map{"$regex": ir.Str("flow")}}}},
			[]string{"evt-4"},
		},
		{"id column", ir.Map{"id": ir.Str("evt-3")}, []string{"evt-3"}},
		{"createdAt column", ir.Map{"createdAt": ir.Map{"$gte": ir.Str("2025-01-15T10:03:00.000Z")}}, []string{"evt-4", "evt-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.ReadEvents(ctx, tt.cond, "", allPages())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}
}

func TestReadEvents_Paging(t *testing.T) {
	s := seedEvents(t)
	ctx := context.Background()

	tests := []struct {
		name string
		page ir.Paging
		want []string
	}{
		{"limit", ir.Paging{Limit: 2, SortBy: "createdAt", SortOrder: ir.SortAsc}, []string{"evt-1", "evt-2"}},
		{"offset without limit", ir.Paging{Limit: -1, Offset: 3, SortBy: "createdAt", SortOrder: ir.SortAsc}, []string{"evt-4", "evt-5"}},
		{"descending", ir.Paging{Limit: 2, SortBy: "createdAt", SortOrder: ir.SortDesc}, []string{"evt-5", "evt-4"}},
		{"sort by doc field", ir.Paging{Limit: -1, SortBy: "title", SortOrder: ir.SortAsc}, []string{"evt-5", "evt-2", "evt-3", "evt-1", "evt-4"}},
		{"limit zero", ir.Paging{Limit: 0, SortBy: "createdAt", SortOrder: ir.SortAsc}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.ReadEvents(ctx, ir.Map{}, "", tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}
}

func TestReadEvents_InvalidCondition(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.ReadEvents(context.Background(), ir.Map{"$bogus": ir.List{}}, "", allPages())
	assert.Error(t, err)

	_, err = s.ReadEvents(context.Background(), ir.Map{"bad field": ir.Str("x")}, "", allPages())
	assert.Error(t, err)
}

func TestReadEvent_NotFound(t *testing.T) {
	s, _ := createTestStore(t)

	_, err := s.ReadEvent(context.Background(), "evt-404")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetEvents_Signed(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	signed := createOpts()
	signed.IsSigned = ir.SignedCheck{Check: true, CreateUser: true}
	_, err := s.CreateEvent(ctx, "alice", ir.Map{"title": ir.Str("Mine")}, signed)
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, "bob", ir.Map{"title": ir.Str("Theirs")}, signed)
	require.NoError(t, err)
	mustCreate(t, s, ir.Map{"title": ir.Str("Nobody's")})

	opts := queryOpts()
	opts.IsSigned = true
	res, err := s.GetEvents(ctx, "alice", ir.Map{}, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"evt-1"}, res.IDs)
	assert.Equal(t, int64(1), res.Affected)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, ir.Str("alice"), res.Rows[0]["userId"])

	all, err := s.GetEvents(ctx, "alice", ir.Map{}, queryOpts())
	require.NoError(t, err)
	assert.Len(t, all.Rows, 3)
}
