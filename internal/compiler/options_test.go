package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

func defaultPaging() ir.Paging {
	return ir.Paging{Limit: -1, Offset: 0, SortBy: "createdAt", SortOrder: ir.SortAsc}
}

func defaultCreateOptions() ir.CreateOptions {
	return ir.CreateOptions{
		Paging: defaultPaging(),
		SavingRule: ir.SavingRule{
			UniquenessFields: []string{},
			OnDuplicate:      ir.OnDuplicateIgnore,
		},
	}
}

func defaultQueryOptions() ir.QueryOptions {
	return ir.QueryOptions{Paging: defaultPaging()}
}

func TestNormalizeOptions_Defaults(t *testing.T) {
	c := newTestCompiler()

	assert.Equal(t, defaultCreateOptions(), c.NormalizeOptions(ir.CmdCreate))
	for _, cmd := range []ir.Command{ir.CmdGet, ir.CmdUpdate, ir.CmdDelete} {
		assert.Equal(t, defaultQueryOptions(), c.NormalizeOptions(cmd), cmd)
	}
}

func TestNormalizeOptions_Paging(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdGet, ir.Map{
		"limit":     ir.Number(5),
		"offset":    ir.Str("10"),
		"sortBy":    ir.Str(" startTime "),
		"sortOrder": ir.Str("DESC"),
	})

	assert.Equal(t, ir.QueryOptions{Paging: ir.Paging{
		Limit: 5, Offset: 10, SortBy: "startTime", SortOrder: ir.SortDesc,
	}}, got)
}

func TestNormalizeOptions_NumericSortOrder(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdGet, ir.Map{"sortOrder": ir.Number(-1)})
	assert.Equal(t, ir.SortDesc, got.Page().SortOrder)

	got = c.NormalizeOptions(ir.CmdGet, ir.Map{"sortOrder": ir.Number(1)})
	assert.Equal(t, ir.SortAsc, got.Page().SortOrder)
}

func TestNormalizeOptions_InvalidPagingFallsBack(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdGet, ir.Map{
		"limit":     ir.Str("many"),
		"offset":    ir.Number(-3),
		"sortBy":    ir.Str(""),
		"sortOrder": ir.Str("sideways"),
	})
	assert.Equal(t, defaultQueryOptions(), got)
}

func TestNormalizeOptions_LaterFragmentWins(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdGet,
		ir.Map{"limit": ir.Number(1), "offset": ir.Number(2)},
		ir.Map{"limit": ir.Number(3)},
	)
	assert.Equal(t, int64(3), got.Page().Limit)
	assert.Equal(t, int64(2), got.Page().Offset)
}

func TestNormalizeOptions_IgnoresUnknownKeys(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdGet, ir.Map{"verbose": ir.Bool(true), "limit": ir.Number(4)})
	assert.Equal(t, int64(4), got.Page().Limit)
}

func TestNormalizeOptions_CreateBooleanSigned(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdCreate, ir.Map{"isSigned": ir.Bool(true)})
	opts, ok := got.(ir.CreateOptions)
	assert.True(t, ok)
	assert.Equal(t, ir.SignedCheck{Check: true, CreateUser: true, Strict: false}, opts.IsSigned)
	assert.True(t, ir.Signed(got))
}

func TestNormalizeOptions_CreateStructuredSignedMerges(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdCreate, ir.Map{"isSigned": ir.Map{"strict": ir.Bool(true)}})
	opts := got.(ir.CreateOptions)
	assert.Equal(t, ir.SignedCheck{Check: false, CreateUser: false, Strict: true}, opts.IsSigned)
}

func TestNormalizeOptions_QueryCollapsesSigned(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdDelete, ir.Map{"isSigned": ir.Map{"check": ir.Bool(true), "strict": ir.Bool(true)}})
	assert.Equal(t, ir.QueryOptions{Paging: defaultPaging(), IsSigned: true}, got)

	got = c.NormalizeOptions(ir.CmdGet, ir.Map{"isSigned": ir.Bool(true)})
	assert.True(t, ir.Signed(got))
}

func TestNormalizeOptions_SavingRule(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdCreate, ir.Map{"savingRule": ir.Map{
		"timeBetweenDuplicates": ir.Number(3600),
		"uniquenessFields":      ir.List{ir.Str("title"), ir.Str("startTime")},
		"onDuplicate":           ir.Str("UPDATE"),
	}})

	opts := got.(ir.CreateOptions)
	assert.Equal(t, ir.SavingRule{
		TimeBetweenDuplicates: 3600,
		UniquenessFields:      []string{"title", "startTime"},
		OnDuplicate:           ir.OnDuplicateUpdate,
	}, opts.SavingRule)
	assert.True(t, opts.SavingRule.Checking())
}

func TestNormalizeOptions_SavingRuleSingleField(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdCreate, ir.Map{"savingRule": ir.Map{
		"timeBetweenDuplicates": ir.Number(60),
		"uniquenessFields":      ir.Str("title"),
		"onDuplicate":           ir.Str("merge"),
	}})

	rule := got.(ir.CreateOptions).SavingRule
	assert.Equal(t, []string{"title"}, rule.UniquenessFields)
	assert.Equal(t, ir.OnDuplicateIgnore, rule.OnDuplicate)
}

func TestNormalizeOptions_NoCheckIsExclusive(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdCreate, ir.Map{"savingRule": ir.Map{
		"timeBetweenDuplicates": ir.Number(0),
		"uniquenessFields":      ir.List{ir.Str("title")},
		"onDuplicate":           ir.Str("error"),
	}})

	rule := got.(ir.CreateOptions).SavingRule
	assert.False(t, rule.Checking())
	assert.Empty(t, rule.UniquenessFields)
	assert.NotNil(t, rule.UniquenessFields)
	assert.Equal(t, ir.OnDuplicateIgnore, rule.OnDuplicate)
}

func TestNormalizeOptions_NegativeWindowKeepsChecking(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdCreate, ir.Map{"savingRule": ir.Map{
		"timeBetweenDuplicates": ir.Number(-1),
		"uniquenessFields":      ir.List{ir.Str("title")},
		"onDuplicate":           ir.Str("error"),
	}})

	rule := got.(ir.CreateOptions).SavingRule
	assert.Equal(t, ir.SavingRule{
		TimeBetweenDuplicates: -1,
		UniquenessFields:      []string{"title"},
		OnDuplicate:           ir.OnDuplicateError,
	}, rule)
	assert.True(t, rule.Checking())
}

func TestNormalizeOptions_SavingRuleMergesAcrossFragments(t *testing.T) {
	c := newTestCompiler()

	got := c.NormalizeOptions(ir.CmdCreate,
		ir.Map{"savingRule": ir.Map{"timeBetweenDuplicates": ir.Number(60)}},
		ir.Map{"savingRule": ir.Map{"onDuplicate": ir.Str("error")}},
	)

	rule := got.(ir.CreateOptions).SavingRule
	assert.Equal(t, int64(60), rule.TimeBetweenDuplicates)
	assert.Equal(t, ir.OnDuplicateError, rule.OnDuplicate)
}

func TestNormalizeOptions_DoesNotMutateFragments(t *testing.T) {
	c := newTestCompiler()

	frag := ir.Map{"savingRule": ir.Map{"timeBetweenDuplicates": ir.Number(60)}}
	c.NormalizeOptions(ir.CmdCreate, frag)
	c.NormalizeOptions(ir.CmdCreate, frag)

	assert.Equal(t, ir.Map{"savingRule": ir.Map{"timeBetweenDuplicates": ir.Number(60)}}, frag)
	assert.Equal(t, defaultCreateOptions(), c.NormalizeOptions(ir.CmdCreate))
}
