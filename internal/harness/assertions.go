package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  expected: %s\n  actual: %s", e.Type, e.Expected, e.Actual)
}

// AssertionContext provides the store assertions read.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions checks every assertion and returns one message per
// failure.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, a := range assertions {
		var err error
		switch {
		case actx == nil || actx.Store == nil:
			err = fmt.Errorf("assertion[%d]: %s requires a store", i, a.Type)
		case a.Type == AssertEventCount:
			err = assertEventCount(actx, a)
		case a.Type == AssertEventExists:
			err = assertEventExists(actx, a)
		case a.Type == AssertUserConfig:
			err = assertUserConfig(actx, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// allEvents reads every event, oldest first.
var allEvents = ir.Paging{Limit: -1, SortBy: "createdAt", SortOrder: ir.SortAsc}

func readWhere(actx *AssertionContext, where map[string]any) ([]ir.Map, error) {
	cond, err := toCondition(where)
	if err != nil {
		return nil, err
	}
	return actx.Store.ReadEvents(actx.Ctx, cond, "", allEvents)
}

func assertEventCount(actx *AssertionContext, a Assertion) error {
	rows, err := readWhere(actx, a.Where)
	if err != nil {
		return fmt.Errorf("event_count: %w", err)
	}
	if len(rows) != *a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d events where %s", *a.Count, formatWhere(a.Where)),
			Actual:   fmt.Sprintf("%d events", len(rows)),
		}
	}
	return nil
}

func assertEventExists(actx *AssertionContext, a Assertion) error {
	rows, err := readWhere(actx, a.Where)
	if err != nil {
		return fmt.Errorf("event_exists: %w", err)
	}

	var closest []string
	for _, row := range rows {
		diffs, err := subsetDiff(a.Expect, row)
		if err != nil {
			return fmt.Errorf("event_exists: %w", err)
		}
		if len(diffs) == 0 {
			return nil
		}
		if closest == nil || len(diffs) < len(closest) {
			closest = diffs
		}
	}

	actual := "no events matched"
	if len(rows) > 0 {
		actual = fmt.Sprintf("%d events matched, closest differs at %s", len(rows), strings.Join(closest, "; "))
	}
	return &AssertionError{
		Type:     AssertEventExists,
		Expected: fmt.Sprintf("an event where %s with %v", formatWhere(a.Where), a.Expect),
		Actual:   actual,
	}
}

func assertUserConfig(actx *AssertionContext, a Assertion) error {
	cfg, err := actx.Store.LoadConfig(actx.Ctx, a.User)
	if err != nil {
		return fmt.Errorf("user_config: %w", err)
	}
	diffs, err := subsetDiff(a.Expect, cfg)
	if err != nil {
		return fmt.Errorf("user_config: %w", err)
	}
	if len(diffs) > 0 {
		return &AssertionError{
			Type:     AssertUserConfig,
			Expected: fmt.Sprintf("configuration of %s with %v", a.User, a.Expect),
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}

// toCondition converts a YAML condition into the Literal form the store
// queries with.
func toCondition(where map[string]any) (ir.Map, error) {
	if len(where) == 0 {
		return ir.Map{}, nil
	}
	data, err := json.Marshal(where)
	if err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	v, err := ir.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	m, ok := v.(ir.Map)
	if !ok {
		return nil, fmt.Errorf("where: not a map")
	}
	return m, nil
}

// toGeneric renders v the way JSON sees it: maps, slices, float64,
// strings, bools and nil.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// subsetDiff reports where actual differs from expected. Maps match when
// every expected key matches; extra keys in actual are ignored. Lists must
// have the same length and match element-wise.
func subsetDiff(expected, actual any) ([]string, error) {
	exp, err := toGeneric(expected)
	if err != nil {
		return nil, fmt.Errorf("expected value: %w", err)
	}
	act, err := toGeneric(actual)
	if err != nil {
		return nil, fmt.Errorf("actual value: %w", err)
	}
	var diffs []string
	collectDiffs("", exp, act, &diffs)
	return diffs, nil
}

func collectDiffs(path string, exp, act any, diffs *[]string) {
	switch e := exp.(type) {
	case map[string]any:
		a, ok := act.(map[string]any)
		if !ok {
			*diffs = append(*diffs, fmt.Sprintf("%s: want an object, got %v", pathOrRoot(path), act))
			return
		}
		keys := make([]string, 0, len(e))
		for k := range e {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			av, present := a[k]
			if !present {
				*diffs = append(*diffs, fmt.Sprintf("%s.%s: missing", path, k))
				continue
			}
			collectDiffs(path+"."+k, e[k], av, diffs)
		}
	case []any:
		a, ok := act.([]any)
		if !ok || len(a) != len(e) {
			*diffs = append(*diffs, fmt.Sprintf("%s: want %v, got %v", pathOrRoot(path), exp, act))
			return
		}
		for i := range e {
			collectDiffs(fmt.Sprintf("%s[%d]", path, i), e[i], a[i], diffs)
		}
	default:
		if !cmp.Equal(exp, act) {
			*diffs = append(*diffs, fmt.Sprintf("%s: want %v, got %v", pathOrRoot(path), exp, act))
		}
	}
}

func pathOrRoot(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}

func formatWhere(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	data, err := json.Marshal(where)
	if err != nil {
		return fmt.Sprintf("%v", where)
	}
	return string(data)
}
