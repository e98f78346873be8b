package compiler

import (
	"strings"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

// NormalizeOptions deep-merges option fragments, in order, over the
// command's defaults and returns the typed options.
//
// For create a boolean isSigned expands to {check, createUser: true,
// strict: false}; for the other commands a structured isSigned collapses
// to its check field. Keys outside the options vocabulary are ignored.
func (c *Compiler) NormalizeOptions(cmd ir.Command, fragments ...ir.Map) ir.Options {
	merged := c.tables.Defaults(cmd)

	for _, frag := range fragments {
		for _, k := range frag.SortedKeys() {
			if !c.tables.IsOptionKey(k) {
				continue
			}
			v := frag[k]
			if k == "isSigned" {
				v = shapeSigned(cmd, v)
			}
			merged[k] = deepMerge(merged[k], v)
		}
	}

	paging := ir.Paging{
		Limit:     normalizeLimit(merged["limit"]),
		Offset:    normalizeOffset(merged["offset"]),
		SortBy:    normalizeSortBy(merged["sortBy"]),
		SortOrder: normalizeSortOrder(merged["sortOrder"]),
	}

	if !cmd.IsCreate() {
		b, _ := merged["isSigned"].(ir.Bool)
		return ir.QueryOptions{Paging: paging, IsSigned: bool(b)}
	}

	signed, _ := merged["isSigned"].(ir.Map)
	rule, _ := merged["savingRule"].(ir.Map)
	return ir.CreateOptions{
		Paging: paging,
		IsSigned: ir.SignedCheck{
			Check:      boolField(signed, "check"),
			CreateUser: boolField(signed, "createUser"),
			Strict:     boolField(signed, "strict"),
		},
		SavingRule: normalizeSavingRule(rule),
	}
}

func shapeSigned(cmd ir.Command, v ir.Literal) ir.Literal {
	if cmd.IsCreate() {
		if b, ok := v.(ir.Bool); ok {
			return ir.Map{
				"check":      b,
				"createUser": ir.Bool(true),
				"strict":     ir.Bool(false),
			}
		}
		return v
	}
	if m, ok := v.(ir.Map); ok {
		return ir.Bool(boolField(m, "check"))
	}
	return v
}

// deepMerge overlays src on dst. Maps merge key by key; anything else
// replaces.
func deepMerge(dst, src ir.Literal) ir.Literal {
	dm, dok := dst.(ir.Map)
	sm, sok := src.(ir.Map)
	if !dok || !sok {
		return ir.CloneLiteral(src)
	}
	out := dm.Clone()
	for k, v := range sm {
		out[k] = deepMerge(out[k], v)
	}
	return out
}

func boolField(m ir.Map, key string) bool {
	b, _ := m[key].(ir.Bool)
	return bool(b)
}

func normalizeLimit(v ir.Literal) int64 {
	n, ok := literalInt(v)
	if !ok || n < 0 {
		return -1
	}
	return n
}

func normalizeOffset(v ir.Literal) int64 {
	n, ok := literalInt(v)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func normalizeSortBy(v ir.Literal) string {
	if s, ok := v.(ir.Str); ok && strings.TrimSpace(string(s)) != "" {
		return strings.TrimSpace(string(s))
	}
	return "createdAt"
}

// normalizeSortOrder accepts asc/desc in any case or 1/-1.
func normalizeSortOrder(v ir.Literal) string {
	if n, ok := literalInt(v); ok {
		if n < 0 {
			return ir.SortDesc
		}
		return ir.SortAsc
	}
	if s, ok := v.(ir.Str); ok && strings.EqualFold(strings.TrimSpace(string(s)), ir.SortDesc) {
		return ir.SortDesc
	}
	return ir.SortAsc
}

// normalizeSavingRule enforces the no-check state: a zero time window has
// no uniqueness fields and ignores duplicates. A negative window checks
// without a time bound.
func normalizeSavingRule(m ir.Map) ir.SavingRule {
	rule := ir.SavingRule{
		UniquenessFields: []string{},
		OnDuplicate:      ir.OnDuplicateIgnore,
	}

	if n, ok := literalInt(m["timeBetweenDuplicates"]); ok && n != 0 {
		rule.TimeBetweenDuplicates = n
	}
	if !rule.Checking() {
		return rule
	}

	switch fields := m["uniquenessFields"].(type) {
	case ir.List:
		for _, f := range fields {
			if s, ok := f.(ir.Str); ok && s != "" {
				rule.UniquenessFields = append(rule.UniquenessFields, string(s))
			}
		}
	case ir.Str:
		if fields != "" {
			rule.UniquenessFields = append(rule.UniquenessFields, string(fields))
		}
	}

	if s, ok := m["onDuplicate"].(ir.Str); ok {
		action := strings.ToLower(strings.TrimSpace(string(s)))
		if ir.ValidOnDuplicate[action] {
			rule.OnDuplicate = action
		}
	}
	return rule
}
