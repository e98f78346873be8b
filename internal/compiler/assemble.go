package compiler

import (
	"slices"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

type writeKind int

const (
	writeField writeKind = iota
	writeCondition
)

// write is one field assignment or operator fragment, kept in text order.
type write struct {
	kind  writeKind
	field string
	value ir.Literal
	cond  ir.Map
}

// assembly collects everything one command body produced.
type assembly struct {
	writes  []write
	options []ir.Map
	filter  ir.Map
	bare    int // bare operators seen so far in the body
}

func (a *assembly) set(field string, v ir.Literal) {
	a.writes = append(a.writes, write{kind: writeField, field: field, value: v})
}

// merge writes every key of m, in sorted key order.
func (a *assembly) merge(m ir.Map) {
	for _, k := range m.SortedKeys() {
		a.set(k, m[k])
	}
}

func (a *assembly) condition(cond ir.Map) {
	a.writes = append(a.writes, write{kind: writeCondition, cond: cond})
}

func (a *assembly) addOptions(m ir.Map) {
	a.options = append(a.options, m)
}

// setFilter records the filter; the last one captured wins.
func (a *assembly) setFilter(m ir.Map) {
	a.filter = m
}

// fields replays the writes in text order; later writes to a field win.
//
// A single operator fragment merges into the field map like any other
// write. Two or more are combined into one $and list.
func (a *assembly) fields() ir.Map {
	m := ir.Map{}

	conditions := 0
	for _, w := range a.writes {
		if w.kind == writeCondition {
			conditions++
		}
	}

	if conditions < 2 {
		for _, w := range a.writes {
			if w.kind == writeField {
				m[w.field] = w.value
				continue
			}
			for k, v := range w.cond {
				m[k] = v
			}
		}
		return m
	}

	var conds []ir.Map
	for _, w := range a.writes {
		if w.kind == writeField {
			m[w.field] = w.value
			conds = slices.DeleteFunc(conds, func(c ir.Map) bool {
				_, ok := c[w.field]
				return ok && len(c) == 1
			})
			continue
		}
		for k := range w.cond {
			delete(m, k)
		}
		conds = append(conds, w.cond)
	}

	switch len(conds) {
	case 0:
	case 1:
		for k, v := range conds[0] {
			m[k] = v
		}
	default:
		list := make(ir.List, 0, len(conds)+1)
		switch existing := m["$and"].(type) {
		case nil:
		case ir.List:
			list = append(list, existing...)
		default:
			list = append(list, existing)
		}
		for _, c := range conds {
			list = append(list, c)
		}
		m["$and"] = list
	}
	return m
}

// withFilter merges an explicit filter into a field map by logical AND.
func withFilter(fields, filter ir.Map) ir.Map {
	switch {
	case filter == nil:
		return fields
	case len(fields) == 0:
		return filter
	default:
		return ir.Map{"$and": ir.List{fields, filter}}
	}
}
