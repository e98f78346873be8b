package compiler

import (
	"fmt"
	"maps"
	"time"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/scan"
	"github.com/Enfiniq/loomcal-sub000/internal/vocab"
)

// Compiler turns command text into requests.
//
// A Compiler holds only read-only vocabulary and a clock, so one value may
// be shared by any number of goroutines.
type Compiler struct {
	tables *vocab.Tables
	now    func() time.Time
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithClock sets the time source used for relative times.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) {
		c.now = now
	}
}

// WithTables replaces the process-wide vocabulary.
func WithTables(t *vocab.Tables) Option {
	return func(c *Compiler) {
		c.tables = t
	}
}

// New creates a Compiler using the embedded vocabulary and the wall clock.
func New(opts ...Option) *Compiler {
	c := &Compiler{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.tables == nil {
		c.tables = vocab.Must()
	}
	return c
}

// Tables returns the vocabulary the compiler uses.
func (c *Compiler) Tables() *vocab.Tables {
	return c.tables
}

// Compile compiles the body of a create, get, update or delete command.
func (c *Compiler) Compile(cmd ir.Command, body string) (*ir.Request, error) {
	if len(body) > c.tables.MaxInputBytes {
		return nil, newStructuralError(ErrCodeInputTooLong,
			fmt.Sprintf("command is too long (%d bytes, limit %d)", len(body), c.tables.MaxInputBytes),
			map[string]string{
				"bytes": fmt.Sprintf("%d", len(body)),
				"limit": fmt.Sprintf("%d", c.tables.MaxInputBytes),
			})
	}

	switch cmd {
	case ir.CmdCreate:
		return c.compileCreate(body), nil
	case ir.CmdGet:
		return c.compileGet(body), nil
	case ir.CmdDelete:
		return c.compileDelete(body)
	case ir.CmdUpdate:
		return c.compileUpdate(body)
	default:
		return nil, newStructuralError(ErrCodeUnknownCommand,
			fmt.Sprintf("unknown command %q", cmd),
			map[string]string{"command": string(cmd)})
	}
}

func (c *Compiler) compileCreate(body string) *ir.Request {
	a := c.parse(body, createPipeline)
	return &ir.Request{
		Command: ir.CmdCreate,
		Event:   a.fields(),
		Options: c.NormalizeOptions(ir.CmdCreate, a.options...),
	}
}

func (c *Compiler) compileGet(body string) *ir.Request {
	a := c.parse(body, getPipeline)
	return &ir.Request{
		Command: ir.CmdGet,
		Target:  withFilter(a.fields(), a.filter),
		Filter:  a.filter,
		Options: c.NormalizeOptions(ir.CmdGet, a.options...),
	}
}

func (c *Compiler) compileDelete(body string) (*ir.Request, error) {
	a := c.parse(body, deletePipeline)
	target := withFilter(a.fields(), a.filter)
	if len(target) == 0 {
		return nil, errSelectionRequired(ir.CmdDelete)
	}
	return &ir.Request{
		Command: ir.CmdDelete,
		Target:  target,
		Filter:  a.filter,
		Options: c.NormalizeOptions(ir.CmdDelete, a.options...),
	}, nil
}

// compileUpdate splits body around the -to flag. The left side selects with
// the get pipeline; the right side assigns with the create pipeline.
func (c *Compiler) compileUpdate(body string) (*ir.Request, error) {
	var delims []scan.Segment
	for _, seg := range scan.Split(body) {
		if seg.Kind != scan.FlagSegment {
			continue
		}
		if f, ok := c.tables.Flag(seg.Flag); ok && f.Kind == vocab.KindDelimiter {
			delims = append(delims, seg)
		}
	}

	switch len(delims) {
	case 0:
		return nil, newStructuralError(ErrCodeMissingDelimiter,
			"update needs -to between the selection and the new values", nil)
	case 1:
	default:
		return nil, newStructuralError(ErrCodeMultipleDelimiters,
			fmt.Sprintf("update takes exactly one -to, found %d", len(delims)),
			map[string]string{"count": fmt.Sprintf("%d", len(delims))})
	}

	split := delims[0].Start
	left := c.parse(body[:split], getPipeline)
	right := c.parse(body[split+len("-"+delims[0].Flag):], createPipeline)

	filter := left.filter
	if right.filter != nil {
		filter = right.filter
	}

	target := withFilter(left.fields(), filter)
	if len(target) == 0 {
		return nil, errSelectionRequired(ir.CmdUpdate)
	}

	updates := right.fields()
	maps.DeleteFunc(updates, func(k string, _ ir.Literal) bool {
		return c.tables.IsProtected(k)
	})
	if len(updates) == 0 {
		return nil, newStructuralError(ErrCodeUpdatesRequired,
			"update needs at least one new value after -to", nil)
	}

	opts := append(append([]ir.Map{}, left.options...), right.options...)
	return &ir.Request{
		Command: ir.CmdUpdate,
		Target:  target,
		Updates: updates,
		Filter:  filter,
		Options: c.NormalizeOptions(ir.CmdUpdate, opts...),
	}, nil
}

func errSelectionRequired(cmd ir.Command) *StructuralError {
	return newStructuralError(ErrCodeSelectionRequired,
		"selection criteria required",
		map[string]string{"command": string(cmd)})
}
