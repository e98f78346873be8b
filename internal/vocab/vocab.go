package vocab

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
)

//go:embed vocab.cue
var source string

// Flag kinds.
const (
	KindField        = "field"
	KindRelativeTime = "relativeTime"
	KindAbsoluteTime = "absoluteTime"
	KindConfig       = "config"
	KindDelimiter    = "delimiter"
)

// Flag describes one flag token.
type Flag struct {
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// Operator describes the roles an operator name can play.
type Operator struct {
	Single   bool `json:"single"`
	Multi    bool `json:"multi"`
	Document bool `json:"document"`
}

// Tables holds the decoded vocabulary. It is read-only after Load returns.
type Tables struct {
	Flags                 map[string]Flag
	Operators             map[string]Operator
	Sequences             map[string][]string
	Fallback              []string
	TimeFields            []string
	OptionKeys            []string
	ProtectedUpdateFields []string
	Commands              []string
	MaxInputBytes         int

	createDefaults ir.Map
	queryDefaults  ir.Map

	// CUE values are not safe for concurrent use; userConfig is only
	// touched under mu.
	mu         sync.Mutex
	ctx        *cue.Context
	userConfig cue.Value
}

var load = sync.OnceValues(func() (*Tables, error) {
	return compile(source)
})

// Load returns the process-wide vocabulary, compiling it on first use.
func Load() (*Tables, error) {
	return load()
}

// Must is like Load but panics on error. The vocabulary is embedded, so an
// error here is a build defect.
func Must() *Tables {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

func compile(src string) (*Tables, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("vocab.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	t := &Tables{ctx: ctx}

	decode := func(path string, dst any) error {
		field := v.LookupPath(cue.ParsePath(path))
		if !field.Exists() {
			return &SchemaError{Path: path, Message: "missing", Pos: v.Pos()}
		}
		if err := field.Decode(dst); err != nil {
			return formatCUEError(err)
		}
		return nil
	}

	if err := decode("flags", &t.Flags); err != nil {
		return nil, err
	}
	if err := decode("operators", &t.Operators); err != nil {
		return nil, err
	}
	if err := decode("sequences", &t.Sequences); err != nil {
		return nil, err
	}
	if err := decode("fallback", &t.Fallback); err != nil {
		return nil, err
	}
	if err := decode("timeFields", &t.TimeFields); err != nil {
		return nil, err
	}
	if err := decode("optionKeys", &t.OptionKeys); err != nil {
		return nil, err
	}
	if err := decode("protectedUpdateFields", &t.ProtectedUpdateFields); err != nil {
		return nil, err
	}
	if err := decode("commands", &t.Commands); err != nil {
		return nil, err
	}
	if err := decode("limits.maxInputBytes", &t.MaxInputBytes); err != nil {
		return nil, err
	}

	var err error
	if t.createDefaults, err = decodeMap(v, "defaults.create"); err != nil {
		return nil, err
	}
	if t.queryDefaults, err = decodeMap(v, "defaults.query"); err != nil {
		return nil, err
	}

	t.userConfig = v.LookupPath(cue.ParsePath("#UserConfig"))
	if !t.userConfig.Exists() {
		return nil, &SchemaError{Path: "#UserConfig", Message: "missing", Pos: v.Pos()}
	}

	return t, nil
}

// decodeMap goes through JSON so defaults share the Literal representation
// used for parsed options.
func decodeMap(v cue.Value, path string) (ir.Map, error) {
	field := v.LookupPath(cue.ParsePath(path))
	data, err := field.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	lit, err := ir.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, ok := lit.(ir.Map)
	if !ok {
		return nil, &SchemaError{Path: path, Message: "expected struct", Pos: field.Pos()}
	}
	return m, nil
}

// Flag looks up a flag by name (without the leading dash).
func (t *Tables) Flag(name string) (Flag, bool) {
	f, ok := t.Flags[name]
	return f, ok
}

// Operator looks up an operator by name (with the leading $).
func (t *Tables) Operator(name string) (Operator, bool) {
	op, ok := t.Operators[name]
	return op, ok
}

// Sequence returns the positional field list for a command.
func (t *Tables) Sequence(cmd ir.Command) []string {
	return t.Sequences[string(cmd)]
}

// IsOptionKey reports whether key belongs to the options vocabulary.
func (t *Tables) IsOptionKey(key string) bool {
	return slices.Contains(t.OptionKeys, key)
}

// HasOptionKey reports whether m has at least one options key.
func (t *Tables) HasOptionKey(m ir.Map) bool {
	for k := range m {
		if t.IsOptionKey(k) {
			return true
		}
	}
	return false
}

// IsTimeField reports whether field holds a timestamp.
func (t *Tables) IsTimeField(field string) bool {
	return slices.Contains(t.TimeFields, field)
}

// IsProtected reports whether an update may not assign field.
func (t *Tables) IsProtected(field string) bool {
	return slices.Contains(t.ProtectedUpdateFields, field)
}

// IsCommand reports whether name is a known chat command.
func (t *Tables) IsCommand(name string) bool {
	return slices.Contains(t.Commands, name)
}

// Defaults returns a fresh copy of the default options for a command.
func (t *Tables) Defaults(cmd ir.Command) ir.Map {
	if cmd.IsCreate() {
		return t.createDefaults.Clone()
	}
	return t.queryDefaults.Clone()
}

// SchemaError reports a problem in the vocabulary or in a validated value.
type SchemaError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Path, e.Message)
	}
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// formatCUEError extracts path and position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	format, args := first.Msg()
	se := &SchemaError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		se.Pos = positions[0]
	}
	return se
}
