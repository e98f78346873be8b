package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Enfiniq/loomcal-sub000/internal/ir"
	"github.com/Enfiniq/loomcal-sub000/internal/queryir"
)

// Dialect selects the SQL flavour an SQLCompiler emits.
type Dialect int

const (
	// SQLite reads document fields with json_extract and binds with ?.
	SQLite Dialect = iota

	// Postgres reads document fields as jsonb and binds with $n.
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// ParseDialect maps a driver name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return SQLite, fmt.Errorf("unknown SQL dialect %q", name)
	}
}

// Table is the event table every query reads.
const Table = "events"

// Columns is the column list of every SELECT, in scan order.
const Columns = "id, user_id, doc, created_at, updated_at"

// columns maps document-level field names onto real columns. Every other
// field lives inside the doc JSON.
var columns = map[string]string{
	"_id":       "id",
	"id":        "id",
	"userId":    "user_id",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// Select describes one read of the event table.
type Select struct {
	// Where is the selection; nil selects every event.
	Where queryir.Predicate

	// Owner restricts the read to one user's events when non-empty.
	Owner string

	Paging ir.Paging
}

// SQLCompiler compiles predicate trees to parameterized SQL.
//
// CRITICAL: ALL queries include ORDER BY with the seq tiebreaker so reads
// are deterministic.
// CRITICAL: All values are parameterized, never interpolated. Field paths
// are interpolated only after queryir.ValidField accepts them.
type SQLCompiler struct {
	Dialect Dialect
}

// NewSQLCompiler creates a new SQLCompiler for d.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: d}
}

// Compile converts a Select to SQL. Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q Select) (string, []any, error) {
	b := &builder{dialect: c.Dialect}

	var conds []string
	if q.Where != nil {
		where, err := b.predicate(q.Where)
		if err != nil {
			return "", nil, fmt.Errorf("compile where: %w", err)
		}
		if where != "1 = 1" {
			conds = append(conds, where)
		}
	}
	if q.Owner != "" {
		conds = append(conds, "user_id = "+b.bind(q.Owner))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", Columns, Table)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(b.orderBy(q.Paging))
	sb.WriteString(b.limit(q.Paging))

	return sb.String(), b.args, nil
}

// CompileWhere compiles a predicate alone, for callers that build their
// own statement around it.
func (c *SQLCompiler) CompileWhere(p queryir.Predicate) (string, []any, error) {
	b := &builder{dialect: c.Dialect}
	sql, err := b.predicate(p)
	if err != nil {
		return "", nil, err
	}
	return sql, b.args, nil
}

// builder accumulates parameters while a statement is compiled, so
// Postgres placeholders are numbered in emission order.
type builder struct {
	dialect Dialect
	args    []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	if b.dialect == Postgres {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

// bindValue binds a literal for comparison against a document field.
func (b *builder) bindValue(v ir.Literal) (string, error) {
	if b.dialect == Postgres {
		data, err := ir.MarshalCanonical(v)
		if err != nil {
			return "", err
		}
		return b.bind(string(data)) + "::jsonb", nil
	}
	arg, err := literalToParam(v)
	if err != nil {
		return "", err
	}
	return b.bind(arg), nil
}

// fieldRef is a resolved field: a column or a path into doc.
type fieldRef struct {
	column string
	path   []string
}

func resolveField(field string) (fieldRef, error) {
	if !queryir.ValidField(field) {
		return fieldRef{}, fmt.Errorf("invalid field name %q", field)
	}
	if col, ok := columns[field]; ok {
		return fieldRef{column: col}, nil
	}
	return fieldRef{path: strings.Split(field, ".")}, nil
}

// expr renders the value expression for a field.
func (b *builder) expr(f fieldRef) string {
	if f.column != "" {
		return f.column
	}
	if b.dialect == Postgres {
		return fmt.Sprintf("doc #> '{%s}'", strings.Join(f.path, ","))
	}
	return fmt.Sprintf("json_extract(doc, '$.%s')", strings.Join(f.path, "."))
}

// textExpr renders the field as text, for regular expressions.
func (b *builder) textExpr(f fieldRef) string {
	if f.column == "" && b.dialect == Postgres {
		return fmt.Sprintf("doc #>> '{%s}'", strings.Join(f.path, ","))
	}
	return b.expr(f)
}

// operand binds v for comparison with f. Columns hold plain text.
func (b *builder) operand(f fieldRef, v ir.Literal) (string, error) {
	if f.column == "" {
		return b.bindValue(v)
	}
	s, err := columnText(v)
	if err != nil {
		return "", err
	}
	return b.bind(s), nil
}

// isNull reports whether v compares as a missing value.
func isNull(v ir.Literal) bool {
	switch v.(type) {
	case nil, ir.Null, ir.Undefined:
		return true
	}
	return false
}

// nullTest renders "field is missing or null".
func (b *builder) nullTest(f fieldRef) string {
	e := b.expr(f)
	if f.column == "" && b.dialect == Postgres {
		return fmt.Sprintf("(%s IS NULL OR %s = 'null'::jsonb)", e, e)
	}
	return e + " IS NULL"
}

func (b *builder) predicate(p queryir.Predicate) (string, error) {
	if p == nil {
		return "1 = 1", nil // Always true
	}

	switch pred := p.(type) {
	case queryir.Compare:
		return b.compare(pred)
	case queryir.In:
		return b.in(pred)
	case queryir.Regex:
		return b.regex(pred)
	case queryir.Exists:
		return b.exists(pred)
	case queryir.Not:
		inner, err := b.predicate(pred.Inner)
		if err != nil {
			return "", err
		}
		return negate(inner), nil
	case queryir.And:
		return b.join(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return b.join(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// negate treats an unknown (NULL) inner result as a non-match, so a
// negated condition matches events that lack the field.
func negate(sql string) string {
	return fmt.Sprintf("NOT COALESCE((%s), FALSE)", sql)
}

func (b *builder) join(preds []queryir.Predicate, sep, empty string) (string, error) {
	if len(preds) == 0 {
		return empty, nil
	}
	if len(preds) == 1 {
		return b.predicate(preds[0])
	}

	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		sql, err := b.predicate(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

var sqlOps = map[queryir.CompareOp]string{
	queryir.OpEq:  "=",
	queryir.OpGt:  ">",
	queryir.OpGte: ">=",
	queryir.OpLt:  "<",
	queryir.OpLte: "<=",
}

func (b *builder) compare(c queryir.Compare) (string, error) {
	f, err := resolveField(c.Field)
	if err != nil {
		return "", err
	}
	e := b.expr(f)

	switch c.Op {
	case queryir.OpEq:
		if isNull(c.Value) {
			return b.nullTest(f), nil
		}
	case queryir.OpNe:
		if isNull(c.Value) {
			return negate(b.nullTest(f)), nil
		}
		v, err := b.operand(f, c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", e, e, v), nil
	}

	op, ok := sqlOps[c.Op]
	if !ok {
		return "", fmt.Errorf("unsupported comparison %q", c.Op)
	}
	if isNull(c.Value) {
		return "1 = 0", nil
	}
	v, err := b.operand(f, c.Value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", e, op, v), nil
}

func (b *builder) in(p queryir.In) (string, error) {
	f, err := resolveField(p.Field)
	if err != nil {
		return "", err
	}

	var (
		placeholders []string
		withNull     bool
	)
	for _, v := range p.Values {
		if isNull(v) {
			withNull = true
			continue
		}
		ph, err := b.operand(f, v)
		if err != nil {
			return "", err
		}
		placeholders = append(placeholders, ph)
	}

	var match string
	switch {
	case len(placeholders) == 0 && !withNull:
		match = "1 = 0"
	case len(placeholders) == 0:
		match = b.nullTest(f)
	case withNull:
		match = fmt.Sprintf("(%s OR %s IN (%s))", b.nullTest(f), b.expr(f), strings.Join(placeholders, ", "))
	default:
		match = fmt.Sprintf("%s IN (%s)", b.expr(f), strings.Join(placeholders, ", "))
	}

	if p.Negate {
		return negate(match), nil
	}
	return match, nil
}

func (b *builder) regex(r queryir.Regex) (string, error) {
	f, err := resolveField(r.Field)
	if err != nil {
		return "", err
	}
	ph := b.bind(r.Pattern)
	if b.dialect == Postgres {
		return fmt.Sprintf("%s ~ %s", b.textExpr(f), ph), nil
	}
	// X REGEXP Y calls the registered regexp(Y, X) function.
	return fmt.Sprintf("%s REGEXP %s", b.textExpr(f), ph), nil
}

func (b *builder) exists(x queryir.Exists) (string, error) {
	f, err := resolveField(x.Field)
	if err != nil {
		return "", err
	}

	var present string
	switch {
	case f.column != "":
		present = f.column + " IS NOT NULL"
	case b.dialect == Postgres:
		present = b.expr(f) + " IS NOT NULL"
	default:
		// json_type distinguishes a JSON null from a missing key.
		present = fmt.Sprintf("json_type(doc, '$.%s') IS NOT NULL", strings.Join(f.path, "."))
	}

	if x.Exists {
		return present, nil
	}
	return negate(present), nil
}

// orderBy renders the sort key followed by the insertion-order tiebreaker.
// An invalid sort field falls back to createdAt.
func (b *builder) orderBy(p ir.Paging) string {
	field := p.SortBy
	if field == "" || !queryir.ValidField(field) {
		field = "createdAt"
	}
	f, _ := resolveField(field)

	dir := "ASC"
	if p.SortOrder == ir.SortDesc {
		dir = "DESC"
	}

	key := b.expr(f)
	if b.dialect == SQLite {
		// COLLATE BINARY keeps text ordering stable across SQLite builds.
		key += " COLLATE BINARY"
	}
	return fmt.Sprintf("%s %s, seq %s", key, dir, dir)
}

func (b *builder) limit(p ir.Paging) string {
	var sb strings.Builder
	switch {
	case p.Limit >= 0:
		sb.WriteString(" LIMIT " + b.bind(p.Limit))
	case p.Offset > 0 && b.dialect == SQLite:
		// SQLite has no OFFSET without LIMIT.
		sb.WriteString(" LIMIT -1")
	}
	if p.Offset > 0 {
		sb.WriteString(" OFFSET " + b.bind(p.Offset))
	}
	return sb.String()
}

// literalToParam converts a literal to a SQLite parameter matching what
// json_extract returns for the same JSON value.
func literalToParam(v ir.Literal) (any, error) {
	switch val := v.(type) {
	case ir.Str:
		return string(val), nil
	case ir.Number:
		if val.IsInt() {
			return val.Int(), nil
		}
		return float64(val), nil
	case ir.Bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case ir.Null, ir.Undefined, nil:
		return nil, nil
	case ir.List, ir.Map:
		// json_extract returns nested values as minified JSON text; stored
		// documents are canonical, so canonical text compares equal.
		data, err := ir.MarshalCanonical(val)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return nil, fmt.Errorf("unsupported literal type for SQL parameter: %T", v)
	}
}

// columnText converts a literal compared against a text column.
func columnText(v ir.Literal) (string, error) {
	switch val := v.(type) {
	case ir.Str:
		return string(val), nil
	case ir.Number:
		return strconv.FormatFloat(float64(val), 'f', -1, 64), nil
	case ir.Bool:
		return strconv.FormatBool(bool(val)), nil
	default:
		return "", fmt.Errorf("cannot compare %T with a text column", v)
	}
}
