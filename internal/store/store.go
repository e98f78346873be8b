package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
	"go.jetify.com/typeid"

	"github.com/Enfiniq/loomcal-sub000/internal/querysql"
)

//go:embed schema_sqlite.sql
var sqliteSchemaSQL string

//go:embed schema_postgres.sql
var postgresSchemaSQL string

// Schema version tracking (SQLite user_version):
// 0 - empty database
// 1 - events, users and user_configs tables
const currentSchemaVersion = 1

// sqliteDriver is go-sqlite3 with a regexp(pattern, text) function, which
// SQLite calls for the REGEXP operator.
const sqliteDriver = "sqlite3_loomcal"

// TimeLayout is how created_at and updated_at are stored. It sorts
// lexically in time order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", sqlRegexp, true)
		},
	})
}

// patterns caches compiled regular expressions across connections.
var patterns sync.Map // string -> *regexp.Regexp

// sqlRegexp implements the SQLite REGEXP operator. Missing fields (NULL)
// never match; numbers match against their decimal text.
func sqlRegexp(pattern string, value any) (bool, error) {
	var s string
	switch v := value.(type) {
	case nil:
		return false, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		s = fmt.Sprint(v)
	}

	re, ok := patterns.Load(pattern)
	if !ok {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return false, err
		}
		re, _ = patterns.LoadOrStore(pattern, compiled)
	}
	return re.(*regexp.Regexp).MatchString(s), nil
}

// Store executes compiled requests against a SQL event table. SQLite and
// Postgres share one implementation; only statement text differs.
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect querysql.Dialect
	sqlc    *querysql.SQLCompiler
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for created_at, updated_at and the
// duplicate window.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator replaces the typeid event id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

func newStore(db *sql.DB, d querysql.Dialect, opts []Option) *Store {
	s := &Store{
		db:      db,
		dialect: d,
		sqlc:    querysql.NewSQLCompiler(d),
		now:     time.Now,
		newID:   newEventID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newEventID returns a typeid such as evt_01h455vb4pex5vsknk084sn02q.
func newEventID() string {
	tid, err := typeid.WithPrefix("evt")
	if err != nil {
		// Only fails on an invalid prefix, and "evt" is valid.
		panic(fmt.Sprintf("typeid: %v", err))
	}
	return tid.String()
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return newStore(db, querysql.SQLite, opts), nil
}

// OpenPostgres connects to Postgres through a pgx pool and applies the
// schema. The pool is closed together with the Store.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	config.MaxConnLifetime = 10 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if _, err := db.ExecContext(ctx, postgresSchemaSQL); err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := newStore(db, querysql.Postgres, opts)
	s.pool = pool
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// Dialect reports which SQL flavour the store speaks.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind rewrites ? placeholders as $n for Postgres. Statements passed here
// never contain a literal question mark.
func (s *Store) rebind(query string) string {
	if s.dialect != querysql.Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimeLayout)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySQLiteSchema creates tables if they don't exist and records the
// schema version. A database written by a newer version is refused.
func applySQLiteSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(sqliteSchemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
