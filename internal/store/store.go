package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/insightloom/internal/table"
)

// ErrUnknownTable is returned for table names the store does not list.
var ErrUnknownTable = errors.New("unknown table")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dbNumbers parses text cells coming back from a database; SQL text uses '.'
// as the decimal separator.
var dbNumbers = table.NumberFormat{DecimalSeparator: '.'}

// Store reads tables from a relational database.
type Store struct {
	db     *sql.DB
	driver string
}

// DetectDriver guesses the driver from a DSN: postgres URLs and key=value
// strings go to postgres, everything else is treated as a sqlite path.
func DetectDriver(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to dsn with the named driver and checks the connection.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "auto":
		driver = DetectDriver(dsn)
	case "sqlite", "sqlite3":
		driver = DriverSQLite
	case "postgres", "postgresql", "pg":
		driver = DriverPostgres
	default:
		return nil, fmt.Errorf("store: unsupported driver %q (use sqlite or postgres)", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if driver == DriverSQLite {
		// An in-memory database lives only as long as its connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// OpenMemory returns an empty in-memory sqlite store.
func OpenMemory(ctx context.Context) (*Store, error) {
	return Open(ctx, DriverSQLite, ":memory:")
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Driver returns the normalized driver name.
func (s *Store) Driver() string { return s.driver }

// Tables lists user tables in name order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	q := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	if s.driver == DriverPostgres {
		q = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store: list tables: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: list tables: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// checkTable makes sure name is a listed table before it is spliced into SQL.
func (s *Store) checkTable(ctx context.Context, name string) error {
	tables, err := s.Tables(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if t == name {
			return nil
		}
	}
	return fmt.Errorf("store: %w %q (available: %s)", ErrUnknownTable, name, strings.Join(tables, ", "))
}

// CountRows returns the number of rows of table name.
func (s *Store) CountRows(ctx context.Context, name string) (int, error) {
	if err := s.checkTable(ctx, name); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count %s: %w", name, err)
	}
	return n, nil
}

// ReadTable loads every row of table name.
func (s *Store) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	if err := s.checkTable(ctx, name); err != nil {
		return nil, err
	}
	t, err := s.query(ctx, name, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return t, nil
}

// MainTable returns the name of the table with the most rows; ties keep the
// first name in order.
func (s *Store) MainTable(ctx context.Context) (string, error) {
	tables, err := s.Tables(ctx)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", errors.New("store: database has no tables")
	}
	best, bestN := "", -1
	for _, name := range tables {
		n, err := s.CountRows(ctx, name)
		if err != nil {
			return "", err
		}
		if n > bestN {
			best, bestN = name, n
		}
	}
	return best, nil
}

// Query runs a caller-supplied statement and returns its result set.
func (s *Store) Query(ctx context.Context, q string) (*table.Table, error) {
	t, err := s.query(ctx, "query", q)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return t, nil
}

func (s *Store) query(ctx context.Context, name, q string, args ...any) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	cols := make([]*table.Column, len(names))
	for i, n := range names {
		cols[i] = &table.Column{Name: n}
	}
	raw := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range raw {
			cols[i].Values = append(cols[i].Values, fromSQL(v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table.New(name, cols)
}

func fromSQL(v any) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Value{}
	case int64:
		return table.NumberValue(float64(x))
	case float64:
		return table.NumberValue(x)
	case bool:
		return table.TextValue(fmt.Sprint(x))
	case []byte:
		return table.ParseCell(string(x), dbNumbers)
	case string:
		return table.ParseCell(x, dbNumbers)
	case time.Time:
		return table.TextValue(x.Format(time.RFC3339))
	default:
		return table.TextValue(fmt.Sprint(x))
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
