package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/insightloom/internal/table"
)

// Import creates table name from t, replacing any table of the same name.
// Columns whose non-missing cells are all numbers become REAL, the rest TEXT.
func (s *Store) Import(ctx context.Context, name string, t *table.Table) error {
	cols := columnNames(t)
	defs := make([]string, len(cols))
	numeric := make([]bool, len(cols))
	for i, c := range t.Columns {
		numeric[i] = allNumeric(c)
		typ := "TEXT"
		if numeric[i] {
			typ = "REAL"
		}
		defs[i] = quoteIdent(cols[i]) + " " + typ
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: import %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return fmt.Errorf("store: import %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("store: import %s: %w", name, err)
	}
	if len(cols) > 0 {
		quoted := make([]string, len(cols))
		marks := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = quoteIdent(c)
			marks[i] = s.placeholder(i + 1)
		}
		ins := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(name), strings.Join(quoted, ", "), strings.Join(marks, ", "))
		stmt, err := tx.PrepareContext(ctx, ins)
		if err != nil {
			return fmt.Errorf("store: import %s: %w", name, err)
		}
		defer stmt.Close()
		args := make([]any, len(cols))
		for row := 0; row < t.Rows(); row++ {
			for i := range t.Columns {
				args[i] = toSQL(t.Cell(row, i), numeric[i])
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("store: import %s row %d: %w", name, row+1, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: import %s: %w", name, err)
	}
	return nil
}

func (s *Store) placeholder(n int) string {
	if s.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func toSQL(v table.Value, numeric bool) any {
	switch {
	case v.IsMissing():
		return nil
	case numeric:
		return v.Num
	default:
		return v.String()
	}
}

func allNumeric(c *table.Column) bool {
	seen := false
	for _, v := range c.Values {
		switch v.Kind {
		case table.Text:
			return false
		case table.Number:
			seen = true
		}
	}
	return seen
}

// columnNames makes header names usable as SQL identifiers: blanks get a
// positional name and duplicates the first numeric suffix no other header
// already uses.
func columnNames(t *table.Table) []string {
	base := make([]string, len(t.Columns))
	header := map[string]bool{}
	for i, c := range t.Columns {
		n := strings.TrimSpace(c.Name)
		if n == "" {
			n = fmt.Sprintf("column_%d", i+1)
		}
		base[i] = n
		header[strings.ToLower(n)] = true
	}
	out := make([]string, len(base))
	seen := map[string]bool{}
	for i, n := range base {
		if seen[strings.ToLower(n)] {
			for k := 2; ; k++ {
				c := fmt.Sprintf("%s_%d", base[i], k)
				if key := strings.ToLower(c); !seen[key] && !header[key] {
					n = c
					break
				}
			}
		}
		seen[strings.ToLower(n)] = true
		out[i] = n
	}
	return out
}
