package consolidate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/tonyg-mp/pubchem/internal/tree"
)

// SQLiteTable is the table written by WriteSQLite
const SQLiteTable = "pubchem_wide"

// sqliteBatchRows keeps each INSERT under the bound-variable limit
const sqliteBatchRows = 500

var integerColumns = map[string]bool{
	ColCID:            true,
	ColSynonymsN:      true,
	ColPatentIDsN:     true,
	ColMeSHN:          true,
	ColFDAN:           true,
	ColClinicalTrials: true,
	ColIUPHARHID:      true,
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// WriteSQLite replaces SQLiteTable in the database at path with wide
func WriteSQLite(ctx context.Context, path string, wide *Wide) (retErr error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() { _ = db.Close() }()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(SQLiteTable)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(wide.Columns)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	cols := make([]string, len(wide.Columns))
	for i, c := range wide.Columns {
		cols[i] = quoteIdent(c)
	}

	for start := 0; start < len(wide.Rows); start += sqliteBatchRows {
		end := min(start+sqliteBatchRows, len(wide.Rows))
		insert := sq.Insert(quoteIdent(SQLiteTable)).Columns(cols...)
		for _, row := range wide.Rows[start:end] {
			vals := make([]any, len(row))
			for i, cell := range row {
				vals[i] = sqlValue(cell)
			}
			insert = insert.Values(vals...)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func createTableSQL(columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		typ := "TEXT"
		if integerColumns[c] {
			typ = "INTEGER"
		}
		if c == ColCID {
			typ += " PRIMARY KEY"
		}
		defs[i] = quoteIdent(c) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(SQLiteTable), strings.Join(defs, ", "))
}

func sqlValue(v tree.Value) any {
	switch v.Kind() {
	case tree.Null:
		return nil
	case tree.String:
		s, _ := v.Str()
		return s
	case tree.Number:
		if n, ok := v.Int(); ok {
			return n
		}
		s, _ := v.Text()
		return s
	default:
		return v.String()
	}
}
