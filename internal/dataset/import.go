package dataset

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/missing-middle/internal/config"
)

// Geography codes are stored as text so leading zeros survive a round trip.
var textColumns = map[string]bool{
	ColTown: true, ColState: true, ColCounty: true, ColTract: true, ColBlockGroup: true,
}

// copyPool is the subset of pgxpool.Pool used by ImportPostgres.
type copyPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// columnTypes reports, per column, whether every non-blank cell is numeric.
func (t *Table) columnTypes() []bool {
	numeric := make([]bool, len(t.columns))
	for i, c := range t.columns {
		if textColumns[c] {
			continue
		}
		numeric[i] = true
		for _, r := range t.rows {
			if r[i].text != "" && !r[i].isNum {
				numeric[i] = false
				break
			}
		}
	}
	return numeric
}

// values returns the rows as driver values. Blank cells become NULL.
func (t *Table) values(numeric []bool) [][]any {
	out := make([][]any, len(t.rows))
	for n, r := range t.rows {
		row := make([]any, len(r))
		for i, c := range r {
			switch {
			case c.text == "":
				row[i] = nil
			case numeric[i]:
				row[i] = c.num
			default:
				row[i] = c.text
			}
		}
		out[n] = row
	}
	return out
}

func createStatement(table string, columns []string, numeric []bool, numType string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		typ := "TEXT"
		if numeric[i] {
			typ = numType
		}
		defs[i] = pgx.Identifier{c}.Sanitize() + " " + typ
	}
	return "CREATE TABLE IF NOT EXISTS " + pgx.Identifier{table}.Sanitize() + " (" + strings.Join(defs, ", ") + ")"
}

// ImportPostgres creates table if needed, empties it and bulk-loads t with
// the COPY protocol.
func ImportPostgres(ctx context.Context, p copyPool, table string, t *Table) (int64, error) {
	numeric := t.columnTypes()
	if _, err := p.Exec(ctx, createStatement(table, t.columns, numeric, "DOUBLE PRECISION")); err != nil {
		return 0, eris.Wrapf(err, "dataset: create %s", table)
	}
	if _, err := p.Exec(ctx, "TRUNCATE "+pgx.Identifier{table}.Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "dataset: truncate %s", table)
	}
	if t.Len() == 0 {
		return 0, nil
	}

	n, err := p.CopyFrom(ctx, pgx.Identifier{table}, t.Columns(), pgx.CopyFromRows(t.values(numeric)))
	if err != nil {
		return 0, eris.Wrapf(err, "dataset: COPY INTO %s", table)
	}
	zap.L().Info("dataset: imported postgres table", zap.String("table", table), zap.Int64("rows", n))
	return n, nil
}

// ImportSQLite replaces the contents of table with t inside one transaction.
func ImportSQLite(ctx context.Context, db *sql.DB, table string, t *Table) (int64, error) {
	numeric := t.columnTypes()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "dataset: begin sqlite import")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, createStatement(table, t.columns, numeric, "REAL")); err != nil {
		return 0, eris.Wrapf(err, "dataset: create %s", table)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "dataset: clear %s", table)
	}

	cols := make([]string, len(t.columns))
	marks := make([]string, len(t.columns))
	for i, c := range t.columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+pgx.Identifier{table}.Sanitize()+
		" ("+strings.Join(cols, ", ")+") VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return 0, eris.Wrapf(err, "dataset: prepare insert %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, row := range t.values(numeric) {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, eris.Wrapf(err, "dataset: insert row %d into %s", n, table)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "dataset: commit %s", table)
	}
	zap.L().Info("dataset: imported sqlite table", zap.String("table", table), zap.Int64("rows", n))
	return n, nil
}

// Import writes t into the database named by cfg. The csv driver has no
// destination and is rejected.
func Import(ctx context.Context, cfg config.DataConfig, t *Table) (int64, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return 0, eris.Wrap(err, "dataset: connect postgres")
		}
		defer pool.Close()
		return ImportPostgres(ctx, pool, cfg.Table, t)
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.DatabaseURL)
		if err != nil {
			return 0, eris.Wrap(err, "dataset: open sqlite")
		}
		defer db.Close() //nolint:errcheck
		return ImportSQLite(ctx, db, cfg.Table, t)
	default:
		return 0, eris.Errorf("dataset: cannot import into driver %q", cfg.Driver)
	}
}
