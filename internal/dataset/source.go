package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/missing-middle/internal/config"
)

// Source loads the extract.
type Source interface {
	Load(ctx context.Context) (*Table, error)
}

// Open returns the source configured by cfg.Driver.
func Open(ctx context.Context, cfg config.DataConfig) (Source, func(), error) {
	switch cfg.Driver {
	case "", "csv":
		return &CSVSource{Path: cfg.CSVFile}, func() {}, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "dataset: connect postgres")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, eris.Wrap(err, "dataset: ping postgres")
		}
		return NewPostgresSource(pool, cfg.Table), pool.Close, nil
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "dataset: open sqlite")
		}
		return &SQLiteSource{DB: db, Table: cfg.Table}, func() { _ = db.Close() }, nil
	default:
		return nil, nil, eris.Errorf("dataset: unknown driver %q", cfg.Driver)
	}
}

// CSVSource reads a header-first CSV file.
type CSVSource struct {
	Path string
}

// Load reads the whole file. A missing file is reported as fs.ErrNotExist.
func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", s.Path)
	}
	defer f.Close() //nolint:errcheck

	t, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", s.Path)
	}
	zap.L().Info("dataset: loaded csv",
		zap.String("path", s.Path), zap.Int("rows", t.Len()), zap.Int("towns", len(t.towns)))
	return t, nil
}

// ReadCSV parses a header-first CSV stream into a table.
func ReadCSV(ctx context.Context, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: empty csv")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv header")
	}

	var rows [][]any
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "dataset: csv cancelled")
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read csv row")
		}
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		rows = append(rows, row)
	}

	return NewTable(header, rows)
}

// pool defines the minimal database pool interface used by PostgresSource.
type pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads every row of a Postgres table.
type PostgresSource struct {
	pool  pool
	table string
}

// NewPostgresSource creates a source reading table through p.
func NewPostgresSource(p pool, table string) *PostgresSource {
	return &PostgresSource{pool: p, table: table}
}

// Load selects the table.
func (s *PostgresSource) Load(ctx context.Context) (*Table, error) {
	query := "SELECT * FROM " + pgx.Identifier{s.table}.Sanitize()
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: query %s", s.table)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}

	var data [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: scan %s", s.table)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: iterate %s", s.table)
	}

	t, err := NewTable(columns, data)
	if err != nil {
		return nil, err
	}
	zap.L().Info("dataset: loaded postgres table", zap.String("table", s.table), zap.Int("rows", t.Len()))
	return t, nil
}

// SQLiteSource reads every row of a SQLite table.
type SQLiteSource struct {
	DB    *sql.DB
	Table string
}

// Load selects the table.
func (s *SQLiteSource) Load(ctx context.Context) (*Table, error) {
	query := "SELECT * FROM " + pgx.Identifier{s.Table}.Sanitize()
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: query %s", s.Table)
	}
	defer rows.Close() //nolint:errcheck

	columns, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: sqlite columns")
	}

	var data [][]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "dataset: scan %s", s.Table)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: iterate %s", s.Table)
	}

	t, err := NewTable(columns, data)
	if err != nil {
		return nil, err
	}
	zap.L().Info("dataset: loaded sqlite table", zap.String("table", s.Table), zap.Int("rows", t.Len()))
	return t, nil
}
