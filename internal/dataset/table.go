// Package dataset loads the NHGIS block group extract (CSV, Postgres or
// SQLite) into an in-memory table and validates API requests against it.
package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
)

// Well-known NHGIS columns.
const (
	ColTown       = "TOWN"
	ColState      = "STATEA"
	ColCounty     = "COUNTYA"
	ColTract      = "TRACTA"
	ColBlockGroup = "BLCK_GRPA"
)

// ErrColumnNotFound is returned when a computation needs a column the table
// does not have.
var ErrColumnNotFound = eris.New("dataset: column not found")

// ColumnError names the missing column.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string { return "dataset: column not found: " + e.Column }

// Is lets errors.Is match ErrColumnNotFound.
func (e *ColumnError) Is(target error) bool { return target == ErrColumnNotFound }

type cell struct {
	text  string
	num   float64
	isNum bool
}

// Table is an immutable, column-addressed copy of the extract. Blank and
// non-numeric cells are skipped by numeric accessors.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]cell
	towns   []string
}

// NewTable builds a table from column names and rows of driver values.
// Rows shorter than the header are padded with blanks.
func NewTable(columns []string, rows [][]any) (*Table, error) {
	if len(columns) == 0 {
		return nil, eris.New("dataset: table has no columns")
	}

	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]cell, 0, len(rows)),
	}
	for i, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, eris.Errorf("dataset: duplicate column %q", c)
		}
		t.index[c] = i
	}

	for n, r := range rows {
		if len(r) > len(columns) {
			return nil, eris.Errorf("dataset: row %d has %d cells, header has %d", n, len(r), len(columns))
		}
		cells := make([]cell, len(columns))
		for i, v := range r {
			cells[i] = toCell(v)
		}
		t.rows = append(t.rows, cells)
	}

	if ti, ok := t.index[ColTown]; ok {
		seen := make(map[string]bool)
		for _, r := range t.rows {
			if town := r[ti].text; town != "" && !seen[town] {
				seen[town] = true
				t.towns = append(t.towns, town)
			}
		}
		sort.Strings(t.towns)
	}

	return t, nil
}

// Columns returns the column names in source order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// HasColumn reports whether the table has column name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Towns returns the distinct non-blank towns, sorted.
func (t *Table) Towns() []string { return append([]string(nil), t.towns...) }

// HasTown reports whether any row belongs to town.
func (t *Table) HasTown(town string) bool {
	i := sort.SearchStrings(t.towns, town)
	return i < len(t.towns) && t.towns[i] == town
}

// HasYear reports whether some column ends in "_<year>".
func (t *Table) HasYear(year string) bool {
	suffix := "_" + year
	for _, c := range t.columns {
		if strings.HasSuffix(c, suffix) {
			return true
		}
	}
	return false
}

// Sum adds column over the rows of town.
func (t *Table) Sum(town, column string) (float64, error) {
	ci, ok := t.index[column]
	if !ok {
		return 0, &ColumnError{Column: column}
	}
	ti, ok := t.index[ColTown]
	if !ok {
		return 0, &ColumnError{Column: ColTown}
	}

	var sum float64
	for _, r := range t.rows {
		if r[ti].text == town && r[ci].isNum {
			sum += r[ci].num
		}
	}
	return sum, nil
}

// Rows returns a handle per row.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = Row{t: t, i: i}
	}
	return out
}

// Row addresses one row of a Table.
type Row struct {
	t *Table
	i int
}

// Text returns the cell as text ("" when blank).
func (r Row) Text(column string) (string, error) {
	ci, ok := r.t.index[column]
	if !ok {
		return "", &ColumnError{Column: column}
	}
	return r.t.rows[r.i][ci].text, nil
}

// Number returns the cell as a number. The bool is false for blank or
// non-numeric cells.
func (r Row) Number(column string) (float64, bool, error) {
	ci, ok := r.t.index[column]
	if !ok {
		return 0, false, &ColumnError{Column: column}
	}
	c := r.t.rows[r.i][ci]
	return c.num, c.isNum, nil
}

// CountyFIPS returns the zero-padded 5-digit state and county code.
func (r Row) CountyFIPS() (string, error) {
	state, err := r.Text(ColState)
	if err != nil {
		return "", err
	}
	county, err := r.Text(ColCounty)
	if err != nil {
		return "", err
	}
	return zfill(state, 2) + zfill(county, 3), nil
}

// GEOID returns the 12-character block group identifier: state(2) +
// county(3) + tract(6) + block group.
func (r Row) GEOID() (string, error) {
	fips, err := r.CountyFIPS()
	if err != nil {
		return "", err
	}
	tract, err := r.Text(ColTract)
	if err != nil {
		return "", err
	}
	bg, err := r.Text(ColBlockGroup)
	if err != nil {
		return "", err
	}
	return fips + zfill(tract, 6) + bg, nil
}

// CountyFIPS returns the distinct county codes in first-seen order.
func (t *Table) CountyFIPS() ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, r := range t.Rows() {
		fips, err := r.CountyFIPS()
		if err != nil {
			return nil, err
		}
		if !seen[fips] {
			seen[fips] = true
			out = append(out, fips)
		}
	}
	return out, nil
}

func zfill(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// toCell normalizes a driver value. Integral numbers render without a
// fractional part so that codes like 25.0 read back as "25".
func toCell(v any) cell {
	switch x := v.(type) {
	case nil:
		return cell{}
	case string:
		return textCell(x)
	case []byte:
		return textCell(string(x))
	case int:
		return numCell(float64(x))
	case int16:
		return numCell(float64(x))
	case int32:
		return numCell(float64(x))
	case int64:
		return numCell(float64(x))
	case float32:
		return numCell(float64(x))
	case float64:
		return numCell(x)
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return cell{}
		}
		return numCell(f.Float64)
	default:
		return textCell(fmt.Sprint(x))
	}
}

func textCell(s string) cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return cell{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		c := numCell(f)
		// Keep the source spelling of codes such as "0250" unless it
		// carries a fractional part.
		if !strings.ContainsAny(s, ".eE") {
			c.text = s
		}
		return c
	}
	return cell{text: s}
}

func numCell(f float64) cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return cell{}
	}
	return cell{text: strconv.FormatFloat(f, 'f', -1, 64), num: f, isNum: true}
}
