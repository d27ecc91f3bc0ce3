package rental

import (
	"fmt"

	"go.uber.org/zap"
)

// Record is one row of a flat table, keyed by column name. A column absent
// from the map reads as the empty string.
type Record map[string]string

// Clone returns an independent copy of r.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Table is an ordered sequence of records plus the column order they are
// written in. Columns always starts with the schema's expected columns;
// anything after them is an extra column carried through untouched.
type Table struct {
	Columns []string
	Rows    []Record
}

// NewTable returns an empty table holding only the expected header.
func NewTable(s Schema) *Table {
	return &Table{Columns: s.ColumnNames()}
}

// Append adds rec at the end of the table.
func (t *Table) Append(rec Record) {
	t.Rows = append(t.Rows, rec)
}

// Filter keeps the rows for which keep returns true and reports how many
// rows were dropped.
func (t *Table) Filter(keep func(Record) bool) int {
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	removed := len(t.Rows) - len(kept)
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return removed
}

// Values returns rec's values in column order.
func (t *Table) Values(rec Record) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = rec[c]
	}
	return out
}

// orderColumns returns the schema's columns followed by every extra column
// of stored, in their stored order. Duplicates and blank names are dropped.
func orderColumns(s Schema, stored []string) []string {
	cols := s.ColumnNames()
	seen := make(map[string]bool, len(cols)+len(stored))
	for _, c := range cols {
		seen[c] = true
	}
	for _, c := range stored {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}
	return cols
}

// loadReport describes what normalize repaired or found suspicious.
type loadReport struct {
	missing  []string       // expected columns synthesized with defaults
	unnamed  []string       // placeholder columns for cells without a header
	invalid  map[string]int // KindInt column -> cells that are not integers
	rowCount int
}

func (r loadReport) log(log *zap.Logger, table string) {
	if len(r.missing) > 0 {
		log.Warn("synthesized missing columns", zap.String("table", table), zap.Strings("columns", r.missing))
	}
	if len(r.unnamed) > 0 {
		log.Warn("kept cells without a header under placeholder columns", zap.String("table", table), zap.Strings("columns", r.unnamed))
	}
	for col, n := range r.invalid {
		log.Warn("non-integer cells",
			zap.String("table", table),
			zap.String("column", col),
			zap.Int("cells", n),
			zap.Int("rows", r.rowCount),
		)
	}
}

// placeholderName returns a column name for position i (0-based) that is not
// already taken.
func placeholderName(i int, taken map[string]bool) string {
	name := fmt.Sprintf("Column %d", i+1)
	for taken[name] {
		name += "_"
	}
	return name
}

// normalize builds a table from a stored header and its raw rows. Expected
// columns the header lacks are filled with their defaults; cells with no
// header name (past its end or under a blank name) get a placeholder column
// so the next save keeps them. KindInt cells that do not parse are counted.
func normalize(s Schema, header []string, raw [][]string) (*Table, loadReport) {
	report := loadReport{invalid: make(map[string]int), rowCount: len(raw)}

	width := len(header)
	for _, values := range raw {
		width = max(width, len(values))
	}
	taken := make(map[string]bool, width)
	for _, h := range header {
		taken[h] = true
	}
	names := make([]string, width)
	copy(names, header)
	for i := range names {
		if names[i] != "" {
			continue
		}
		for _, values := range raw {
			if i < len(values) && values[i] != "" {
				names[i] = placeholderName(i, taken)
				taken[names[i]] = true
				report.unnamed = append(report.unnamed, names[i])
				break
			}
		}
	}

	present := make(map[string]bool, len(names))
	for _, h := range names {
		present[h] = true
	}
	for _, c := range s.Columns {
		if !present[c.Name] {
			report.missing = append(report.missing, c.Name)
		}
	}

	t := &Table{Columns: orderColumns(s, names)}
	for _, values := range raw {
		rec := make(Record, len(t.Columns))
		for i, h := range names {
			if h == "" {
				continue
			}
			if _, dup := rec[h]; dup {
				continue
			}
			if i < len(values) {
				rec[h] = values[i]
			} else {
				rec[h] = ""
			}
		}
		for _, c := range s.Columns {
			if !present[c.Name] {
				rec[c.Name] = c.Default
			}
			if c.Kind == KindInt && !c.Kind.Valid(rec[c.Name]) {
				report.invalid[c.Name]++
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, report
}
