package rental

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore keeps every flat table as one SQLite table of TEXT columns.
// Row order is insertion order (rowid). Each Save replaces the whole table
// inside a single transaction.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSQLiteStore opens (or creates) the SQLite database at dbPath.
func NewSQLiteStore(dbPath string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create meta: %w", err)
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// Close closes the DB.
func (d *SQLiteStore) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func versionKey(s Schema) string { return "schema_version:" + s.Name }

// migrate creates the table for s when absent and adds any expected column
// the stored table lacks. It returns the stored column order after migration
// and the columns that had to be added.
func (d *SQLiteStore) migrate(s Schema) ([]string, []string, error) {
	cols, err := d.columns(s.Name)
	if err != nil {
		return nil, nil, err
	}

	var current int
	_ = d.db.QueryRow(`SELECT value FROM meta WHERE key=?`, versionKey(s)).Scan(&current)
	if len(cols) > 0 && current >= s.Version && containsAll(cols, s.ColumnNames()) {
		return cols, nil, nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var added []string
	if len(cols) == 0 {
		defs := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			defs[i] = quoteIdent(c.Name) + " TEXT"
		}
		stmt := fmt.Sprintf(`CREATE TABLE %s (%s);`, quoteIdent(s.Name), strings.Join(defs, ", "))
		if _, err := tx.Exec(stmt); err != nil {
			return nil, nil, fmt.Errorf("create %s: %w", s.Name, err)
		}
		d.log.Info("creating table", zap.String("table", s.Name))
		cols = s.ColumnNames()
	} else {
		have := make(map[string]bool, len(cols))
		for _, c := range cols {
			have[c] = true
		}
		for _, c := range s.Columns {
			if have[c.Name] {
				continue
			}
			stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT NOT NULL DEFAULT %s;`,
				quoteIdent(s.Name), quoteIdent(c.Name), quoteLiteral(c.Default))
			if _, err := tx.Exec(stmt); err != nil {
				return nil, nil, fmt.Errorf("migrate %s: %w", s.Name, err)
			}
			cols = append(cols, c.Name)
			added = append(added, c.Name)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES(?,?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, versionKey(s), strconv.Itoa(s.Version)); err != nil {
		return nil, nil, fmt.Errorf("apply migration: %w", err)
	}
	return cols, added, tx.Commit()
}

func (d *SQLiteStore) columns(table string) ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf(`PRAGMA table_info(%s);`, quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads every row of the table for s in insertion order.
func (d *SQLiteStore) Load(s Schema) (*Table, error) {
	stored, added, err := d.migrate(s)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		d.log.Info("migrated columns", zap.String("table", s.Name), zap.Strings("columns", added))
	}

	quoted := make([]string, len(stored))
	for i, c := range stored {
		quoted[i] = quoteIdent(c)
	}
	rows, err := d.db.Query(fmt.Sprintf(`SELECT %s FROM %s ORDER BY rowid`,
		strings.Join(quoted, ","), quoteIdent(s.Name)))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.Name, err)
	}
	defer rows.Close()

	var raw [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(stored))
		ptrs := make([]any, len(stored))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("load %s: %w", s.Name, err)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = v.String
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", s.Name, err)
	}

	t, report := normalize(s, stored, raw)
	report.log(d.log, s.Name)
	return t, nil
}

// Save replaces the stored rows of s with t in one transaction. Extra
// columns of t the stored table does not have yet are added first.
func (d *SQLiteStore) Save(s Schema, t *Table) error {
	stored, _, err := d.migrate(s)
	if err != nil {
		return err
	}
	cols := orderColumns(s, t.Columns)

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	have := make(map[string]bool, len(stored))
	for _, c := range stored {
		have[c] = true
	}
	for _, c := range cols {
		if have[c] {
			continue
		}
		if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT;`, quoteIdent(s.Name), quoteIdent(c))); err != nil {
			return fmt.Errorf("save %s: %w", s.Name, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s;`, quoteIdent(s.Name))); err != nil {
		return fmt.Errorf("save %s: %w", s.Name, err)
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		marks[i] = "?"
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s(%s) VALUES(%s)`,
		quoteIdent(s.Name), strings.Join(quoted, ","), strings.Join(marks, ",")))
	if err != nil {
		return fmt.Errorf("save %s: %w", s.Name, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for _, rec := range t.Rows {
		for i, c := range cols {
			args[i] = rec[c]
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("save %s: %w", s.Name, err)
		}
	}
	return tx.Commit()
}

func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func containsAll(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}
