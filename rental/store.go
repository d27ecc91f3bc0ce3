package rental

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Store loads and saves whole flat tables. Save always overwrites the full
// table; there is no append-in-place.
type Store interface {
	Load(s Schema) (*Table, error)
	Save(s Schema, t *Table) error
	Close() error
}

// EnsureTables creates every managed table that is missing and resets the
// ones that are empty or unreadable to header-only.
func EnsureTables(st Store) error {
	for _, s := range AllSchemas {
		if _, err := st.Load(s); err != nil {
			return fmt.Errorf("ensure %s: %w", s.Name, err)
		}
	}
	return nil
}

// CSVStore keeps each table as "<name>.csv" inside a directory.
type CSVStore struct {
	dir string
	log *zap.Logger
}

// NewCSVStore returns a store rooted at dir, creating the directory if needed.
func NewCSVStore(dir string, log *zap.Logger) (*CSVStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVStore{dir: dir, log: log}, nil
}

// Path returns the file backing s.
func (c *CSVStore) Path(s Schema) string {
	return filepath.Join(c.dir, s.Name+".csv")
}

func (c *CSVStore) Close() error { return nil }

// Load reads the table for s. A missing file is created with the expected
// header; an empty or unparsable file is reset to header-only (the unparsable
// original is kept next to it with a ".corrupt" suffix). Expected columns the
// file lacks are synthesized with their defaults.
func (c *CSVStore) Load(s Schema) (*Table, error) {
	path := c.Path(s)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.log.Info("creating table", zap.String("table", s.Name), zap.String("path", path))
		t := NewTable(s)
		return t, c.Save(s, t)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, readErr := r.ReadAll()
	f.Close()

	if readErr != nil {
		return c.reset(s, fmt.Errorf("%w: %v", ErrMalformedTable, readErr), true)
	}
	if len(rows) == 0 || blankHeader(rows[0]) {
		return c.reset(s, fmt.Errorf("%w: no columns", ErrMalformedTable), false)
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t, report := normalize(s, header, rows[1:])
	report.log(c.log, s.Name)
	return t, nil
}

func (c *CSVStore) reset(s Schema, reason error, keepCopy bool) (*Table, error) {
	path := c.Path(s)
	fields := []zap.Field{zap.String("table", s.Name), zap.Error(reason)}
	if keepCopy {
		aside := path + ".corrupt"
		if err := os.Rename(path, aside); err != nil {
			return nil, fmt.Errorf("move aside %s: %w", path, err)
		}
		fields = append(fields, zap.String("kept", aside))
	}
	c.log.Warn("resetting table to header only", fields...)
	t := NewTable(s)
	return t, c.Save(s, t)
}

// Save writes t to a temporary file and renames it over the table, so a
// crash leaves either the old or the new file in place.
func (c *CSVStore) Save(s Schema, t *Table) error {
	path := c.Path(s)
	cols := orderColumns(s, t.Columns)

	tmp, err := os.CreateTemp(c.dir, "."+s.Name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", s.Name, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(cols); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", s.Name, err)
	}
	row := make([]string, len(cols))
	for _, rec := range t.Rows {
		for i, col := range cols {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("save %s: %w", s.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", s.Name, err)
	}
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", s.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", s.Name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save %s: %w", s.Name, err)
	}
	return nil
}

func blankHeader(h []string) bool {
	for _, v := range h {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
