package rental

import (
	"os"
	"path/filepath"
	"testing"
)

func tempCSV(t *testing.T) (*CSVStore, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := NewCSVStore(dir, nil)
	if err != nil {
		t.Fatalf("new csv store: %v", err)
	}
	return st, dir
}

func tempManager(t *testing.T) (*RentalManager, string) {
	t.Helper()
	st, dir := tempCSV(t)
	mgr, err := NewRentalManagerWithStore(st, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr, dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

// snapshot returns the contents of every table file in dir.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	for _, s := range AllSchemas {
		out[s.Name] = readFile(t, filepath.Join(dir, s.Name+".csv"))
	}
	return out
}
