package rental

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config selects where and how the tables are persisted.
type Config struct {
	DataDir string // directory holding the CSV files or the SQLite database
	Backend string // BackendCSV or BackendSQLite
	DBFile  string // SQLite file name, relative to DataDir
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{DataDir: ".", Backend: BackendCSV, DBFile: "rental.db"}
}

// EnvOr returns the environment variable for key or def when unset or empty.
func EnvOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// OpenStore opens the backend named by cfg.
func OpenStore(cfg Config, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", BackendCSV:
		return NewCSVStore(cfg.DataDir, log)
	case BackendSQLite:
		name := cfg.DBFile
		if name == "" {
			name = DefaultConfig().DBFile
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, name), log)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidInput, cfg.Backend)
	}
}
