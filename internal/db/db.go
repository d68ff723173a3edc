package db

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite file at path with WAL and foreign keys switched on
// for every pooled connection. Transactions take the write lock when they begin,
// so a writer waits for the one before it and then reads what it committed.
func InitDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", path, err)
	}

	slog.Info("Database connected", "path", path)
	return db, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}
