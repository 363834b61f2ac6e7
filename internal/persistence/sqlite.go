package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

// SQLiteDriverName is the go-sqlite3 driver with a Unicode-aware lower().
// The built-in lower() only folds ASCII.
const SQLiteDriverName = "sqlite3_unicode"

var registerSQLiteDriver sync.Once

func registerSQLite() {
	registerSQLiteDriver.Do(func() {
		sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", strings.ToLower, true)
			},
		})
	})
}

// SQLite wraps an embedded database handle.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite opens (creating if needed) the database file at cfg.Path.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", cfg.Path)
	registerSQLite()
	db, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent creates.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cfg.Path, err)
	}

	logger.Info("opened sqlite database", zap.String("path", cfg.Path))
	return &SQLite{DB: db}, nil
}

// Close releases the handle.
func (s *SQLite) Close() {
	if s != nil && s.DB != nil {
		_ = s.DB.Close()
	}
}

// Exec adapts the handle for RunMigrations.
func (s *SQLite) Exec(ctx context.Context, sql string) error {
	_, err := s.DB.ExecContext(ctx, sql)
	return err
}
