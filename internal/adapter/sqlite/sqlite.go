// Package sqlite implements the domain repositories on an embedded SQLite
// file through gorm. It backs the local CLI.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cadence/internal/domain"

	gsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps a *gorm.DB and implements domain repository interfaces.
type DB struct {
	gorm *gorm.DB
	now  func() time.Time
}

var (
	_ domain.UserRepository         = (*DB)(nil)
	_ domain.TaskRepository         = (*DB)(nil)
	_ domain.FocusSessionRepository = (*DB)(nil)
	_ domain.ReviewRepository       = (*DB)(nil)
	_ domain.SessionRepository      = (*SessionRepo)(nil)
)

// Open opens (creating if needed) the database file at path and migrates it.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	g, err := gorm.Open(gsqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection keeps writes ordered.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{gorm: g, now: time.Now}
	if err := d.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// WithClock overrides the clock used to stamp user and login-session rows.
func (d *DB) WithClock(now func() time.Time) *DB {
	d.now = now
	return d
}

// DefaultPath returns ~/.cadence/cadence.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cadence", "cadence.db"), nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *DB) migrate() error {
	if err := d.gorm.AutoMigrate(
		&userRow{},
		&sessionRow{},
		&taskRow{},
		&focusRow{},
		&reviewRow{},
	); err != nil {
		return err
	}
	return d.gorm.Exec("CREATE UNIQUE INDEX IF NOT EXISTS focus_sessions_one_open ON focus_sessions(user_id) WHERE end_time IS NULL").Error
}

func (d *DB) ctx(ctx context.Context) *gorm.DB {
	return d.gorm.WithContext(ctx)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
