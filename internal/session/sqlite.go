package session

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/collectorscorner/corner/pkg/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps the session in a local key-value table so it
// survives restarts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the state database at path and
// applies pending migrations. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("session.OpenSQLite: create state dir: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session.OpenSQLite: open: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("session.OpenSQLite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, sess domain.Session) error {
	values := map[string]string{
		KeyAccessToken:         sess.AccessToken,
		KeyAccessTokenExpires:  formatTime(sess.AccessTokenExpires),
		KeyRefreshToken:        sess.RefreshToken,
		KeyRefreshTokenExpires: formatTime(sess.RefreshTokenExpires),
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, key := range Keys {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO metadata (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, values[key]); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session.Save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Current(ctx context.Context) (domain.Session, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM metadata WHERE key IN (?, ?, ?, ?)`,
		KeyAccessToken, KeyAccessTokenExpires, KeyRefreshToken, KeyRefreshTokenExpires)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("session.Current: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	values := make(map[string]string, len(Keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return domain.Session{}, false, fmt.Errorf("session.Current: scan: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, false, fmt.Errorf("session.Current: %w", err)
	}

	token, ok := values[KeyAccessToken]
	if !ok || token == "" {
		return domain.Session{}, false, nil
	}

	sess := domain.Session{
		AccessToken:  token,
		RefreshToken: values[KeyRefreshToken],
	}
	if sess.AccessTokenExpires, err = parseTime(values[KeyAccessTokenExpires]); err != nil {
		return domain.Session{}, false, fmt.Errorf("session.Current: %w", err)
	}
	if sess.RefreshTokenExpires, err = parseTime(values[KeyRefreshTokenExpires]); err != nil {
		return domain.Session{}, false, fmt.Errorf("session.Current: %w", err)
	}
	return sess, true, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM metadata WHERE key IN (?, ?, ?, ?)`,
			KeyAccessToken, KeyAccessTokenExpires, KeyRefreshToken, KeyRefreshTokenExpires)
		return err
	})
	if err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
