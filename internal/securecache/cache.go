// Package securecache stores short-lived scratch values in a local SQLite
// database. Each value is sealed in a password-derived AES-GCM envelope,
// so the database file leaks nothing without the password, and rows past
// their expiry behave as absent.
package securecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dcitarelli/workflow/internal/common"
	"github.com/dcitarelli/workflow/internal/cryptox"
	"github.com/dcitarelli/workflow/internal/dbx"
	"github.com/dcitarelli/workflow/internal/securecache/migrations"
)

// Cache is an encrypted, expiring key-value table.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the cache database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating cache database: %w", err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put seals plaintext with password and stores it under name, replacing
// any previous value. A non-positive ttl stores an already expired row.
func (c *Cache) Put(ctx context.Context, name, plaintext, password string, ttl time.Duration) error {
	env, err := cryptox.EncryptText(plaintext, password)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("serializing envelope: %w", err)
	}
	query := `INSERT INTO cache_entries (name, envelope, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET envelope = excluded.envelope,
			expires_at = excluded.expires_at`
	if _, err := c.db.ExecContext(ctx, query, name, string(payload), c.now().Add(ttl).UnixMilli()); err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// Get returns the decrypted value for name. A missing row, an expired
// row, or a wrong password all yield ErrCacheMiss; expired rows are
// removed on the way out.
func (c *Cache) Get(ctx context.Context, name, password string) (string, error) {
	var plaintext string
	miss := false
	err := dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var payload string
		var expiresAt int64
		row := tx.QueryRowContext(ctx, `SELECT envelope, expires_at FROM cache_entries WHERE name = ?`, name)
		if err := row.Scan(&payload, &expiresAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				miss = true
				return nil
			}
			return fmt.Errorf("failed to select cache entry: %w", err)
		}
		if expiresAt <= c.now().UnixMilli() {
			// Commit the delete; the miss is reported after the tx closes.
			miss = true
			if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE name = ?`, name); err != nil {
				return fmt.Errorf("failed to delete expired cache entry: %w", err)
			}
			return nil
		}
		env := &cryptox.Envelope{}
		if err := json.Unmarshal([]byte(payload), env); err != nil {
			miss = true
			return nil
		}
		value, ok := cryptox.DecryptEnvelope(env, password)
		if !ok {
			miss = true
			return nil
		}
		plaintext = value
		return nil
	})
	if err != nil {
		return "", err
	}
	if miss {
		return "", common.ErrCacheMiss
	}
	return plaintext, nil
}

// Delete removes the row for name. Deleting an absent name is not an
// error.
func (c *Cache) Delete(ctx context.Context, name string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired row and reports how many went.
func (c *Cache) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, c.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	return result.RowsAffected()
}
