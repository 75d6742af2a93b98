package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nhle/notification-center/internal/model"
)

// SQLiteStore persists feed state and the pending queue in a local
// SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Another process (the push command) may hold the write lock briefly.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, logger: zap.NewNop()}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// SetLogger routes queue warnings to l. A nil l silences them.
func (s *SQLiteStore) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// KV returns a key-value view scoped to owner.
func (s *SQLiteStore) KV(owner string) KV {
	return &ownerKV{db: s.db, owner: owner}
}

// ownerKV implements KV over the kv table for a single owner.
type ownerKV struct {
	db    *sqlx.DB
	owner string
}

// Get reads a value; a missing row is ok=false, not an error.
func (k *ownerKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := k.db.GetContext(ctx, &value,
		"SELECT value FROM kv WHERE owner = ? AND key = ?", k.owner, key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes or replaces a value.
func (k *ownerKV) Set(ctx context.Context, key, value string) error {
	_, err := k.db.ExecContext(ctx, `
		INSERT INTO kv (owner, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(owner, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		k.owner, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

// pendingRow is one queued notification.
type pendingRow struct {
	Seq     int64  `db:"seq"`
	Payload string `db:"payload"`
}

// Enqueue appends a notification to the pending queue of its owner.
func (s *SQLiteStore) Enqueue(ctx context.Context, n model.Notification) error {
	if n.Owner == "" {
		return fmt.Errorf("enqueueing notification %s: owner must not be empty", n.ID)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling notification %s: %w", n.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_notifications (id, owner, payload, enqueued_at)
		VALUES (?, ?, ?, ?)`,
		n.ID, n.Owner, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("enqueueing notification %s: %w", n.ID, err)
	}
	return nil
}

// Claim removes and returns up to limit pending notifications for owner in
// enqueue order. Rows that fail to decode are logged and dropped with the
// batch so a bad payload cannot wedge the queue.
func (s *SQLiteStore) Claim(
	ctx context.Context,
	owner string,
	limit int,
) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var rows []pendingRow
	err = tx.SelectContext(ctx, &rows, `
		SELECT seq, payload FROM pending_notifications
		WHERE owner = ?
		ORDER BY seq
		LIMIT ?`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("selecting pending notifications: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	seqs := make([]int64, len(rows))
	out := make([]model.Notification, 0, len(rows))
	for i, r := range rows {
		seqs[i] = r.Seq
		var n model.Notification
		if err := json.Unmarshal([]byte(r.Payload), &n); err != nil {
			s.logger.Warn("dropping undecodable pending notification",
				zap.String("owner", owner),
				zap.Int64("seq", r.Seq),
				zap.Error(err),
			)
			continue
		}
		out = append(out, n)
	}

	query, args, err := sqlx.In("DELETE FROM pending_notifications WHERE seq IN (?)", seqs)
	if err != nil {
		return nil, fmt.Errorf("building claim delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("deleting claimed notifications: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}
	return out, nil
}

// PendingCount returns the number of queued notifications for owner.
func (s *SQLiteStore) PendingCount(ctx context.Context, owner string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM pending_notifications WHERE owner = ?", owner)
	if err != nil {
		return 0, fmt.Errorf("counting pending notifications: %w", err)
	}
	return n, nil
}
