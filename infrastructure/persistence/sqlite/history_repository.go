// Package sqlite stores decision history in a local SQLite database
package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"decisionmap/domain/history"
	pkgerrors "decisionmap/pkg/errors"
)

// timeLayout is fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "decision records",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS decision_records (
				id         TEXT PRIMARY KEY,
				created_at TEXT NOT NULL,
				domain     TEXT NOT NULL,
				title      TEXT NOT NULL,
				payload    TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_records_created ON decision_records(created_at DESC, id DESC)`,
		},
	},
	{
		version:     2,
		description: "domain filter index",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_records_domain ON decision_records(domain, created_at DESC)`,
		},
	},
}

// HistoryRepository implements ports.HistoryRepository on SQLite
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the database at path (":memory:" for tests) and
// applies pending migrations.
func Open(path string, logger *zap.Logger) (*HistoryRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	r := &HistoryRepository{db: db, logger: logger}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database
func (r *HistoryRepository) Close() error {
	return r.db.Close()
}

// SchemaVersion returns the applied schema version
func (r *HistoryRepository) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}

func (r *HistoryRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	current, err := r.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", m.version, m.description, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version(version, applied_at) VALUES(?, ?)",
			m.version, time.Now().UTC().Format(timeLayout)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
		r.logger.Info("Applied history migration", zap.Int("version", m.version), zap.String("description", m.description))
	}
	return nil
}

// Save implements ports.HistoryRepository
func (r *HistoryRepository) Save(ctx context.Context, record history.DecisionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO decision_records(id, created_at, domain, title, payload)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, domain = excluded.domain,
			title = excluded.title, payload = excluded.payload`,
		record.ID, record.CreatedAt.UTC().Format(timeLayout), record.Domain, record.Title, string(payload))
	if err != nil {
		return pkgerrors.NewDatabaseError("save record", err)
	}
	return nil
}

// GetByID implements ports.HistoryRepository
func (r *HistoryRepository) GetByID(ctx context.Context, id string) (history.DecisionRecord, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM decision_records WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return history.DecisionRecord{}, pkgerrors.ErrRecordNotFound
	}
	if err != nil {
		return history.DecisionRecord{}, pkgerrors.NewDatabaseError("get record", err)
	}
	return decode(payload)
}

// List implements ports.HistoryRepository. Pages are keyed on
// (created_at, id) so inserts do not shift later pages.
func (r *HistoryRepository) List(ctx context.Context, opts history.ListOptions) (history.Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []interface{}
	if opts.Domain != "" {
		where = append(where, "domain = ?")
		args = append(args, opts.Domain)
	}
	if opts.Cursor != "" {
		createdAt, id, err := decodeCursor(opts.Cursor)
		if err != nil {
			return history.Page{}, err
		}
		where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, createdAt, createdAt, id)
	}

	query := "SELECT created_at, id, payload FROM decision_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return history.Page{}, pkgerrors.NewDatabaseError("list records", err)
	}
	defer rows.Close()

	page := history.Page{Records: make([]history.DecisionRecord, 0, limit)}
	var lastCreated, lastID string
	for rows.Next() {
		var createdAt, id, payload string
		if err := rows.Scan(&createdAt, &id, &payload); err != nil {
			return history.Page{}, pkgerrors.NewDatabaseError("scan record", err)
		}
		if len(page.Records) == limit {
			page.HasMore = true
			break
		}
		rec, err := decode(payload)
		if err != nil {
			r.logger.Warn("Skipping unreadable record", zap.String("record_id", id), zap.Error(err))
			continue
		}
		page.Records = append(page.Records, rec)
		lastCreated, lastID = createdAt, id
	}
	if err := rows.Err(); err != nil {
		return history.Page{}, pkgerrors.NewDatabaseError("list records", err)
	}
	if page.HasMore {
		page.NextCursor = encodeCursor(lastCreated, lastID)
	}
	return page, nil
}

// Delete implements ports.HistoryRepository
func (r *HistoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM decision_records WHERE id = ?", id)
	if err != nil {
		return pkgerrors.NewDatabaseError("delete record", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

// All implements ports.HistoryRepository
func (r *HistoryRepository) All(ctx context.Context) ([]history.DecisionRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT payload FROM decision_records ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load records", err)
	}
	defer rows.Close()

	var out []history.DecisionRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, pkgerrors.NewDatabaseError("scan record", err)
		}
		rec, err := decode(payload)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func decode(payload string) (history.DecisionRecord, error) {
	var rec history.DecisionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return history.DecisionRecord{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

func encodeCursor(createdAt, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(createdAt + "|" + id))
}

func decodeCursor(cursor string) (string, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", "", pkgerrors.NewValidationError("invalid cursor")
	}
	createdAt, id, ok := strings.Cut(string(raw), "|")
	if !ok || createdAt == "" || id == "" {
		return "", "", pkgerrors.NewValidationError("invalid cursor")
	}
	return createdAt, id, nil
}
