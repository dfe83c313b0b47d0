package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/ports"
)

const latestSlot = "latest"

// SQLStore persists records in SQLite or Postgres. Records are stored as
// JSON text so the schema does not track the record shape.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	driver  string
	limit   int
	logger  *slog.Logger
}

var _ ports.RecordStore = (*SQLStore)(nil)

// OpenSQLStore opens the database and creates the tables when missing.
// Supported drivers: "sqlite" and "postgres".
func OpenSQLStore(ctx context.Context, driver, dsn string, limit int, logger *slog.Logger) (*SQLStore, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		driver = "sqlite"
	}
	if driver != "sqlite" && driver != "postgres" {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := NewSQLStore(db, driver, limit, logger)
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an already opened handle; call OpenSQLStore to also migrate.
func NewSQLStore(db *sql.DB, driver string, limit int, logger *slog.Logger) *SQLStore {
	limit = clampLimit(limit)
	if logger == nil {
		logger = slog.Default()
	}
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == "postgres" {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &SQLStore{
		db:      db,
		builder: builder,
		driver:  driver,
		limit:   limit,
		logger:  logger.With("component", "sql_store"),
	}
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	historyID := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == "postgres" {
		historyID = "id BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_latest (
			slot TEXT PRIMARY KEY,
			record TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_history (
			` + historyID + `,
			audit_id TEXT NOT NULL,
			url TEXT NOT NULL,
			aeo_score INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			record TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveLatest upserts the single latest row.
func (s *SQLStore) SaveLatest(ctx context.Context, record domain.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	query, args, err := s.builder.
		Insert("audit_latest").
		Columns("slot", "record").
		Values(latestSlot, string(data)).
		Suffix("ON CONFLICT (slot) DO UPDATE SET record = EXCLUDED.record").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert latest: %w", err)
	}
	return nil
}

// AppendHistory inserts the record and evicts everything but the newest rows
// in one transaction.
func (s *SQLStore) AppendHistory(ctx context.Context, record domain.AuditRecord) (err error) {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	insert, insertArgs, err := s.builder.
		Insert("audit_history").
		Columns("audit_id", "url", "aeo_score", "created_at", "record").
		Values(record.Metadata.AuditID, record.Metadata.URL, record.BasicMetrics.AEOScore, record.Metadata.Timestamp.UTC(), string(data)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	evict, evictArgs, err := s.builder.
		Delete("audit_history").
		Where("id NOT IN (SELECT id FROM audit_history ORDER BY id DESC LIMIT ?)", s.limit).
		ToSql()
	if err != nil {
		return fmt.Errorf("build eviction: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, insert, insertArgs...); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	if _, err = tx.ExecContext(ctx, evict, evictArgs...); err != nil {
		return fmt.Errorf("evict history: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// Latest returns nil when no record was saved yet.
func (s *SQLStore) Latest(ctx context.Context) (*domain.AuditRecord, error) {
	query, args, err := s.builder.
		Select("record").
		From("audit_latest").
		Where(sq.Eq{"slot": latestSlot}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var raw string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest: %w", err)
	}

	var record domain.AuditRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decode latest: %w", err)
	}
	return &record, nil
}

// History returns entries oldest first; undecodable rows are skipped.
func (s *SQLStore) History(ctx context.Context) ([]domain.AuditRecord, error) {
	query, args, err := s.builder.
		Select("id", "record").
		From("audit_history").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var history []domain.AuditRecord
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var record domain.AuditRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			s.logger.Warn("skipping corrupt history row", "id", id, "err", err)
			continue
		}
		history = append(history, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return history, nil
}
