// Package storage persists audit records: one overwritten "latest" slot and
// a history log capped to the newest entries.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"AEOAuditor/internal/config"
	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/ports"
)

// Open builds the configured backend. The returned close func is never nil.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ports.RecordStore, func() error, error) {
	noop := func() error { return nil }
	limit := clampLimit(cfg.HistoryLimit)

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "file":
		store := NewFileStore(
			filepath.Join(cfg.Dir, cfg.LatestFile),
			filepath.Join(cfg.Dir, cfg.HistoryFile),
			limit,
			logger,
		)
		return store, noop, nil
	case "sql":
		store, err := OpenSQLStore(ctx, cfg.SQL.Driver, cfg.SQL.DSN, limit, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case "s3":
		store, err := NewS3Store(ctx, cfg.S3, limit, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// clampLimit bounds a configured history size to (0, domain.HistoryLimit].
func clampLimit(limit int) int {
	if limit <= 0 || limit > domain.HistoryLimit {
		return domain.HistoryLimit
	}
	return limit
}

// trimHistory keeps the newest limit entries, evicting from the front.
func trimHistory(history []domain.AuditRecord, limit int) []domain.AuditRecord {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	return append([]domain.AuditRecord(nil), history[len(history)-limit:]...)
}

func encodeRecord(record domain.AuditRecord) ([]byte, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

func encodeHistory(history []domain.AuditRecord) ([]byte, error) {
	if history == nil {
		history = []domain.AuditRecord{}
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}
	return data, nil
}

// decodeHistory treats an empty or corrupt document as an empty history.
func decodeHistory(data []byte, logger *slog.Logger, source string) []domain.AuditRecord {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var history []domain.AuditRecord
	if err := json.Unmarshal(data, &history); err != nil {
		logger.Warn("history is unreadable, starting fresh", "source", source, "err", err)
		return nil
	}
	return history
}
