package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/google/renameio"

	"AEOAuditor/internal/domain"
	"AEOAuditor/internal/ports"
)

// FileStore keeps the latest record and the history as JSON files. Writes
// replace files atomically; the mutex serializes read-modify-write within
// one process only.
type FileStore struct {
	mu          sync.Mutex
	latestPath  string
	historyPath string
	limit       int
	logger      *slog.Logger
}

var _ ports.RecordStore = (*FileStore)(nil)

// NewFileStore wires the two document paths.
func NewFileStore(latestPath, historyPath string, limit int, logger *slog.Logger) *FileStore {
	limit = clampLimit(limit)
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		latestPath:  latestPath,
		historyPath: historyPath,
		limit:       limit,
		logger:      logger.With("component", "file_store"),
	}
}

// SaveLatest overwrites the latest slot.
func (s *FileStore) SaveLatest(_ context.Context, record domain.AuditRecord) error {
	data, err := encodeRecord(record)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := renameio.WriteFile(s.latestPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.latestPath, err)
	}
	return nil
}

// AppendHistory appends and truncates to the newest entries.
func (s *FileStore) AppendHistory(_ context.Context, record domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.readHistory()
	if err != nil {
		return err
	}
	history = trimHistory(append(history, record), s.limit)

	data, err := encodeHistory(history)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(s.historyPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.historyPath, err)
	}
	return nil
}

// Latest returns nil when no audit has been saved yet.
func (s *FileStore) Latest(_ context.Context) (*domain.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.latestPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.latestPath, err)
	}

	var record domain.AuditRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.latestPath, err)
	}
	return &record, nil
}

// History returns entries oldest first.
func (s *FileStore) History(_ context.Context) ([]domain.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readHistory()
}

func (s *FileStore) readHistory() ([]domain.AuditRecord, error) {
	data, err := os.ReadFile(s.historyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("history is unreadable, starting fresh", "source", s.historyPath, "err", err)
		return nil, nil
	}
	return decodeHistory(data, s.logger, s.historyPath), nil
}
