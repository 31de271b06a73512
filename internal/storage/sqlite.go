//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"coltrane/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := openAndPing(ctx, s.path)
	if err != nil {
		// Missing parent directory is recoverable once.
		if mkErr := os.MkdirAll(filepath.Dir(s.path), 0o755); mkErr != nil {
			return err
		}
		db, err = openAndPing(ctx, s.path)
		if err != nil {
			return err
		}
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func openAndPing(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *SQLiteStore) SaveCaseResult(ctx context.Context, rec model.CaseRecord) error {
	payload, err := EncodeCaseResult(rec)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "cases", rec.Key, payload)
}

func (s *SQLiteStore) GetCaseResult(ctx context.Context, key string) (model.CaseRecord, bool, error) {
	payload, ok, err := s.lookup(ctx, "cases", key)
	if err != nil || !ok {
		return model.CaseRecord{}, ok, err
	}
	rec, err := DecodeCaseResult(payload)
	if err != nil {
		return model.CaseRecord{}, false, fmt.Errorf("decode case %s: %w", key, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) ListCaseKeys(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT key FROM cases ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) SaveForcing(ctx context.Context, key string, rec model.ForcingRecord) error {
	payload, err := EncodeForcing(rec)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "forcings", key, payload)
}

func (s *SQLiteStore) GetForcing(ctx context.Context, key string) (model.ForcingRecord, bool, error) {
	payload, ok, err := s.lookup(ctx, "forcings", key)
	if err != nil || !ok {
		return model.ForcingRecord{}, ok, err
	}
	rec, err := DecodeForcing(payload)
	if err != nil {
		return model.ForcingRecord{}, false, fmt.Errorf("decode forcing %s: %w", key, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) SaveParameters(ctx context.Context, key string, rec model.ParametersRecord) error {
	payload, err := EncodeParameters(rec)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "parameters", key, payload)
}

func (s *SQLiteStore) GetParameters(ctx context.Context, key string) (model.ParametersRecord, bool, error) {
	payload, ok, err := s.lookup(ctx, "parameters", key)
	if err != nil || !ok {
		return model.ParametersRecord{}, ok, err
	}
	rec, err := DecodeParameters(payload)
	if err != nil {
		return model.ParametersRecord{}, false, fmt.Errorf("decode parameters %s: %w", key, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) SaveSweepSummary(ctx context.Context, rec model.SweepRecord) error {
	payload, err := EncodeSweepSummary(rec)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "sweeps", rec.Key, payload)
}

func (s *SQLiteStore) GetSweepSummary(ctx context.Context, key string) (model.SweepRecord, bool, error) {
	payload, ok, err := s.lookup(ctx, "sweeps", key)
	if err != nil || !ok {
		return model.SweepRecord{}, ok, err
	}
	rec, err := DecodeSweepSummary(payload)
	if err != nil {
		return model.SweepRecord{}, false, fmt.Errorf("decode sweep %s: %w", key, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) upsert(ctx context.Context, table, key string, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, payload)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload
	`, table), key, payload)
	return err
}

func (s *SQLiteStore) lookup(ctx context.Context, table, key string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, fmt.Sprintf(`SELECT payload FROM %s WHERE key = ?`, table), key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cases (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS forcings (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS parameters (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sweeps (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
