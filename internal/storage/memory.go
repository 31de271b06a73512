package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"coltrane/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	cases       map[string]model.CaseRecord
	forcings    map[string]model.ForcingRecord
	params      map[string]model.ParametersRecord
	sweeps      map[string]model.SweepRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.cases = make(map[string]model.CaseRecord)
	s.forcings = make(map[string]model.ForcingRecord)
	s.params = make(map[string]model.ParametersRecord)
	s.sweeps = make(map[string]model.SweepRecord)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) ensureInit() error {
	if !s.initialized {
		return errors.New("store is not initialized")
	}
	return nil
}

func (s *MemoryStore) SaveCaseResult(_ context.Context, rec model.CaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureInit(); err != nil {
		return err
	}
	s.cases[rec.Key] = rec
	return nil
}

func (s *MemoryStore) GetCaseResult(_ context.Context, key string) (model.CaseRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ensureInit(); err != nil {
		return model.CaseRecord{}, false, err
	}
	rec, ok := s.cases[key]
	return rec, ok, nil
}

func (s *MemoryStore) ListCaseKeys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ensureInit(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(s.cases))
	for key := range s.cases {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) SaveForcing(_ context.Context, key string, rec model.ForcingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureInit(); err != nil {
		return err
	}
	s.forcings[key] = rec
	return nil
}

func (s *MemoryStore) GetForcing(_ context.Context, key string) (model.ForcingRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ensureInit(); err != nil {
		return model.ForcingRecord{}, false, err
	}
	rec, ok := s.forcings[key]
	return rec, ok, nil
}

func (s *MemoryStore) SaveParameters(_ context.Context, key string, rec model.ParametersRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureInit(); err != nil {
		return err
	}
	s.params[key] = rec
	return nil
}

func (s *MemoryStore) GetParameters(_ context.Context, key string) (model.ParametersRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ensureInit(); err != nil {
		return model.ParametersRecord{}, false, err
	}
	rec, ok := s.params[key]
	return rec, ok, nil
}

func (s *MemoryStore) SaveSweepSummary(_ context.Context, rec model.SweepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureInit(); err != nil {
		return err
	}
	s.sweeps[rec.Key] = rec
	return nil
}

func (s *MemoryStore) GetSweepSummary(_ context.Context, key string) (model.SweepRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ensureInit(); err != nil {
		return model.SweepRecord{}, false, err
	}
	rec, ok := s.sweeps[key]
	return rec, ok, nil
}
