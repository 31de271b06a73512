package storage

import (
	"context"
	"fmt"

	"coltrane/internal/model"
)

// Store defines persistence operations for per-case results, the forcing
// and parameters that produced them, and sweep summaries. Keys are derived
// from a base name and a linear case index; concurrent writers always use
// distinct keys.
type Store interface {
	Init(ctx context.Context) error
	SaveCaseResult(ctx context.Context, rec model.CaseRecord) error
	GetCaseResult(ctx context.Context, key string) (model.CaseRecord, bool, error)
	ListCaseKeys(ctx context.Context) ([]string, error)
	SaveForcing(ctx context.Context, key string, rec model.ForcingRecord) error
	GetForcing(ctx context.Context, key string) (model.ForcingRecord, bool, error)
	SaveParameters(ctx context.Context, key string, rec model.ParametersRecord) error
	GetParameters(ctx context.Context, key string) (model.ParametersRecord, bool, error)
	SaveSweepSummary(ctx context.Context, rec model.SweepRecord) error
	GetSweepSummary(ctx context.Context, key string) (model.SweepRecord, bool, error)
}

// Resetter is implemented by stores that can drop all persisted state.
type Resetter interface {
	Reset(ctx context.Context) error
}

// CaseKey derives the per-case storage key from a base name and linear
// case index.
func CaseKey(base string, k int) string {
	return fmt.Sprintf("%s-case%d", base, k)
}
