//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"coltrane/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "coltrane.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteCaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	rec := model.CaseRecord{
		VersionedRecord: Stamp(),
		Key:             "sweep-case0",
		SaveMode:        "everything",
		T0:              []float64{0, 60},
		Dtegg:           []float64{250, 310},
		F1:              [][]float64{{1.2, 0.3}, {0.9, 1.8}},
		F2:              [][]float64{{1.4, 0.1}, {0.7, 2.2}},
		Scalars:         map[string]float64{"f2_max": 2.2},
	}
	if err := store.SaveCaseResult(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, ok, err := store.GetCaseResult(ctx, "sweep-case0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted case")
	}
	if !reflect.DeepEqual(out, rec) {
		t.Fatalf("round trip mismatch: %+v", out)
	}

	// Upsert overwrites.
	rec.Scalars["f2_max"] = 3.0
	if err := store.SaveCaseResult(ctx, rec); err != nil {
		t.Fatalf("save again: %v", err)
	}
	out, _, _ = store.GetCaseResult(ctx, "sweep-case0")
	if out.Scalars["f2_max"] != 3.0 {
		t.Fatalf("upsert did not overwrite: %+v", out.Scalars)
	}
}

func TestSQLiteListCaseKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)
	for _, key := range []string{"s-case2", "s-case0", "s-case1"} {
		if err := store.SaveCaseResult(ctx, model.CaseRecord{VersionedRecord: Stamp(), Key: key}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	keys, err := store.ListCaseKeys(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"s-case0", "s-case1", "s-case2"}) {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestSQLiteForcingParametersSweep(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	if err := store.SaveForcing(ctx, "k", model.ForcingRecord{VersionedRecord: Stamp(), T: []float64{0, 1}, Yday: []float64{1, 2}}); err != nil {
		t.Fatalf("save forcing: %v", err)
	}
	if _, ok, err := store.GetForcing(ctx, "k"); err != nil || !ok {
		t.Fatalf("get forcing: ok=%v err=%v", ok, err)
	}

	if err := store.SaveParameters(ctx, "k", model.ParametersRecord{VersionedRecord: Stamp(), Scalars: map[string]float64{"ks": 30}}); err != nil {
		t.Fatalf("save params: %v", err)
	}
	if _, ok, err := store.GetParameters(ctx, "k"); err != nil || !ok {
		t.Fatalf("get params: ok=%v err=%v", ok, err)
	}

	sweep := model.SweepRecord{VersionedRecord: Stamp(), Key: "sw", Shape: []int{2}, SqueezedShape: []int{2}}
	if err := store.SaveSweepSummary(ctx, sweep); err != nil {
		t.Fatalf("save sweep: %v", err)
	}
	if _, ok, err := store.GetSweepSummary(ctx, "sw"); err != nil || !ok {
		t.Fatalf("get sweep: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteInitCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "coltrane.db")
	store := NewSQLiteStore(path)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init with missing parent: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

func TestSQLiteRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "coltrane.db"))
	if _, _, err := store.GetCaseResult(context.Background(), "k"); err == nil {
		t.Fatal("expected error before init")
	}
}
