package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"neurodrive/internal/model"
)

func sampleRun(id string, created time.Time) model.RunRecord {
	return model.RunRecord{
		VersionedRecord:  CurrentVersion(),
		ID:               id,
		CreatedAtUTC:     created,
		Seed:             7,
		PopulationSize:   20,
		EliteCount:       2,
		MaxGenerations:   3,
		Generations:      3,
		FinalBestFitness: 12.5,
		TrackWidth:       60,
		TrackHeight:      30,
		Selection:        "tournament",
		StopReason:       "max_generations",
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := sampleRun("run-a", base)
	newer := sampleRun("run-b", base.Add(time.Minute))
	for _, run := range []model.RunRecord{older, newer} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	loaded, ok, err := store.GetRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok || loaded.FinalBestFitness != 12.5 || !loaded.CreatedAtUTC.Equal(base) {
		t.Fatalf("unexpected run: ok=%t %+v", ok, loaded)
	}
	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-b" || runs[1].ID != "run-a" {
		t.Fatalf("expected newest first, got %+v", runs)
	}

	history := []float64{1.5, 3.25, 3.25}
	if err := store.SaveFitnessHistory(ctx, "run-a", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history[0] = 99
	gotHistory, ok, err := store.GetFitnessHistory(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%t err=%v", ok, err)
	}
	if len(gotHistory) != 3 || gotHistory[0] != 1.5 || gotHistory[2] != 3.25 {
		t.Fatalf("unexpected history: %v", gotHistory)
	}

	generations := []model.GenerationSummary{
		{Generation: 1, BestFitness: 1.5, MeanFitness: 0.5, AliveCount: 0, Frames: 212, EndReason: model.EndAllDead},
		{Generation: 2, BestFitness: 3.25, MeanFitness: 1.1, AliveCount: 2, Frames: 600, EndReason: model.EndFrameCap},
	}
	if err := store.SaveGenerations(ctx, "run-a", generations); err != nil {
		t.Fatalf("save generations: %v", err)
	}
	gotGenerations, ok, err := store.GetGenerations(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get generations: ok=%t err=%v", ok, err)
	}
	if len(gotGenerations) != 2 || gotGenerations[1] != generations[1] {
		t.Fatalf("unexpected generations: %+v", gotGenerations)
	}

	lineage := []model.LineageRecord{
		{VersionedRecord: CurrentVersion(), AgentID: "g1-i0", Generation: 1, Operation: model.OpSeed},
		{VersionedRecord: CurrentVersion(), AgentID: "g2-i2", ParentID: "g1-i0", Generation: 2, Operation: model.OpMutate},
	}
	if err := store.SaveLineage(ctx, "run-a", lineage); err != nil {
		t.Fatalf("save lineage: %v", err)
	}
	gotLineage, ok, err := store.GetLineage(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get lineage: ok=%t err=%v", ok, err)
	}
	if len(gotLineage) != 2 || gotLineage[1] != lineage[1] {
		t.Fatalf("unexpected lineage: %+v", gotLineage)
	}

	if _, ok, err := store.GetLineage(ctx, "run-b"); err != nil || ok {
		t.Fatalf("expected no lineage for run-b, ok=%t err=%v", ok, err)
	}

	// overwrite replaces the previous payload
	if err := store.SaveFitnessHistory(ctx, "run-a", []float64{4}); err != nil {
		t.Fatalf("overwrite history: %v", err)
	}
	gotHistory, _, err = store.GetFitnessHistory(ctx, "run-a")
	if err != nil || len(gotHistory) != 1 || gotHistory[0] != 4 {
		t.Fatalf("unexpected overwritten history: %v err=%v", gotHistory, err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), sampleRun("r", time.Now())); err == nil {
		t.Fatal("expected error before init")
	}
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "neurodrive.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "neurodrive.db")

	first := NewSQLiteStore(path)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.SaveRun(ctx, sampleRun("persisted", time.Now().UTC())); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(path)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() {
		_ = second.Close()
	})
	if _, ok, err := second.GetRun(ctx, "persisted"); err != nil || !ok {
		t.Fatalf("expected persisted run, ok=%t err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	if _, _, err := store.GetRun(context.Background(), "x"); !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized error, got: %v", err)
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		t.Fatal("expected missing path error")
	}
}
