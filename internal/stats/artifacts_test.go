package stats

import (
	"os"
	"path/filepath"
	"testing"

	"neurodrive/internal/config"
	"neurodrive/internal/model"
)

func sampleArtifacts(t *testing.T, runID string) RunArtifacts {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return RunArtifacts{
		Config:           RunConfig{RunID: runID, Config: *cfg},
		BestByGeneration: []float64{3.5, 6.25, 9},
		Generations: []model.GenerationSummary{
			{Generation: 1, BestFitness: 3.5, MeanFitness: 1.25, MinFitness: 0, AliveCount: 0, Frames: 120, EndReason: model.EndAllDead},
			{Generation: 2, BestFitness: 6.25, MeanFitness: 2.5, MinFitness: 0.5, AliveCount: 3, Frames: 600, EndReason: model.EndFrameCap},
			{Generation: 3, BestFitness: 9, MeanFitness: 4, MinFitness: 1, AliveCount: 0, Frames: 410, EndReason: model.EndAllDead},
		},
		FinalBestFitness: 9,
		Lineage: []model.LineageRecord{
			{AgentID: "g1-i0", Generation: 1, Operation: model.OpSeed},
			{AgentID: "g2-i1", ParentID: "g1-i0", Generation: 2, Operation: model.OpMutate},
		},
	}
}

func TestWriteAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	runID := "run-123"
	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts(t, runID))
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, file := range artifactFiles {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	exportedDir, err := ExportRunArtifacts(baseDir, runID, outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}
	for _, file := range artifactFiles {
		if _, err := os.Stat(filepath.Join(exportedDir, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}
	if _, err := os.Stat(filepath.Join(exportedDir, fitnessPlotFile)); !os.IsNotExist(err) {
		t.Fatalf("expected no plot without one being drawn, got err=%v", err)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected run id error")
	}
}

func TestReadBackConfigAndGenerations(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := sampleArtifacts(t, "run-read")
	artifacts.Config.Run.Seed = 99
	if _, err := WriteRunArtifacts(baseDir, artifacts); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	cfg, ok, err := ReadRunConfig(baseDir, "run-read")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.RunID != "run-read" || cfg.Run.Seed != 99 || cfg.Run.PopulationSize != 20 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	generations, ok, err := ReadGenerations(baseDir, "run-read")
	if err != nil || !ok {
		t.Fatalf("read generations: ok=%t err=%v", ok, err)
	}
	if len(generations) != 3 {
		t.Fatalf("expected 3 generations, got %d", len(generations))
	}
	for i, want := range artifacts.Generations {
		if generations[i] != want {
			t.Fatalf("generation %d mismatch: got=%+v want=%+v", i, generations[i], want)
		}
	}

	if _, ok, err := ReadGenerations(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected missing run to be absent, ok=%t err=%v", ok, err)
	}
}

func TestRunIndexOrderingAndReplace(t *testing.T) {
	baseDir := t.TempDir()

	entries := []RunIndexEntry{
		{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z", FinalBestFitness: 1},
		{RunID: "b", CreatedAtUTC: "2026-01-03T00:00:00Z", FinalBestFitness: 2},
		{RunID: "c", CreatedAtUTC: "2026-01-03T00:00:00Z", FinalBestFitness: 3},
	}
	for _, entry := range entries {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("append %s: %v", entry.RunID, err)
		}
	}

	listed, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(listed) != 3 || listed[0].RunID != "c" || listed[1].RunID != "b" || listed[2].RunID != "a" {
		t.Fatalf("unexpected order: %+v", listed)
	}

	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z", FinalBestFitness: 10}); err != nil {
		t.Fatalf("replace a: %v", err)
	}
	listed, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(listed) != 3 || listed[2].FinalBestFitness != 10 {
		t.Fatalf("expected replaced entry, got %+v", listed)
	}

	if err := AppendRunIndex(baseDir, RunIndexEntry{}); err == nil {
		t.Fatal("expected run id error")
	}
}

func TestListRunIndexEmpty(t *testing.T) {
	listed, err := ListRunIndex(t.TempDir())
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected empty index, got %+v", listed)
	}
}
