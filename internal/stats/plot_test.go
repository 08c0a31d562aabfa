package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPlotFitnessHistoryWritesPNG(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := sampleArtifacts(t, "run-plot")
	if _, err := WriteRunArtifacts(baseDir, artifacts); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	path := FitnessPlotPath(baseDir, "run-plot")
	if err := PlotFitnessHistory(artifacts.Generations, "run-plot", path); err != nil {
		t.Fatalf("plot: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read plot: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("expected png header, got %q", data[:min(8, len(data))])
	}

	exported, err := ExportRunArtifacts(baseDir, "run-plot", filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exported, fitnessPlotFile)); err != nil {
		t.Fatalf("expected exported plot: %v", err)
	}
}

func TestPlotFitnessHistoryEmpty(t *testing.T) {
	if err := PlotFitnessHistory(nil, "empty", filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Fatal("expected error for empty history")
	}
}
