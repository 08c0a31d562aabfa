// Package neurodrive runs neuro-evolution training on a track and keeps
// the results in a store and on disk.
package neurodrive

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"neurodrive/internal/config"
	"neurodrive/internal/evo"
	"neurodrive/internal/model"
	"neurodrive/internal/sim"
	"neurodrive/internal/stats"
	"neurodrive/internal/storage"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "neurodrive.db"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
}

type Client struct {
	store       storage.Store
	initialized bool

	benchmarksDir string
	exportsDir    string
}

type RunRequest struct {
	// Config defaults to the embedded defaults when nil.
	Config *config.Config
	RunID  string

	Renderer sim.Renderer
	Reporter sim.Reporter

	// Plot draws fitness.png into the run's artifact directory.
	Plot bool
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Generations      []model.GenerationSummary
	BestByGeneration []float64
	FinalBestFitness float64
	Frames           int
	StopReason       string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Seed             int64
	Population       int
	Generations      int
	FinalBestFitness float64
	StopReason       string
}

// RunRef names a stored run by id, or the most recent one with Latest.
type RunRef struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type PlotRequest struct {
	RunID  string
	Latest bool
	// OutPath defaults to fitness.png in the run's artifact directory.
	OutPath string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run trains a population on the configured track. Generation summaries
// are persisted as they are reported, so a cancelled run keeps its
// completed generations.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Default(); err != nil {
			return RunSummary{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	now := time.Now().UTC()

	grid, err := cfg.Grid()
	if err != nil {
		return RunSummary{}, fmt.Errorf("load track: %w", err)
	}
	evoCfg, err := cfg.Evo(grid.Height())
	if err != nil {
		return RunSummary{}, err
	}
	population, err := evo.NewPopulation(evoCfg, rand.New(rand.NewSource(cfg.Run.Seed)))
	if err != nil {
		return RunSummary{}, err
	}

	reported := make([]model.GenerationSummary, 0, cfg.Run.MaxGenerations)
	reporter := sim.ReporterFunc(func(s model.GenerationSummary) error {
		reported = append(reported, s)
		if err := c.store.SaveGenerations(ctx, runID, reported); err != nil {
			return err
		}
		if req.Reporter != nil {
			return req.Reporter.ReportGeneration(s)
		}
		return nil
	})

	scheduler, err := sim.NewScheduler(cfg.Sim(), grid, population, req.Renderer, reporter)
	if err != nil {
		return RunSummary{}, err
	}
	result, err := scheduler.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	lineage := population.Lineage()
	for i := range lineage {
		lineage[i].VersionedRecord = storage.CurrentVersion()
	}

	if err := c.store.SaveRun(ctx, model.RunRecord{
		VersionedRecord:  storage.CurrentVersion(),
		ID:               runID,
		CreatedAtUTC:     now,
		Seed:             cfg.Run.Seed,
		PopulationSize:   cfg.Run.PopulationSize,
		EliteCount:       cfg.Evolution.Elitism,
		MaxGenerations:   cfg.Run.MaxGenerations,
		Generations:      len(result.Generations),
		FinalBestFitness: result.FinalBest,
		TrackWidth:       grid.Width(),
		TrackHeight:      grid.Height(),
		Selection:        population.SelectorName(),
		StopReason:       result.StopReason,
	}); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.BestByGeneration); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveGenerations(ctx, runID, result.Generations); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveLineage(ctx, runID, lineage); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config:           stats.RunConfig{RunID: runID, Config: *cfg},
		BestByGeneration: result.BestByGeneration,
		Generations:      result.Generations,
		FinalBestFitness: result.FinalBest,
		Lineage:          lineage,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if req.Plot && len(result.Generations) > 0 {
		if err := stats.PlotFitnessHistory(result.Generations, runID, stats.FitnessPlotPath(c.benchmarksDir, runID)); err != nil {
			return RunSummary{}, fmt.Errorf("plot fitness: %w", err)
		}
	}

	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            runID,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
		Seed:             cfg.Run.Seed,
		PopulationSize:   cfg.Run.PopulationSize,
		Generations:      len(result.Generations),
		FinalBestFitness: result.FinalBest,
		StopReason:       result.StopReason,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		Generations:      result.Generations,
		BestByGeneration: result.BestByGeneration,
		FinalBestFitness: result.FinalBest,
		Frames:           result.Frames,
		StopReason:       result.StopReason,
	}, nil
}

// Runs lists runs newest first. Runs recorded in the store win; the run
// index on disk is used when the store has none.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, len(records))
	for _, r := range records {
		out = append(out, RunItem{
			RunID:            r.ID,
			CreatedAtUTC:     r.CreatedAtUTC.UTC().Format(time.RFC3339Nano),
			Seed:             r.Seed,
			Population:       r.PopulationSize,
			Generations:      r.Generations,
			FinalBestFitness: r.FinalBestFitness,
			StopReason:       r.StopReason,
		})
	}
	if len(out) == 0 {
		entries, err := stats.ListRunIndex(c.benchmarksDir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out = append(out, RunItem{
				RunID:            e.RunID,
				CreatedAtUTC:     e.CreatedAtUTC,
				Seed:             e.Seed,
				Population:       e.PopulationSize,
				Generations:      e.Generations,
				FinalBestFitness: e.FinalBestFitness,
				StopReason:       e.StopReason,
			})
		}
	}
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

// FitnessHistory returns the best fitness of each generation. Runs missing
// from the store are read from their artifacts.
func (c *Client) FitnessHistory(ctx context.Context, ref RunRef) ([]float64, error) {
	runID, err := c.resolveRunID(ref, "fitness history")
	if err != nil {
		return nil, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		generations, found, err := stats.ReadGenerations(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
		}
		history = make([]float64, 0, len(generations))
		for _, g := range generations {
			history = append(history, g.BestFitness)
		}
	}
	if ref.Limit > 0 && len(history) > ref.Limit {
		history = history[:ref.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Generations(ctx context.Context, ref RunRef) ([]model.GenerationSummary, error) {
	runID, err := c.resolveRunID(ref, "generations")
	if err != nil {
		return nil, err
	}
	generations, err := c.generations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ref.Limit > 0 && len(generations) > ref.Limit {
		generations = generations[:ref.Limit]
	}
	return generations, nil
}

func (c *Client) Lineage(ctx context.Context, ref RunRef) ([]model.LineageRecord, error) {
	runID, err := c.resolveRunID(ref, "lineage")
	if err != nil {
		return nil, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	lineage, ok, err := c.store.GetLineage(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		lineage, ok, err = stats.ReadLineage(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("lineage not found for run id: %s", runID)
		}
	}
	if ref.Limit > 0 && len(lineage) > ref.Limit {
		lineage = lineage[:ref.Limit]
	}
	return lineage, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	runID, err := c.resolveRunID(RunRef{RunID: req.RunID, Latest: req.Latest}, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Plot draws a run's best and mean fitness per generation and returns the
// image path.
func (c *Client) Plot(ctx context.Context, req PlotRequest) (string, error) {
	runID, err := c.resolveRunID(RunRef{RunID: req.RunID, Latest: req.Latest}, "plot")
	if err != nil {
		return "", err
	}
	generations, err := c.generations(ctx, runID)
	if err != nil {
		return "", err
	}
	path := req.OutPath
	if path == "" {
		path = stats.FitnessPlotPath(c.benchmarksDir, runID)
	}
	if err := stats.PlotFitnessHistory(generations, runID, path); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}

func (c *Client) generations(ctx context.Context, runID string) ([]model.GenerationSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	generations, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return generations, nil
	}
	generations, ok, err = stats.ReadGenerations(c.benchmarksDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("generations not found for run id: %s", runID)
	}
	return generations, nil
}

func (c *Client) resolveRunID(ref RunRef, what string) (string, error) {
	if ref.RunID != "" && ref.Latest {
		return "", errors.New("use either run id or latest")
	}
	if ref.Limit < 0 {
		return "", errors.New("limit must be >= 0")
	}
	if !ref.Latest {
		if ref.RunID == "" {
			return "", fmt.Errorf("%s requires run id or latest", what)
		}
		return ref.RunID, nil
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}
