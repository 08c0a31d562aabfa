package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"

	"neurodrive/internal/config"
	"neurodrive/internal/model"
	"neurodrive/internal/sim"
	"neurodrive/internal/stats"
	"neurodrive/internal/storage"
	ndapi "neurodrive/pkg/neurodrive"
)

const (
	benchmarksDir = "benchmarks"
	exportsDir    = "exports"
	defaultDBPath = "neurodrive.db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "generations":
		return runGenerations(ctx, args[1:])
	case "lineage":
		return runLineage(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "run config file (.yaml or .ini); embedded defaults when empty")
	trackPath := fs.String("track", "", "text track file ('#' wall, '.' open); overrides config")
	seed := fs.Int64("seed", 0, "random seed; overrides config")
	pop := fs.Int("pop", 0, "population size; overrides config")
	gens := fs.Int("gens", 0, "max generations; overrides config")
	render := fs.Bool("render", false, "draw the track in the terminal while training")
	fpsSleep := fs.Duration("fps-sleep", time.Second/30, "pause after each rendered frame")
	plot := fs.Bool("plot", false, "write fitness.png next to the run artifacts")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	runID := fs.String("run-id", "", "explicit run id; generated when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "track":
			cfg.Track.Path = *trackPath
		case "seed":
			cfg.Run.Seed = *seed
		case "pop":
			if *pop <= 0 {
				flagErr = errors.New("pop must be > 0")
			}
			cfg.Run.PopulationSize = *pop
		case "gens":
			if *gens <= 0 {
				flagErr = errors.New("gens must be > 0")
			}
			cfg.Run.MaxGenerations = *gens
		}
	})
	if flagErr != nil {
		return flagErr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := ndapi.New(ndapi.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := ndapi.RunRequest{
		Config: cfg,
		RunID:  *runID,
		Plot:   *plot,
	}
	if *render {
		req.Renderer = newTerminalRenderer(os.Stdout, cfg.Run.PopulationSize, *fpsSleep)
	} else {
		req.Reporter = sim.ReporterFunc(func(s model.GenerationSummary) error {
			printGeneration(s)
			return nil
		})
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s generations=%d final_best_fitness=%.6f frames=%s stop=%s\n",
		summary.RunID,
		len(summary.Generations),
		summary.FinalBestFitness,
		humanize.Comma(int64(summary.Frames)),
		summary.StopReason,
	)
	if best, err := stats.SummarizeBest(summary.BestByGeneration); err == nil {
		fmt.Printf("best_fitness initial=%.6f final=%.6f mean=%.6f std=%.6f improvement=%.6f\n",
			best.Initial, best.Final, best.Mean, best.Std, best.Improvement)
	}
	fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, ndapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		return printJSON(runs)
	}

	for _, r := range runs {
		created := r.CreatedAtUTC
		if t, err := time.Parse(time.RFC3339Nano, r.CreatedAtUTC); err == nil {
			created = humanize.Time(t)
		}
		fmt.Printf("run_id=%s created=%q seed=%d pop=%d gens=%d final_best_fitness=%.6f stop=%s\n",
			r.RunID,
			created,
			r.Seed,
			r.Population,
			r.Generations,
			r.FinalBestFitness,
			r.StopReason,
		)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs, ref, storeKind, dbPath, jsonOut := runRefFlags("fitness")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunRef(ref, "fitness"); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, *ref)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		return printJSON(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runGenerations(ctx context.Context, args []string) error {
	fs, ref, storeKind, dbPath, jsonOut := runRefFlags("generations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunRef(ref, "generations"); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	generations, err := client.Generations(ctx, *ref)
	if err != nil {
		return err
	}
	if len(generations) == 0 {
		fmt.Println("no generations")
		return nil
	}
	if *jsonOut {
		return printJSON(generations)
	}
	for _, g := range generations {
		printGeneration(g)
	}
	return nil
}

func runLineage(ctx context.Context, args []string) error {
	fs, ref, storeKind, dbPath, jsonOut := runRefFlags("lineage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunRef(ref, "lineage"); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	lineage, err := client.Lineage(ctx, *ref)
	if err != nil {
		return err
	}
	if len(lineage) == 0 {
		fmt.Println("no lineage records")
		return nil
	}
	if *jsonOut {
		return printJSON(lineage)
	}

	for _, rec := range lineage {
		fmt.Printf("gen=%d agent_id=%s parent_id=%s op=%s\n",
			rec.Generation,
			rec.AgentID,
			rec.ParentID,
			rec.Operation,
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunRef(&ndapi.RunRef{RunID: *runID, Latest: *latest}, "export"); err != nil {
		return err
	}

	client, err := ndapi.New(ndapi.Options{BenchmarksDir: benchmarksDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, ndapi.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "plot the most recent run from run index")
	out := fs.String("out", "", "image path (.png, .svg, .pdf); defaults to the run's artifact dir")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunRef(&ndapi.RunRef{RunID: *runID, Latest: *latest}, "plot"); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	path, err := client.Plot(ctx, ndapi.PlotRequest{RunID: *runID, Latest: *latest, OutPath: *out})
	if err != nil {
		return err
	}
	fmt.Printf("plotted to=%s\n", path)
	return nil
}

func runRefFlags(name string) (*flag.FlagSet, *ndapi.RunRef, *string, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	ref := &ndapi.RunRef{}
	fs.StringVar(&ref.RunID, "run-id", "", "run id")
	fs.BoolVar(&ref.Latest, "latest", false, "use the most recent run from run index")
	fs.IntVar(&ref.Limit, "limit", 50, "max rows to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit rows as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	return fs, ref, storeKind, dbPath, jsonOut
}

func checkRunRef(ref *ndapi.RunRef, command string) error {
	if ref.RunID != "" && ref.Latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if ref.RunID == "" && !ref.Latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	if ref.Limit < 0 {
		ref.Limit = 0
	}
	return nil
}

func newClient(storeKind, dbPath string) (*ndapi.Client, error) {
	return ndapi.New(ndapi.Options{
		StoreKind:     storeKind,
		DBPath:        dbPath,
		BenchmarksDir: benchmarksDir,
		ExportsDir:    exportsDir,
	})
}

func printGeneration(s model.GenerationSummary) {
	fmt.Printf("generation=%d best_fitness=%.6f mean_fitness=%.6f min_fitness=%.6f alive=%d frames=%s end=%s\n",
		s.Generation,
		s.BestFitness,
		s.MeanFitness,
		s.MinFitness,
		s.AliveCount,
		humanize.Comma(int64(s.Frames)),
		s.EndReason,
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: neurodrivectl <run|runs|fitness|generations|lineage|export|plot> [flags]", msg)
}
