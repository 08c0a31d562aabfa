package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"neurodrive/internal/config"
	"neurodrive/internal/model"
)

const runIndexFile = "run_index.json"

var artifactFiles = []string{"config.json", "fitness_history.json", "generations.csv", "lineage.json"}

var generationsHeader = []string{"generation", "best_fitness", "mean_fitness", "min_fitness", "alive_count", "frames", "end_reason"}

// RunConfig is the settings a run was started with.
type RunConfig struct {
	RunID string `json:"run_id"`
	config.Config
}

type RunArtifacts struct {
	Config           RunConfig
	BestByGeneration []float64
	Generations      []model.GenerationSummary
	FinalBestFitness float64
	Lineage          []model.LineageRecord
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	CreatedAtUTC     string  `json:"created_at_utc"`
	Seed             int64   `json:"seed"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	StopReason       string  `json:"stop_reason"`
}

type fitnessHistory struct {
	BestByGeneration []float64 `json:"best_by_generation"`
	FinalBestFitness float64   `json:"final_best_fitness"`
}

// WriteRunArtifacts writes one directory per run under baseDir and returns
// its path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	runID := strings.TrimSpace(artifacts.Config.RunID)
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	history := fitnessHistory{
		BestByGeneration: artifacts.BestByGeneration,
		FinalBestFitness: artifacts.FinalBestFitness,
	}
	if history.BestByGeneration == nil {
		history.BestByGeneration = []float64{}
	}
	if err := writeJSON(filepath.Join(runDir, "fitness_history.json"), history); err != nil {
		return "", err
	}
	if err := writeGenerations(filepath.Join(runDir, "generations.csv"), artifacts.Generations); err != nil {
		return "", err
	}
	lineage := artifacts.Lineage
	if lineage == nil {
		lineage = []model.LineageRecord{}
	}
	if err := writeJSON(filepath.Join(runDir, "lineage.json"), lineage); err != nil {
		return "", err
	}

	return runDir, nil
}

// AppendRunIndex adds entry to the index in baseDir, replacing any entry
// with the same run id.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first. For equal timestamps
// the later appended entry comes first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}
	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportRunArtifacts copies a run's artifact files to outDir/<runID>.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range artifactFiles {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	plotPath := filepath.Join(src, fitnessPlotFile)
	if _, err := os.Stat(plotPath); err == nil {
		if err := copyFile(plotPath, filepath.Join(dst, fitnessPlotFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadLineage(baseDir, runID string) ([]model.LineageRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, "lineage.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var lineage []model.LineageRecord
	if err := json.Unmarshal(data, &lineage); err != nil {
		return nil, false, err
	}
	return lineage, true, nil
}

// ReadGenerations parses a run's generations.csv.
func ReadGenerations(baseDir, runID string) ([]model.GenerationSummary, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, "generations.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(generationsHeader)
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return []model.GenerationSummary{}, true, nil
		}
		return nil, false, err
	}

	out := make([]model.GenerationSummary, 0, 64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		summary, err := parseGenerationRow(record)
		if err != nil {
			return nil, false, fmt.Errorf("generations row %d: %w", len(out)+1, err)
		}
		out = append(out, summary)
	}
	return out, true, nil
}

func writeGenerations(path string, generations []model.GenerationSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(generationsHeader); err != nil {
		return err
	}
	for _, g := range generations {
		if err := writer.Write([]string{
			strconv.Itoa(g.Generation),
			strconv.FormatFloat(g.BestFitness, 'f', -1, 64),
			strconv.FormatFloat(g.MeanFitness, 'f', -1, 64),
			strconv.FormatFloat(g.MinFitness, 'f', -1, 64),
			strconv.Itoa(g.AliveCount),
			strconv.Itoa(g.Frames),
			g.EndReason,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseGenerationRow(record []string) (model.GenerationSummary, error) {
	var (
		s   model.GenerationSummary
		err error
	)
	if s.Generation, err = strconv.Atoi(record[0]); err != nil {
		return s, err
	}
	if s.BestFitness, err = strconv.ParseFloat(record[1], 64); err != nil {
		return s, err
	}
	if s.MeanFitness, err = strconv.ParseFloat(record[2], 64); err != nil {
		return s, err
	}
	if s.MinFitness, err = strconv.ParseFloat(record[3], 64); err != nil {
		return s, err
	}
	if s.AliveCount, err = strconv.Atoi(record[4]); err != nil {
		return s, err
	}
	if s.Frames, err = strconv.Atoi(record[5]); err != nil {
		return s, err
	}
	s.EndReason = record[6]
	return s, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
