package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one training run. Trained networks are not kept.
type RunRecord struct {
	VersionedRecord
	ID               string    `json:"id"`
	CreatedAtUTC     time.Time `json:"created_at_utc"`
	Seed             int64     `json:"seed"`
	PopulationSize   int       `json:"population_size"`
	EliteCount       int       `json:"elite_count"`
	MaxGenerations   int       `json:"max_generations"`
	Generations      int       `json:"generations"`
	FinalBestFitness float64   `json:"final_best_fitness"`
	TrackWidth       int       `json:"track_width"`
	TrackHeight      int       `json:"track_height"`
	Selection        string    `json:"selection"`
	StopReason       string    `json:"stop_reason"`
}

// GenerationSummary is reported once a generation's frames have ended.
type GenerationSummary struct {
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	MeanFitness float64 `json:"mean_fitness"`
	MinFitness  float64 `json:"min_fitness"`
	AliveCount  int     `json:"alive_count"`
	Frames      int     `json:"frames"`
	EndReason   string  `json:"end_reason"`
}

const (
	EndAllDead  = "all_dead"
	EndFrameCap = "frame_cap"
)

const (
	OpSeed       = "seed"
	OpEliteClone = "elite_clone"
	OpMutate     = "mutate"
)

type LineageRecord struct {
	VersionedRecord
	AgentID    string `json:"agent_id"`
	ParentID   string `json:"parent_id"`
	Generation int    `json:"generation"`
	Operation  string `json:"operation"`
}
