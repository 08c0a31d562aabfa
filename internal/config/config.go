// Package config loads run configuration: embedded YAML defaults overlaid
// by an optional user file in YAML or INI form.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"neurodrive/internal/agent"
	"neurodrive/internal/evo"
	"neurodrive/internal/nn"
	"neurodrive/internal/sim"
	"neurodrive/internal/track"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Run       RunConfig       `yaml:"run" json:"run"`
	Evolution EvolutionConfig `yaml:"evolution" json:"evolution"`
	Network   NetworkConfig   `yaml:"network" json:"network"`
	Agent     AgentConfig     `yaml:"agent" json:"agent"`
	Sensor    SensorConfig    `yaml:"sensor" json:"sensor"`
	Track     TrackConfig     `yaml:"track" json:"track"`
}

type RunConfig struct {
	Seed           int64   `yaml:"seed" ini:"seed" json:"seed"`
	PopulationSize int     `yaml:"population_size" ini:"population_size" json:"population_size"`
	MaxGenerations int     `yaml:"max_generations" ini:"max_generations" json:"max_generations"`
	FrameCap       int     `yaml:"frame_cap" ini:"frame_cap" json:"frame_cap"`
	FPS            int     `yaml:"fps" ini:"fps" json:"fps"`
	RenderEvery    int     `yaml:"render_every" ini:"render_every" json:"render_every"`
	FitnessGoal    float64 `yaml:"fitness_goal" ini:"fitness_goal" json:"fitness_goal"`
}

type EvolutionConfig struct {
	Elitism          int     `yaml:"elitism" ini:"elitism" json:"elitism"`
	MutationRate     float64 `yaml:"mutation_rate" ini:"mutation_rate" json:"mutation_rate"`
	MutationStrength float64 `yaml:"mutation_strength" ini:"mutation_strength" json:"mutation_strength"`
	Selection        string  `yaml:"selection" ini:"selection" json:"selection"`
	TournamentSize   int     `yaml:"tournament_size" ini:"tournament_size" json:"tournament_size"`
	TournamentPool   int     `yaml:"tournament_pool" ini:"tournament_pool" json:"tournament_pool"`
}

type NetworkConfig struct {
	Hidden     int    `yaml:"hidden" ini:"hidden" json:"hidden"`
	Activation string `yaml:"activation" ini:"activation" json:"activation"`
}

type AgentConfig struct {
	MaxAccel          float64 `yaml:"max_accel" ini:"max_accel" json:"max_accel"`
	MaxTurnRate       float64 `yaml:"max_turn_rate" ini:"max_turn_rate" json:"max_turn_rate"`
	Friction          float64 `yaml:"friction" ini:"friction" json:"friction"`
	SpeedNorm         float64 `yaml:"speed_norm" ini:"speed_norm" json:"speed_norm"`
	ProgressThreshold float64 `yaml:"progress_threshold" ini:"progress_threshold" json:"progress_threshold"`
	Radius            float64 `yaml:"radius" ini:"radius" json:"radius"`
	StartX            float64 `yaml:"start_x" ini:"start_x" json:"start_x"`
	StartY            float64 `yaml:"start_y" ini:"start_y" json:"start_y"` // 0 = vertical middle
	StartHeading      float64 `yaml:"start_heading" ini:"start_heading" json:"start_heading"`
}

type SensorConfig struct {
	OffsetsDeg []float64 `yaml:"offsets_deg" ini:"offsets_deg" delim:"," json:"offsets_deg"`
	Length     float64   `yaml:"length" ini:"length" json:"length"`
	Step       float64   `yaml:"step" ini:"step" json:"step"`
}

type TrackConfig struct {
	// Path to a text grid. Empty selects the built-in sine track.
	Path   string `yaml:"path" ini:"path" json:"path"`
	Width  int    `yaml:"width" ini:"width" json:"width"`
	Height int    `yaml:"height" ini:"height" json:"height"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load reads the embedded defaults and overlays path when it is not empty.
// .ini and .cfg files are read as INI; anything else as YAML. Keys missing
// from the file keep their default value.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg":
		if err := cfg.overlayINI(path); err != nil {
			return nil, err
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) overlayINI(path string) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", path, err)
	}
	sections := []struct {
		name string
		dst  any
	}{
		{"run", &c.Run},
		{"evolution", &c.Evolution},
		{"network", &c.Network},
		{"agent", &c.Agent},
		{"sensor", &c.Sensor},
		{"track", &c.Track},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).MapTo(s.dst); err != nil {
			return fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}
	return nil
}

// Validate rejects configurations the run cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Run.PopulationSize <= 0:
		return fmt.Errorf("run.population_size must be > 0")
	case c.Run.MaxGenerations <= 0:
		return fmt.Errorf("run.max_generations must be > 0")
	case c.Run.FrameCap <= 0:
		return fmt.Errorf("run.frame_cap must be > 0")
	case c.Run.FPS <= 0:
		return fmt.Errorf("run.fps must be > 0")
	case c.Run.RenderEvery < 0:
		return fmt.Errorf("run.render_every must be >= 0")
	case c.Run.FitnessGoal < 0:
		return fmt.Errorf("run.fitness_goal must be >= 0")
	case c.Evolution.Elitism < 0 || c.Evolution.Elitism > c.Run.PopulationSize:
		return fmt.Errorf("evolution.elitism must be in [0, population_size]")
	case c.Evolution.MutationRate < 0 || c.Evolution.MutationRate > 1:
		return fmt.Errorf("evolution.mutation_rate must be in [0, 1]")
	case c.Evolution.MutationStrength < 0:
		return fmt.Errorf("evolution.mutation_strength must be >= 0")
	case c.Network.Hidden <= 0:
		return fmt.Errorf("network.hidden must be > 0")
	case len(c.Sensor.OffsetsDeg) == 0:
		return fmt.Errorf("sensor.offsets_deg must not be empty")
	case c.Sensor.Length <= 0 || c.Sensor.Step <= 0:
		return fmt.Errorf("sensor.length and sensor.step must be > 0")
	case c.Agent.SpeedNorm == 0:
		return fmt.Errorf("agent.speed_norm must not be 0")
	case c.Track.Path == "" && (c.Track.Width <= 0 || c.Track.Height <= 0):
		return fmt.Errorf("track.width and track.height must be > 0 without track.path")
	}
	if _, err := evo.ResolveSelector(c.Evolution.Selection, evo.SelectorOptions{}); err != nil {
		return fmt.Errorf("evolution.selection: %w", err)
	}
	if c.Network.Activation != "" {
		if _, err := nn.GetActivation(c.Network.Activation); err != nil {
			return fmt.Errorf("network.activation: %w", err)
		}
	}
	return nil
}

func (c *Config) DT() float64 {
	return 1 / float64(c.Run.FPS)
}

// SensorOffsets returns the ray offsets in radians.
func (c *Config) SensorOffsets() []float64 {
	out := make([]float64, len(c.Sensor.OffsetsDeg))
	for i, deg := range c.Sensor.OffsetsDeg {
		out[i] = deg * math.Pi / 180
	}
	return out
}

// Body builds the agent body for a grid of the given height.
func (c *Config) Body(gridHeight int) agent.Body {
	startY := c.Agent.StartY
	if startY == 0 {
		startY = float64(gridHeight) / 2
	}
	return agent.Body{
		Physics: agent.Physics{
			MaxAccel:          c.Agent.MaxAccel,
			MaxTurnRate:       c.Agent.MaxTurnRate,
			Friction:          c.Agent.Friction,
			SpeedNorm:         c.Agent.SpeedNorm,
			ProgressThreshold: c.Agent.ProgressThreshold,
			Radius:            c.Agent.Radius,
		},
		Sensor: agent.Sensor{
			Offsets: c.SensorOffsets(),
			Length:  c.Sensor.Length,
			Step:    c.Sensor.Step,
		},
		Spawn: agent.Pose{X: c.Agent.StartX, Y: startY, Heading: c.Agent.StartHeading},
	}
}

// Grid loads track.path, or builds the sine track when no path is set.
func (c *Config) Grid() (*track.Grid, error) {
	if c.Track.Path != "" {
		return track.Load(c.Track.Path)
	}
	return track.SineTrack(c.Track.Width, c.Track.Height)
}

func (c *Config) Sim() sim.Config {
	return sim.Config{
		FPS:            c.Run.FPS,
		FrameCap:       c.Run.FrameCap,
		MaxGenerations: c.Run.MaxGenerations,
		RenderEvery:    c.Run.RenderEvery,
		FitnessGoal:    c.Run.FitnessGoal,
	}
}

// Evo builds the population config for a grid of the given height.
func (c *Config) Evo(gridHeight int) (evo.Config, error) {
	selector, err := evo.ResolveSelector(c.Evolution.Selection, evo.SelectorOptions{
		PoolSize:       c.Evolution.TournamentPool,
		TournamentSize: c.Evolution.TournamentSize,
	})
	if err != nil {
		return evo.Config{}, err
	}
	return evo.Config{
		Size:             c.Run.PopulationSize,
		EliteCount:       c.Evolution.Elitism,
		MutationRate:     c.Evolution.MutationRate,
		MutationStrength: c.Evolution.MutationStrength,
		Hidden:           c.Network.Hidden,
		Outputs:          2,
		Activation:       c.Network.Activation,
		Body:             c.Body(gridHeight),
		Selector:         selector,
	}, nil
}
