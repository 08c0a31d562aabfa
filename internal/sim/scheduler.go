// Package sim drives a population through fixed-timestep frames, one
// generation at a time.
package sim

import (
	"context"
	"fmt"

	"neurodrive/internal/evo"
	"neurodrive/internal/model"
	"neurodrive/internal/track"
)

const (
	StopMaxGenerations = "max_generations"
	StopFitnessGoal    = "fitness_goal"
)

type Config struct {
	FPS            int
	FrameCap       int
	MaxGenerations int

	// RenderEvery throttles rendering to every k-th frame. Zero disables it.
	RenderEvery int

	// FitnessGoal ends the run early once a generation's best reaches it.
	// Zero disables the check.
	FitnessGoal float64
}

func DefaultConfig() Config {
	return Config{
		FPS:            60,
		FrameCap:       600,
		MaxGenerations: 100,
		RenderEvery:    2,
	}
}

func (c Config) DT() float64 {
	return 1 / float64(c.FPS)
}

func (c Config) validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be > 0")
	}
	if c.FrameCap <= 0 {
		return fmt.Errorf("frame cap must be > 0")
	}
	if c.MaxGenerations <= 0 {
		return fmt.Errorf("max generations must be > 0")
	}
	if c.RenderEvery < 0 {
		return fmt.Errorf("render interval must be >= 0")
	}
	if c.FitnessGoal < 0 {
		return fmt.Errorf("fitness goal must be >= 0")
	}
	return nil
}

type Result struct {
	Generations      []model.GenerationSummary
	BestByGeneration []float64

	// FinalBest is the highest fitness seen in any generation of the run.
	FinalBest  float64
	Frames     int
	StopReason string
}

type Scheduler struct {
	cfg         Config
	grid        *track.Grid
	population  *evo.Population
	renderer    Renderer
	reporter    Reporter
	frame       int
	totalFrames int
	allTimeBest float64
}

// NewScheduler wires a population to a grid. renderer and reporter may be
// nil.
func NewScheduler(cfg Config, grid *track.Grid, population *evo.Population, renderer Renderer, reporter Reporter) (*Scheduler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if grid == nil {
		return nil, fmt.Errorf("grid is required")
	}
	if population == nil {
		return nil, fmt.Errorf("population is required")
	}
	return &Scheduler{
		cfg:        cfg,
		grid:       grid,
		population: population,
		renderer:   renderer,
		reporter:   reporter,
	}, nil
}

func (s *Scheduler) Frame() int {
	return s.frame
}

// Step simulates one frame: every agent is updated in population order with
// the same dt and grid.
func (s *Scheduler) Step() (Snapshot, error) {
	dt := s.cfg.DT()
	for _, a := range s.population.Agents() {
		if err := a.Update(dt, s.grid); err != nil {
			return Snapshot{}, fmt.Errorf("generation %d frame %d: %w", s.population.Generation(), s.frame+1, err)
		}
	}
	s.frame++
	s.totalFrames++
	return s.snapshot(), nil
}

func (s *Scheduler) snapshot() Snapshot {
	agents := s.population.Agents()
	views := make([]AgentView, len(agents))
	alive := 0
	best := 0.0
	for i, a := range agents {
		views[i] = AgentView{
			ID:       a.ID,
			X:        a.X,
			Y:        a.Y,
			Heading:  a.Heading,
			Alive:    a.Alive,
			Fitness:  a.Fitness,
			Readings: append([]float64(nil), a.Readings...),
		}
		if a.Alive {
			alive++
		}
		if i == 0 || a.Fitness > best {
			best = a.Fitness
		}
	}
	allTime := s.allTimeBest
	if best > allTime {
		allTime = best
	}
	return Snapshot{
		Generation:  s.population.Generation(),
		Frame:       s.frame,
		AliveCount:  alive,
		BestFitness: best,
		AllTimeBest: allTime,
		Grid:        s.grid,
		Agents:      views,
	}
}

// RunGeneration simulates frames until every agent is dead or the frame cap
// is reached, then advances the population and reports the summary.
func (s *Scheduler) RunGeneration(ctx context.Context) (model.GenerationSummary, error) {
	if err := ctx.Err(); err != nil {
		return model.GenerationSummary{}, err
	}
	s.frame = 0

	endReason := ""
	for endReason == "" {
		snap, err := s.Step()
		if err != nil {
			return model.GenerationSummary{}, err
		}
		if s.renderer != nil && s.cfg.RenderEvery > 0 && snap.Frame%s.cfg.RenderEvery == 0 {
			if err := s.renderer.Render(snap); err != nil {
				return model.GenerationSummary{}, fmt.Errorf("render frame %d: %w", snap.Frame, err)
			}
		}
		switch {
		case snap.AliveCount == 0:
			endReason = model.EndAllDead
		case s.frame >= s.cfg.FrameCap:
			endReason = model.EndFrameCap
		}
	}

	ranking, err := s.population.Advance()
	if err != nil {
		return model.GenerationSummary{}, err
	}
	if ranking.Best > s.allTimeBest {
		s.allTimeBest = ranking.Best
	}
	summary := model.GenerationSummary{
		Generation:  ranking.Generation,
		BestFitness: ranking.Best,
		MeanFitness: ranking.Mean,
		MinFitness:  ranking.Min,
		AliveCount:  ranking.AliveCount,
		Frames:      s.frame,
		EndReason:   endReason,
	}
	if s.reporter != nil {
		if err := s.reporter.ReportGeneration(summary); err != nil {
			return model.GenerationSummary{}, fmt.Errorf("report generation %d: %w", summary.Generation, err)
		}
	}
	return summary, nil
}

// Run plays generations until MaxGenerations have completed or the fitness
// goal is met. ctx is only checked between generations.
func (s *Scheduler) Run(ctx context.Context) (Result, error) {
	result := Result{
		Generations: make([]model.GenerationSummary, 0, s.cfg.MaxGenerations),
		StopReason:  StopMaxGenerations,
	}
	for gen := 0; gen < s.cfg.MaxGenerations; gen++ {
		summary, err := s.RunGeneration(ctx)
		if err != nil {
			return Result{}, err
		}
		result.Generations = append(result.Generations, summary)
		if s.cfg.FitnessGoal > 0 && summary.BestFitness >= s.cfg.FitnessGoal {
			result.StopReason = StopFitnessGoal
			break
		}
	}
	result.BestByGeneration = s.population.BestHistory()
	result.FinalBest = s.allTimeBest
	result.Frames = s.totalFrames
	return result, nil
}
