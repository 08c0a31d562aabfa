package sim

import (
	"neurodrive/internal/model"
	"neurodrive/internal/track"
)

// AgentView is a copy of the agent fields a renderer may draw.
type AgentView struct {
	ID       string
	X        float64
	Y        float64
	Heading  float64
	Alive    bool
	Fitness  float64
	Readings []float64
}

// Snapshot is the read-only view of one simulated frame. Agents are copies;
// the grid is shared but never modified.
type Snapshot struct {
	Generation  int
	Frame       int
	AliveCount  int
	BestFitness float64
	AllTimeBest float64 // includes generations that already ended
	Grid        *track.Grid
	Agents      []AgentView
}

type Renderer interface {
	Render(Snapshot) error
}

type RendererFunc func(Snapshot) error

func (f RendererFunc) Render(s Snapshot) error {
	return f(s)
}

// Reporter receives one summary per finished generation.
type Reporter interface {
	ReportGeneration(model.GenerationSummary) error
}

type ReporterFunc func(model.GenerationSummary) error

func (f ReporterFunc) ReportGeneration(s model.GenerationSummary) error {
	return f(s)
}
