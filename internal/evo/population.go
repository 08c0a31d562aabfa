// Package evo runs the generational genetic algorithm over controller
// weights: rank by fitness, keep elites, refill with mutated offspring.
package evo

import (
	"fmt"
	"math/rand"
	"sort"

	"neurodrive/internal/agent"
	"neurodrive/internal/model"
	"neurodrive/internal/nn"
)

type Config struct {
	Size             int
	EliteCount       int
	MutationRate     float64
	MutationStrength float64
	Hidden           int
	Outputs          int
	Activation       string
	Body             agent.Body
	Selector         Selector
}

func (c Config) validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("population size must be > 0")
	}
	if c.EliteCount < 0 || c.EliteCount > c.Size {
		return fmt.Errorf("elite count must be in [0, population size]")
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0, 1]")
	}
	if c.MutationStrength < 0 {
		return fmt.Errorf("mutation strength must be >= 0")
	}
	if c.Hidden <= 0 {
		return fmt.Errorf("hidden size must be > 0")
	}
	if c.Outputs < 2 {
		return fmt.Errorf("controller needs at least 2 outputs")
	}
	if len(c.Body.Sensor.Offsets) == 0 {
		return fmt.Errorf("sensor fan must have at least one ray")
	}
	return nil
}

// Individual pairs an agent with the controller driving it.
type Individual struct {
	Agent      *agent.Agent
	Controller *nn.Controller
}

// Ranking summarizes the generation Advance just closed.
type Ranking struct {
	Generation int
	Best       float64
	Mean       float64
	Min        float64
	AliveCount int
	Ranked     []Scored
}

type Population struct {
	cfg         Config
	rng         *rand.Rand
	generation  int
	members     []Individual
	bestHistory []float64
	lineage     []model.LineageRecord
}

// NewPopulation seeds cfg.Size agents with random controllers. The
// population starts at generation 1.
func NewPopulation(cfg Config, rng *rand.Rand) (*Population, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Selector == nil {
		cfg.Selector = TournamentSelector{}
	}

	p := &Population{
		cfg:        cfg,
		rng:        rng,
		generation: 1,
		members:    make([]Individual, 0, cfg.Size),
		lineage:    make([]model.LineageRecord, 0, cfg.Size),
	}
	for i := 0; i < cfg.Size; i++ {
		c, err := nn.NewControllerWithActivation(rng, cfg.Body.Inputs(), cfg.Hidden, cfg.Outputs, cfg.Activation)
		if err != nil {
			return nil, fmt.Errorf("seed controller %d: %w", i, err)
		}
		id := memberID(1, i)
		p.members = append(p.members, p.individual(id, c))
		p.lineage = append(p.lineage, model.LineageRecord{
			AgentID:    id,
			Generation: 1,
			Operation:  model.OpSeed,
		})
	}
	return p, nil
}

func memberID(generation, index int) string {
	return fmt.Sprintf("g%d-i%d", generation, index)
}

func (p *Population) individual(id string, c *nn.Controller) Individual {
	return Individual{Agent: agent.New(id, p.cfg.Body, c), Controller: c}
}

func (p *Population) Generation() int {
	return p.generation
}

func (p *Population) Size() int {
	return len(p.members)
}

func (p *Population) SelectorName() string {
	return p.cfg.Selector.Name()
}

func (p *Population) Members() []Individual {
	return append([]Individual(nil), p.members...)
}

func (p *Population) Agents() []*agent.Agent {
	out := make([]*agent.Agent, len(p.members))
	for i, m := range p.members {
		out[i] = m.Agent
	}
	return out
}

func (p *Population) AliveCount() int {
	n := 0
	for _, m := range p.members {
		if m.Agent.Alive {
			n++
		}
	}
	return n
}

// BestFitness is the highest fitness in the current generation so far.
func (p *Population) BestFitness() float64 {
	best := 0.0
	for i, m := range p.members {
		if i == 0 || m.Agent.Fitness > best {
			best = m.Agent.Fitness
		}
	}
	return best
}

// BestHistory holds one best-fitness entry per completed generation.
func (p *Population) BestHistory() []float64 {
	return append([]float64(nil), p.bestHistory...)
}

func (p *Population) Lineage() []model.LineageRecord {
	return append([]model.LineageRecord(nil), p.lineage...)
}

func (p *Population) rank() []Scored {
	ranked := make([]Scored, len(p.members))
	for i, m := range p.members {
		ranked[i] = Scored{ID: m.Agent.ID, Fitness: m.Agent.Fitness, Controller: m.Controller}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})
	return ranked
}

// Advance closes the current generation and replaces the population with
// the next one: the top EliteCount controllers unchanged, the rest mutated
// copies of selected parents. Every new member starts on the spawn pose.
func (p *Population) Advance() (Ranking, error) {
	ranked := p.rank()
	ranking := summarize(ranked, p.generation, p.AliveCount())
	p.bestHistory = append(p.bestHistory, ranking.Best)

	nextGen := p.generation + 1
	next := make([]Individual, 0, p.cfg.Size)
	lineage := make([]model.LineageRecord, 0, p.cfg.Size)

	for i := 0; i < p.cfg.EliteCount; i++ {
		elite := ranked[i]
		next = append(next, p.individual(elite.ID, elite.Controller.Clone()))
		lineage = append(lineage, model.LineageRecord{
			AgentID:    elite.ID,
			ParentID:   elite.ID,
			Generation: nextGen,
			Operation:  model.OpEliteClone,
		})
	}

	for len(next) < p.cfg.Size {
		parent, err := p.cfg.Selector.PickParent(p.rng, ranked)
		if err != nil {
			return Ranking{}, fmt.Errorf("generation %d: pick parent: %w", p.generation, err)
		}
		child := parent.Controller.Clone()
		child.Mutate(p.rng, p.cfg.MutationRate, p.cfg.MutationStrength)
		id := memberID(nextGen, len(next))
		next = append(next, p.individual(id, child))
		lineage = append(lineage, model.LineageRecord{
			AgentID:    id,
			ParentID:   parent.ID,
			Generation: nextGen,
			Operation:  model.OpMutate,
		})
	}

	p.members = next
	p.lineage = append(p.lineage, lineage...)
	p.generation = nextGen
	return ranking, nil
}

func summarize(ranked []Scored, generation, alive int) Ranking {
	r := Ranking{Generation: generation, AliveCount: alive, Ranked: ranked}
	if len(ranked) == 0 {
		return r
	}
	total := 0.0
	for _, s := range ranked {
		total += s.Fitness
	}
	r.Best = ranked[0].Fitness
	r.Min = ranked[len(ranked)-1].Fitness
	r.Mean = total / float64(len(ranked))
	return r
}
