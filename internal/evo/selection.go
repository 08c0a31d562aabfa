package evo

import (
	"fmt"
	"math/rand"

	"neurodrive/internal/nn"
)

// Scored is one ranked member of a finished generation.
type Scored struct {
	ID         string
	Fitness    float64
	Controller *nn.Controller
}

// Selector chooses a parent from members ranked by fitness, best first.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []Scored) (Scored, error)
}

// TournamentSelector draws TournamentSize distinct candidates from the top
// PoolSize members and returns the fittest. The earlier rank wins a tie.
type TournamentSelector struct {
	PoolSize       int
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []Scored) (Scored, error) {
	if rng == nil {
		return Scored{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return Scored{}, fmt.Errorf("no ranked members to select from")
	}

	poolSize := s.PoolSize
	if poolSize <= 0 {
		poolSize = len(ranked) / 2
	}
	if poolSize < 1 {
		poolSize = 1
	}
	if poolSize > len(ranked) {
		poolSize = len(ranked)
	}

	tournamentSize := s.TournamentSize
	if tournamentSize <= 0 {
		tournamentSize = 3
	}
	if tournamentSize > poolSize {
		tournamentSize = poolSize
	}

	candidates := rng.Perm(poolSize)[:tournamentSize]
	best := candidates[0]
	for _, idx := range candidates[1:] {
		if ranked[idx].Fitness > ranked[best].Fitness ||
			(ranked[idx].Fitness == ranked[best].Fitness && idx < best) {
			best = idx
		}
	}
	return ranked[best], nil
}

// EliteSelector picks uniformly from the top PoolSize members, the top
// half by default.
type EliteSelector struct {
	PoolSize int
}

func (EliteSelector) Name() string {
	return "elite"
}

func (s EliteSelector) PickParent(rng *rand.Rand, ranked []Scored) (Scored, error) {
	if rng == nil {
		return Scored{}, fmt.Errorf("random source is required")
	}
	if len(ranked) == 0 {
		return Scored{}, fmt.Errorf("no ranked members to select from")
	}
	poolSize := s.PoolSize
	if poolSize <= 0 {
		poolSize = len(ranked) / 2
	}
	if poolSize < 1 {
		poolSize = 1
	}
	if poolSize > len(ranked) {
		poolSize = len(ranked)
	}
	return ranked[rng.Intn(poolSize)], nil
}
