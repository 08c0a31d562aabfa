package evo

import (
	"math/rand"
	"testing"
)

func rankedFixture(fitness ...float64) []Scored {
	out := make([]Scored, len(fitness))
	for i, f := range fitness {
		out[i] = Scored{ID: memberID(1, i), Fitness: f}
	}
	return out
}

func TestTournamentSelectorStaysInPool(t *testing.T) {
	ranked := rankedFixture(10, 9, 8, 7, 6, 5, 4, 3, 2, 1)
	selector := TournamentSelector{}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		parent, err := selector.PickParent(rng, ranked)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		if parent.Fitness < 6 {
			t.Fatalf("parent outside top half: %+v", parent)
		}
	}
}

func TestTournamentSelectorNeverPicksWorstOfPool(t *testing.T) {
	ranked := rankedFixture(5, 4, 3, 2, 1, 0)
	selector := TournamentSelector{PoolSize: 3, TournamentSize: 3}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		parent, err := selector.PickParent(rng, ranked)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		if parent.ID != ranked[0].ID {
			t.Fatalf("full-pool tournament must return rank 0, got=%s", parent.ID)
		}
	}
}

func TestTournamentSelectorTieGoesToEarlierRank(t *testing.T) {
	ranked := rankedFixture(1, 1, 1, 1)
	selector := TournamentSelector{PoolSize: 4, TournamentSize: 4}
	parent, err := selector.PickParent(rand.New(rand.NewSource(3)), ranked)
	if err != nil {
		t.Fatalf("pick parent: %v", err)
	}
	if parent.ID != ranked[0].ID {
		t.Fatalf("expected earliest rank on tie, got=%s", parent.ID)
	}
}

func TestTournamentSelectorSmallPopulation(t *testing.T) {
	ranked := rankedFixture(3)
	parent, err := TournamentSelector{}.PickParent(rand.New(rand.NewSource(1)), ranked)
	if err != nil {
		t.Fatalf("pick parent: %v", err)
	}
	if parent.ID != ranked[0].ID {
		t.Fatalf("unexpected parent: %s", parent.ID)
	}
}

func TestSelectorsRejectBadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, s := range []Selector{TournamentSelector{}, EliteSelector{}} {
		if _, err := s.PickParent(nil, rankedFixture(1)); err == nil {
			t.Fatalf("%s: expected nil rng error", s.Name())
		}
		if _, err := s.PickParent(rng, nil); err == nil {
			t.Fatalf("%s: expected empty ranking error", s.Name())
		}
	}
}

func TestEliteSelectorUsesPool(t *testing.T) {
	ranked := rankedFixture(9, 8, 7, 6, 5)
	selector := EliteSelector{PoolSize: 2}
	rng := rand.New(rand.NewSource(11))
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		parent, err := selector.PickParent(rng, ranked)
		if err != nil {
			t.Fatalf("pick parent: %v", err)
		}
		if parent.Fitness < 8 {
			t.Fatalf("parent outside elite pool: %+v", parent)
		}
		seen[parent.ID] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected both pool members to be picked, got=%v", seen)
	}
}
