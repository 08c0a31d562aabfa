package evo

import (
	"errors"
	"testing"
)

func TestResolveBuiltInSelectors(t *testing.T) {
	s, err := ResolveSelector("tournament", SelectorOptions{PoolSize: 4, TournamentSize: 2})
	if err != nil {
		t.Fatalf("resolve tournament: %v", err)
	}
	ts, ok := s.(TournamentSelector)
	if !ok || ts.PoolSize != 4 || ts.TournamentSize != 2 {
		t.Fatalf("unexpected tournament selector: %#v", s)
	}

	s, err = ResolveSelector("elite", SelectorOptions{PoolSize: 3})
	if err != nil {
		t.Fatalf("resolve elite: %v", err)
	}
	if s.Name() != "elite" {
		t.Fatalf("unexpected selector: %s", s.Name())
	}

	names := ListSelectors()
	if len(names) != 2 || names[0] != "elite" || names[1] != "tournament" {
		t.Fatalf("unexpected selectors: %v", names)
	}
}

func TestResolveSelectorNotFound(t *testing.T) {
	if _, err := ResolveSelector("roulette", SelectorOptions{}); !errors.Is(err, ErrSelectorNotFound) {
		t.Fatalf("expected ErrSelectorNotFound, got: %v", err)
	}
}

func TestRegisterSelectorDuplicateAndValidation(t *testing.T) {
	resetSelectorRegistryForTests()
	t.Cleanup(resetSelectorRegistryForTests)

	factory := func(SelectorOptions) Selector { return EliteSelector{} }
	if err := RegisterSelector("tournament", factory); !errors.Is(err, ErrSelectorExists) {
		t.Fatalf("expected ErrSelectorExists, got: %v", err)
	}
	if err := RegisterSelector("", factory); err == nil {
		t.Fatal("expected empty name error")
	}
	if err := RegisterSelector("nil", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if err := RegisterSelector("uniform", factory); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := ResolveSelector("uniform", SelectorOptions{}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
}
