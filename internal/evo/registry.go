package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrSelectorExists   = errors.New("selector already registered")
	ErrSelectorNotFound = errors.New("selector not found")
)

// SelectorOptions carries the tunables a configured selector may use.
type SelectorOptions struct {
	PoolSize       int
	TournamentSize int
}

type SelectorFactory func(opts SelectorOptions) Selector

var selectorRegistry = struct {
	mu sync.RWMutex
	m  map[string]SelectorFactory
}{
	m: make(map[string]SelectorFactory),
}

func init() {
	initializeBuiltInSelectors()
}

func initializeBuiltInSelectors() {
	MustRegisterSelector("tournament", func(opts SelectorOptions) Selector {
		return TournamentSelector{PoolSize: opts.PoolSize, TournamentSize: opts.TournamentSize}
	})
	MustRegisterSelector("elite", func(opts SelectorOptions) Selector {
		return EliteSelector{PoolSize: opts.PoolSize}
	})
}

func RegisterSelector(name string, factory SelectorFactory) error {
	if name == "" {
		return errors.New("selector name is required")
	}
	if factory == nil {
		return errors.New("selector factory is required")
	}

	selectorRegistry.mu.Lock()
	defer selectorRegistry.mu.Unlock()

	if _, exists := selectorRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrSelectorExists, name)
	}
	selectorRegistry.m[name] = factory
	return nil
}

func MustRegisterSelector(name string, factory SelectorFactory) {
	if err := RegisterSelector(name, factory); err != nil {
		panic(err)
	}
}

// ResolveSelector builds the named selector with opts.
func ResolveSelector(name string, opts SelectorOptions) (Selector, error) {
	selectorRegistry.mu.RLock()
	factory, ok := selectorRegistry.m[name]
	selectorRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSelectorNotFound, name)
	}
	return factory(opts), nil
}

func ListSelectors() []string {
	selectorRegistry.mu.RLock()
	defer selectorRegistry.mu.RUnlock()

	names := make([]string, 0, len(selectorRegistry.m))
	for name := range selectorRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetSelectorRegistryForTests() {
	selectorRegistry.mu.Lock()
	selectorRegistry.m = make(map[string]SelectorFactory)
	selectorRegistry.mu.Unlock()
	initializeBuiltInSelectors()
}
