package exchange

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory builds an exchange on first use.
type Factory func() (Exchange, error)

// Container is a thread-safe registry of exchange clients. Clients are either
// registered ready-made or provided as factories that run once, on the first
// Get, after which the same instance is returned to every caller.
type Container struct {
	mu        sync.RWMutex
	exchanges map[string]Exchange
	factories map[string]Factory
}

// NewContainer creates and returns a new empty exchange container.
func NewContainer() *Container {
	return &Container{
		exchanges: make(map[string]Exchange),
		factories: make(map[string]Factory),
	}
}

// Register adds an exchange instance under name, replacing any previous
// instance or factory.
func (c *Container) Register(name string, ex Exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.factories, name)
	c.exchanges[name] = ex
}

// Provide registers a lazy factory under name. An instance already built
// under name is dropped without being closed.
func (c *Container) Provide(name string, factory Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exchanges, name)
	c.factories[name] = factory
}

// Get returns the exchange registered under name, building it from its
// factory if needed. A failed factory stays registered and runs again on
// the next Get.
func (c *Container) Get(name string) (Exchange, error) {
	c.mu.RLock()
	ex, exists := c.exchanges[name]
	c.mu.RUnlock()
	if exists {
		return ex, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ex, exists := c.exchanges[name]; exists {
		return ex, nil
	}
	factory, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("exchange %q not found", name)
	}

	ex, err := factory()
	if err != nil {
		return nil, fmt.Errorf("build exchange %q: %w", name, err)
	}
	c.exchanges[name] = ex
	delete(c.factories, name)
	return ex, nil
}

// Names returns every registered name, built or not, sorted.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.exchanges)+len(c.factories))
	for name := range c.exchanges {
		names = append(names, name)
	}
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes an exchange from the container by name.
func (c *Container) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exchanges, name)
	delete(c.factories, name)
}

// Clear removes all exchanges from the container.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges = make(map[string]Exchange)
	c.factories = make(map[string]Factory)
}

// Exists checks whether an exchange with the given name is registered.
func (c *Container) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, built := c.exchanges[name]
	_, provided := c.factories[name]
	return built || provided
}

// Close closes every built exchange and empties the container.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for name, ex := range c.exchanges {
		if err := ex.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	c.exchanges = make(map[string]Exchange)
	c.factories = make(map[string]Factory)
	return errors.Join(errs...)
}
