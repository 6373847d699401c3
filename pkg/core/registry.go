package core

import (
	"fmt"
	"sort"
	"sync"
)

// Global registry parsers add themselves to from init().
var globalRegistry = NewRegistry()

// Registry maps payload format names to parsers.
type Registry struct {
	parsers map[string]Parser
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

// RegisterParser adds a parser to the global registry, replacing any parser
// previously registered under the same format.
func RegisterParser(format string, p Parser) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.parsers[format] = p
}

// GetGlobalRegistry returns a copy of the global registry.
func GetGlobalRegistry() *Registry {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	registry := NewRegistry()
	for format, p := range globalRegistry.parsers {
		registry.parsers[format] = p
	}
	return registry
}

// Register adds p under format. Registering a format twice is an error.
func (r *Registry) Register(format string, p Parser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.parsers[format]; exists {
		return fmt.Errorf("parser %s already registered", format)
	}
	r.parsers[format] = p
	return nil
}

// Parser returns the parser registered for format.
func (r *Registry) Parser(format string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.parsers[format]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParser, format)
	}
	return p, nil
}

// Formats lists registered format names, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
