// Package tracker provides the issue-tracker connector framework.
//
// Connectors pull raw feature requests from an external tracker (GitHub
// issues today) and hand the pipeline a sequence of cleaned records: markup
// stripped, entities unescaped, URLs removed. Everything downstream of this
// boundary is pure in-memory computation.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Provider defines the interface all tracker connectors implement.
type Provider interface {
	// Name returns the unique provider identifier (e.g. "github").
	Name() string

	// DisplayName returns a human-readable name (e.g. "GitHub").
	DisplayName() string

	// ValidateConfig checks whether the provided JSON config is usable.
	ValidateConfig(config json.RawMessage) error

	// DefaultConfig returns a template config with placeholder values.
	DefaultConfig() json.RawMessage

	// Fetch retrieves all matching feature requests from the tracker.
	Fetch(ctx context.Context, config json.RawMessage) ([]Record, error)
}

// Record is one feature request as produced by a connector. Description is
// already cleaned; Votes is never negative.
type Record struct {
	// ExternalID uniquely identifies the request at its source
	// (e.g. "github:owner/repo#42"), used for deduplication.
	ExternalID string

	// Number is the tracker-local issue number.
	Number int

	// Title is the request title, cleaned the same way as Description.
	Title string

	// Description is the cleaned request body. May be empty.
	Description string

	// Votes is the community demand signal (e.g. +1 reactions).
	Votes int

	// URL points back to the original request.
	URL string

	// UpdatedAt is the last modification time at the source.
	UpdatedAt time.Time
}

// Registry holds all registered providers. Thread-safe.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// DefaultRegistry is the process-wide registry providers self-register into.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry. Panics on duplicate names.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		panic(fmt.Sprintf("tracker: duplicate provider registration: %s", name))
	}
	r.providers[name] = p
}

// Get returns the provider with the given name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tracker provider %q (available: %v)", name, r.names())
	}
	return p, nil
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
