package concretize

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/rtlforge/internal/model"
)

// Handler concretizes matches of one strategy kind.
type Handler interface {
	Kind() model.StrategyKind
	Concretize(ctx context.Context, m *model.Match) (*model.Artifact, error)
}

// Registry dispatches matches to the handler of their strategy.
type Registry struct {
	handlers map[model.StrategyKind]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[model.StrategyKind]Handler)}
}

// Register adds a handler, replacing any previous handler of the same kind.
func (r *Registry) Register(h Handler) {
	r.handlers[h.Kind()] = h
}

// Handles reports whether a handler is registered for the kind.
func (r *Registry) Handles(kind model.StrategyKind) bool {
	_, ok := r.handlers[kind]
	return ok
}

// Default builds a registry with both built-in strategies wired.
func Default(genTimeout time.Duration) *Registry {
	r := NewRegistry()
	r.Register(NewStatic())
	r.Register(NewGenerator(genTimeout))
	return r
}

// Concretize dispatches the match to its strategy's handler.
func (r *Registry) Concretize(ctx context.Context, m *model.Match) (*model.Artifact, error) {
	h, ok := r.handlers[m.Descriptor.Strategy()]
	if !ok {
		return nil, fmt.Errorf("no handler registered for strategy %q", m.Descriptor.Strategy())
	}
	return h.Concretize(ctx, m)
}
