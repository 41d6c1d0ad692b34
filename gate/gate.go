// Package gate maps resource types to policies deciding whether a subject
// may act on a resource. It knows nothing about users, companies or
// documents; the API server uses Gate[string] keyed by user id.
package gate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Gate is safe for concurrent use. U must be comparable so the zero subject
// can be rejected before any policy runs.
type Gate[U comparable] struct {
	mu       sync.RWMutex
	policies map[string]Policy[U]
}

func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds or replaces the policy for a resource type (e.g. "document").
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.mu.Lock()
	g.policies[resourceType] = p
	g.mu.Unlock()
}

// ResourceTypes lists the registered resource types, sorted.
func (g *Gate[U]) ResourceTypes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.policies))
	for rt := range g.policies {
		out = append(out, rt)
	}
	sort.Strings(out)
	return out
}

// Authorize returns an error wrapping ErrUnauthorized for the zero subject
// or a denied action, and one wrapping ErrNoPolicyDefined when resourceType
// has no policy.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return fmt.Errorf("%w: no subject", ErrUnauthorized)
	}
	g.mu.RLock()
	p, ok := g.policies[resourceType]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoPolicyDefined, resourceType)
	}
	if !p.Can(ctx, user, action, resource) {
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, action, resourceType)
	}
	return nil
}

func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
