package gate

import (
	"context"
	"fmt"
)

// HybridGate checks the subject's profile permissions before the resource
// policy, so an action must be both granted by a role and allowed on the
// concrete resource.
type HybridGate[U comparable] struct {
	policies *Gate[U]
	profiles Resolver[U, Profile]
}

func NewHybridGate[U comparable](profiles Resolver[U, Profile]) *HybridGate[U] {
	return &HybridGate[U]{policies: NewGate[U](), profiles: profiles}
}

func (g *HybridGate[U]) Register(resourceType string, p Policy[U]) {
	g.policies.Register(resourceType, p)
}

func (g *HybridGate[U]) ResourceTypes() []string {
	return g.policies.ResourceTypes()
}

// Authorize wraps ErrUnauthorized when the profile cannot be resolved or
// lacks the permission, then defers to the registered policy.
func (g *HybridGate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return fmt.Errorf("%w: no subject", ErrUnauthorized)
	}
	profile, err := g.profiles.Resolve(ctx, user)
	if err != nil {
		return fmt.Errorf("%w: resolve profile: %v", ErrUnauthorized, err)
	}
	if !profile.HasPermission(NewPermission(resourceType, action)) {
		return fmt.Errorf("%w: missing permission %s", ErrUnauthorized, NewPermission(resourceType, action))
	}
	return g.policies.Authorize(ctx, user, action, resourceType, resource)
}

func (g *HybridGate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
