package policy

import (
	"context"
	"strings"

	"github.com/janus-erp/janus/gate"
	"github.com/janus-erp/janus/internal/models"
)

// RolesFunc loads the roles assigned to a user.
type RolesFunc func(ctx context.Context, userID string) ([]models.Role, error)

// NewRoleProfileResolver resolves a user's profile as the union of their
// roles' grants. A user without roles gets an empty profile.
func NewRoleProfileResolver(roles RolesFunc) gate.Resolver[string, gate.Profile] {
	return gate.ResolverFunc[string, gate.Profile](func(ctx context.Context, userID string) (gate.Profile, error) {
		rs, err := roles(ctx, userID)
		if err != nil {
			return nil, err
		}
		return ProfileFromRoles(rs), nil
	})
}

// ProfileFromRoles merges role grants into one profile named after the
// roles.
func ProfileFromRoles(roles []models.Role) *gate.StaticProfile {
	names := make([]string, len(roles))
	var perms []gate.Permission
	for i, r := range roles {
		names[i] = r.Name
		for _, g := range r.Permissions.Grants() {
			perms = append(perms, gate.Permission(g))
		}
	}
	return gate.NewStaticProfile(strings.Join(names, ", "), perms...)
}
