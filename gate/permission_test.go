package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/janus-erp/janus/gate"
)

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		held, requested gate.Permission
		want            bool
	}{
		{"document:create", "document:create", true},
		{"document:create", "document:view", false},
		{"document:manage", "document:delete", true},
		{"document:*", "document:update", true},
		{"*:view", "customer:view", true},
		{"*:view", "customer:create", false},
		{gate.PermissionAll, "role:delete", true},
		{"customer:manage", "product:list", false},
		{"broken", "document:view", false},
		{"document:view", "broken", false},
	}
	for _, tt := range tests {
		if got := tt.held.Matches(tt.requested); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.held, tt.requested, got, tt.want)
		}
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.NewPermission("role", gate.ActionDelete).Parse()
	if res != "role" || act != gate.ActionDelete {
		t.Errorf("Parse = %q, %q", res, act)
	}
	if res, act := gate.Permission(":view").Parse(); res != "" || act != "" {
		t.Errorf("malformed Parse = %q, %q", res, act)
	}
}

func TestStaticProfile(t *testing.T) {
	p := gate.NewStaticProfile("member", "product:view", "document:manage", "product:view")
	if got := p.Permissions(); len(got) != 2 || got[0] != "document:manage" {
		t.Errorf("Permissions = %v", got)
	}
	if !p.HasPermission("document:delete") {
		t.Error("manage should cover delete")
	}
	if p.HasPermission("product:create") {
		t.Error("view must not cover create")
	}
}

func profiles(m map[string]gate.Profile) gate.Resolver[string, gate.Profile] {
	return gate.ResolverFunc[string, gate.Profile](func(_ context.Context, uid string) (gate.Profile, error) {
		p, ok := m[uid]
		if !ok {
			return nil, errors.New("unknown user")
		}
		return p, nil
	})
}

func TestHybridGate_Authorize(t *testing.T) {
	g := gate.NewHybridGate(profiles(map[string]gate.Profile{
		"admin":  gate.NewStaticProfile("admin", gate.PermissionAll),
		"reader": gate.NewStaticProfile("reader", "document:view"),
	}))
	g.Register("document", &mockPolicy{allowAll: true})
	g.Register("secret", &mockPolicy{allowAll: false})
	ctx := context.Background()

	if err := g.Authorize(ctx, "reader", gate.ActionView, "document", nil); err != nil {
		t.Errorf("reader view: %v", err)
	}
	if err := g.Authorize(ctx, "reader", gate.ActionCreate, "document", nil); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("reader create: expected ErrUnauthorized, got %v", err)
	}
	if err := g.Authorize(ctx, "admin", gate.ActionView, "secret", nil); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("policy denial: expected ErrUnauthorized, got %v", err)
	}
	if err := g.Authorize(ctx, "admin", gate.ActionView, "unknown", nil); !errors.Is(err, gate.ErrNoPolicyDefined) {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
	if err := g.Authorize(ctx, "ghost", gate.ActionView, "document", nil); !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("unresolvable profile: expected ErrUnauthorized, got %v", err)
	}
	if g.Can(ctx, "", gate.ActionView, "document", nil) {
		t.Error("zero subject must be denied")
	}
	if got := g.ResourceTypes(); len(got) != 2 || got[0] != "document" {
		t.Errorf("ResourceTypes = %v", got)
	}
}
