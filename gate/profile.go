package gate

import "sort"

// Profile is the set of permissions a subject holds, usually the union of
// its roles.
type Profile interface {
	Name() string
	HasPermission(p Permission) bool
	Permissions() []Permission
}

// StaticProfile is an immutable Profile.
type StaticProfile struct {
	name  string
	perms []Permission
}

var _ Profile = (*StaticProfile)(nil)

func NewStaticProfile(name string, perms ...Permission) *StaticProfile {
	seen := make(map[Permission]bool, len(perms))
	out := make([]Permission, 0, len(perms))
	for _, p := range perms {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return &StaticProfile{name: name, perms: out}
}

func (p *StaticProfile) Name() string { return p.name }

func (p *StaticProfile) HasPermission(requested Permission) bool {
	for _, held := range p.perms {
		if held.Matches(requested) {
			return true
		}
	}
	return false
}

// Permissions returns a sorted copy without duplicates.
func (p *StaticProfile) Permissions() []Permission {
	return append([]Permission(nil), p.perms...)
}
