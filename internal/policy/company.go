package policy

import (
	"context"

	"github.com/janus-erp/janus/gate"
)

// CompanyOwned is implemented by models that belong to a company.
type CompanyOwned interface {
	GetCompanyID() string
}

// CompanyPolicy lets a user act on resources of their own company. Users
// without a company are denied everything, list/create included.
type CompanyPolicy struct {
	companies gate.Resolver[string, string]
}

func NewCompanyPolicy(companies gate.Resolver[string, string]) *CompanyPolicy {
	return &CompanyPolicy{companies: companies}
}

func (p *CompanyPolicy) Can(ctx context.Context, userID string, _ gate.Action, resource any) bool {
	companyID, err := p.companies.Resolve(ctx, userID)
	if err != nil || companyID == "" {
		return false
	}
	// list/create have no specific resource
	if resource == nil {
		return true
	}
	owned, ok := resource.(CompanyOwned)
	if !ok {
		return false
	}
	return owned.GetCompanyID() == companyID
}

// Access bundles the hybrid gate with the cached resolvers it relies on:
// user to company for ownership and user to role profile for grants.
type Access struct {
	Gate      *gate.HybridGate[string]
	Companies *gate.CachedResolver[string, string]
	Profiles  *gate.CachedResolver[string, gate.Profile]
}

func (a *Access) CompanyOf(ctx context.Context, userID string) (string, error) {
	return a.Companies.Resolve(ctx, userID)
}

func (a *Access) Authorize(ctx context.Context, userID string, action gate.Action, resourceType string, resource any) error {
	return a.Gate.Authorize(ctx, userID, action, resourceType, resource)
}

// Invalidate forgets a user's company and profile, after they join a
// company or their roles or active flag change.
func (a *Access) Invalidate(userID string) {
	a.Companies.Invalidate(userID)
	a.Profiles.Invalidate(userID)
}

// InvalidateAll forgets every profile, after a role's grants change. Company
// memberships are unaffected.
func (a *Access) InvalidateAll() {
	a.Profiles.InvalidateAll()
}
