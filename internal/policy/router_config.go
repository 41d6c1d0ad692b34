package policy

import (
	"time"

	"github.com/janus-erp/janus/auth"
	"github.com/janus-erp/janus/gate"
	"github.com/janus-erp/janus/internal/handlers"
	"github.com/janus-erp/janus/internal/services"
	"gorm.io/gorm"
)

// accessCacheTTL bounds how long user→company and user→profile lookups are
// reused. Services invalidate entries they change.
const accessCacheTTL = 5 * time.Minute

// RouterConfig holds configured handlers and the authorization wiring of
// the API server.
type RouterConfig struct {
	Issuer *auth.Issuer
	Access *Access

	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	RoleHandler     *handlers.RoleHandler
	CatalogHandler  *handlers.CatalogHandler
	DocumentHandler *handlers.DocumentHandler

	AuthService     *services.AuthService
	RoleService     *services.RoleService
	MemberService   *services.MemberService
	CatalogService  *services.CatalogService
	DocumentService *services.DocumentService
}

// NewRouterConfig wires services, the hybrid gate and handlers together.
// Every company-scoped resource type gets the company ownership policy on
// top of the role grants. The issuer's user verifier is pointed at the user
// table.
func NewRouterConfig(db *gorm.DB, issuer *auth.Issuer, opts services.AuthOptions) *RouterConfig {
	log := opts.Logger
	authSvc := services.NewAuthService(db, issuer, opts)
	roleSvc := services.NewRoleService(db, log)
	memberSvc := services.NewMemberService(db, log)
	catalogSvc := services.NewCatalogService(db, log)
	docSvc := services.NewDocumentService(db, log)

	issuer.SetUserVerifier(authSvc.UserExists)

	companies := gate.NewCachedResolver[string, string](gate.ResolverFunc[string, string](authSvc.CompanyOf), accessCacheTTL)
	profiles := gate.NewCachedResolver[string, gate.Profile](NewRoleProfileResolver(roleSvc.RolesOf), accessCacheTTL)
	g := gate.NewHybridGate[string](profiles)
	for _, rt := range []string{
		handlers.ResourceDocument,
		handlers.ResourceCustomer,
		handlers.ResourceProduct,
		handlers.ResourceRole,
		handlers.ResourceUser,
	} {
		g.Register(rt, NewCompanyPolicy(companies))
	}
	access := &Access{Gate: g, Companies: companies, Profiles: profiles}

	authSvc.SetAccessCache(access)
	roleSvc.SetAccessCache(access)
	memberSvc.SetAccessCache(access)

	return &RouterConfig{
		Issuer:          issuer,
		Access:          access,
		AuthHandler:     handlers.NewAuthHandler(authSvc, log),
		UserHandler:     handlers.NewUserHandler(authSvc, memberSvc, access, log),
		RoleHandler:     handlers.NewRoleHandler(roleSvc, access, log),
		CatalogHandler:  handlers.NewCatalogHandler(catalogSvc, access, log),
		DocumentHandler: handlers.NewDocumentHandler(docSvc, access, log),
		AuthService:     authSvc,
		RoleService:     roleSvc,
		MemberService:   memberSvc,
		CatalogService:  catalogSvc,
		DocumentService: docSvc,
	}
}
